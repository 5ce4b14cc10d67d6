package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
)

const (
	EventSource  = "school-dashboard"
	EventVersion = "1.0"
)

type EventType string

const (
	SessionSignedIn    EventType = "session.signed_in"
	SessionSignedOut   EventType = "session.signed_out"
	UsersImported      EventType = "users.imported"
	AttendanceMarked   EventType = "attendance.marked"
	MarkAdded          EventType = "mark.added"
	AssignmentUploaded EventType = "assignment.uploaded"
	MessageBroadcast   EventType = "message.broadcast"
)

// Event is the envelope published on the events topic
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Source    string          `json:"source"`
	Version   string          `json:"version"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// NewEvent wraps data in an envelope with a fresh id
func NewEvent(eventType EventType, data interface{}) (*Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s event: %w", eventType, err)
	}
	return &Event{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Source:    EventSource,
		Version:   EventVersion,
		Timestamp: time.Now().UTC(),
		Data:      raw,
	}, nil
}

// Decode unmarshals the payload into dest
func (e *Event) Decode(dest interface{}) error {
	if err := json.Unmarshal(e.Data, dest); err != nil {
		return fmt.Errorf("decode %s event: %w", e.Type, err)
	}
	return nil
}

// EventPublisher publishes domain events
type EventPublisher interface {
	Publish(ctx context.Context, event *Event) error
	Close() error
}

// Payloads

type SessionEvent struct {
	UID   string `json:"uid"`
	Email string `json:"email"`
}

type UsersImportedEvent struct {
	Total   int `json:"total"`
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Failed  int `json:"failed"`
}

type AttendanceMarkedEvent struct {
	Email     string `json:"email"`
	Timestamp string `json:"timestamp"`
}

type MarkAddedEvent struct {
	Email   string  `json:"email"`
	Subject string  `json:"subject"`
	Score   float64 `json:"score"`
}

type AssignmentUploadedEvent struct {
	FileName   string   `json:"file_name"`
	URL        string   `json:"url"`
	Class      string   `json:"class"`
	Section    string   `json:"section"`
	Recipients []string `json:"recipients"`
}

type MessageBroadcastEvent struct {
	Message    string   `json:"message"`
	Class      string   `json:"class"`
	Section    string   `json:"section"`
	Recipients []string `json:"recipients"`
}
