package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/notifier"
)

type notificationService struct {
	sender notifier.Sender
	logger *slog.Logger
}

func NewNotificationService(sender notifier.Sender, logger *slog.Logger) NotificationService {
	return &notificationService{
		sender: sender,
		logger: logger,
	}
}

func (s *notificationService) Register(consumer EventConsumer) {
	consumer.Handle(events.MessageBroadcast, s.handleBroadcast)
	consumer.Handle(events.AssignmentUploaded, s.handleAssignment)
}

func (s *notificationService) handleBroadcast(ctx context.Context, event *events.Event) error {
	var data events.MessageBroadcastEvent
	if err := event.Decode(&data); err != nil {
		return err
	}

	reqs := make([]notifier.SendRequest, 0, len(data.Recipients))
	for _, to := range data.Recipients {
		reqs = append(reqs, notifier.BroadcastEmail(to, data.Class, data.Section, data.Message))
	}
	return s.send(ctx, event, reqs)
}

func (s *notificationService) handleAssignment(ctx context.Context, event *events.Event) error {
	var data events.AssignmentUploadedEvent
	if err := event.Decode(&data); err != nil {
		return err
	}

	reqs := make([]notifier.SendRequest, 0, len(data.Recipients))
	for _, to := range data.Recipients {
		reqs = append(reqs, notifier.AssignmentEmail(to, data.Class, data.Section, data.FileName, data.URL))
	}
	return s.send(ctx, event, reqs)
}

func (s *notificationService) send(ctx context.Context, event *events.Event, reqs []notifier.SendRequest) error {
	if len(reqs) == 0 {
		return nil
	}

	// failed events go to the poison topic with this error, including the sent count
	sent, err := s.sender.SendBatch(ctx, reqs)
	if err != nil {
		return fmt.Errorf("send %s emails (%d of %d sent): %w", event.Type, sent, len(reqs), err)
	}

	s.logger.InfoContext(ctx, "Notification emails sent", "event_id", event.ID, "event_type", event.Type, "sent", sent)
	return nil
}
