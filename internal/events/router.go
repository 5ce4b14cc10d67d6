package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

// Handler consumes one decoded event
type Handler func(ctx context.Context, event *Event) error

// Consumer routes events from the topic to handlers by type
type Consumer struct {
	router   *message.Router
	handlers map[EventType][]Handler
	logger   *slog.Logger
}

// PoisonTopic is where events go after their handler fails
func PoisonTopic(topic string) string {
	return topic + ".poison"
}

// NewConsumer builds the router; a failed event is moved to PoisonTopic and acked, never redelivered
func NewConsumer(subscriber message.Subscriber, publisher message.Publisher, topic string, logger *slog.Logger) (*Consumer, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	router, err := message.NewRouter(message.RouterConfig{}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to create event router: %w", err)
	}

	poisonQueue, err := middleware.PoisonQueue(publisher, PoisonTopic(topic))
	if err != nil {
		return nil, fmt.Errorf("failed to create poison queue: %w", err)
	}
	router.AddMiddleware(
		poisonQueue,
		middleware.Recoverer,
	)

	c := &Consumer{
		router:   router,
		handlers: make(map[EventType][]Handler),
		logger:   logger,
	}
	router.AddConsumerHandler("school_events", topic, subscriber, c.dispatch)

	return c, nil
}

// Handle registers h for eventType; call before Run
func (c *Consumer) Handle(eventType EventType, h Handler) {
	c.handlers[eventType] = append(c.handlers[eventType], h)
}

func (c *Consumer) dispatch(msg *message.Message) error {
	var event Event
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		// malformed payloads are acked and dropped
		c.logger.Error("Dropping malformed event", "message_uuid", msg.UUID, "error", err)
		return nil
	}

	for _, h := range c.handlers[event.Type] {
		if err := h(msg.Context(), &event); err != nil {
			c.logger.Error("Event handler failed, moving event to poison topic",
				"event_id", event.ID, "event_type", event.Type, "error", err)
			return fmt.Errorf("handle %s: %w", event.Type, err)
		}
	}
	return nil
}

// Run blocks until ctx is cancelled or Close is called
func (c *Consumer) Run(ctx context.Context) error {
	return c.router.Run(ctx)
}

// Running is closed once the router has started
func (c *Consumer) Running() chan struct{} {
	return c.router.Running()
}

func (c *Consumer) Close() error {
	return c.router.Close()
}
