package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/school-dashboard/internal/events"
	"github.com/SAP-F-2025/school-dashboard/internal/validator"
)

// validateRequest wraps ValidationErrors so both errors.Is and errors.As work
func validateRequest(v *validator.Validator, req interface{}) error {
	if err := v.Validate(req); err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	return nil
}

// publishEvent logs instead of failing; events are published after the writes succeed
func publishEvent(ctx context.Context, publisher events.EventPublisher, logger *slog.Logger, eventType events.EventType, data interface{}) {
	if publisher == nil {
		return
	}

	event, err := events.NewEvent(eventType, data)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to build event", "event_type", eventType, "error", err)
		return
	}
	if err := publisher.Publish(ctx, event); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "event_type", eventType, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
