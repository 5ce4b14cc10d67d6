package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewEvent(t *testing.T) {
	event, err := NewEvent(MarkAdded, MarkAddedEvent{Email: "ann@school.test", Subject: "General", Score: 40})
	require.NoError(t, err)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, EventSource, event.Source)
	assert.Equal(t, EventVersion, event.Version)
	assert.False(t, event.Timestamp.IsZero())

	var payload MarkAddedEvent
	require.NoError(t, event.Decode(&payload))
	assert.Equal(t, 40.0, payload.Score)
}

func TestWatermillPublisher_DeliversToConsumer(t *testing.T) {
	logger := testLogger()
	ps, err := NewPubSub(nil, logger)
	require.NoError(t, err)
	defer ps.Close()

	consumer, err := NewConsumer(ps.Subscriber, ps.Publisher, "school.events", logger)
	require.NoError(t, err)

	received := make(chan MessageBroadcastEvent, 1)
	var other atomic.Int32
	consumer.Handle(MessageBroadcast, func(ctx context.Context, event *Event) error {
		var payload MessageBroadcastEvent
		if err := event.Decode(&payload); err != nil {
			return err
		}
		received <- payload
		return nil
	})
	consumer.Handle(MarkAdded, func(ctx context.Context, event *Event) error {
		other.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.Run(ctx)
	<-consumer.Running()

	publisher := NewWatermillPublisher(ps.Publisher, "school.events", logger)
	event, err := NewEvent(MessageBroadcast, MessageBroadcastEvent{
		Message:    "exam friday",
		Class:      "10",
		Section:    "A",
		Recipients: []string{"s1@school.test"},
	})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case payload := <-received:
		assert.Equal(t, "exam friday", payload.Message)
		assert.Equal(t, []string{"s1@school.test"}, payload.Recipients)
	case <-time.After(5 * time.Second):
		t.Fatal("event not delivered")
	}
	assert.Equal(t, int32(0), other.Load())

	require.NoError(t, consumer.Close())
}

func TestConsumer_FailedEventGoesToPoisonTopic(t *testing.T) {
	logger := testLogger()
	ps, err := NewPubSub(nil, logger)
	require.NoError(t, err)
	defer ps.Close()

	consumer, err := NewConsumer(ps.Subscriber, ps.Publisher, "school.events", logger)
	require.NoError(t, err)

	var calls atomic.Int32
	consumer.Handle(MessageBroadcast, func(ctx context.Context, event *Event) error {
		calls.Add(1)
		return errors.New("resend rejected the key")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	poisoned, err := ps.Subscriber.Subscribe(ctx, PoisonTopic("school.events"))
	require.NoError(t, err)

	go consumer.Run(ctx)
	<-consumer.Running()

	publisher := NewWatermillPublisher(ps.Publisher, "school.events", logger)
	event, err := NewEvent(MessageBroadcast, MessageBroadcastEvent{Message: "exam friday", Recipients: []string{"s1@school.test"}})
	require.NoError(t, err)
	require.NoError(t, publisher.Publish(ctx, event))

	select {
	case msg := <-poisoned:
		assert.Contains(t, msg.Metadata.Get(middleware.ReasonForPoisonedKey), "resend rejected the key")
		msg.Ack()
	case <-time.After(5 * time.Second):
		t.Fatal("failed event not moved to the poison topic")
	}

	// the failed event is acked, so it is not handled again
	time.Sleep(500 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, consumer.Close())
}

func TestMockEventPublisher(t *testing.T) {
	ctx := context.Background()
	mock := NewMockEventPublisher(testLogger())

	e1, _ := NewEvent(MarkAdded, MarkAddedEvent{})
	e2, _ := NewEvent(AttendanceMarked, AttendanceMarkedEvent{})
	require.NoError(t, mock.Publish(ctx, e1))
	require.NoError(t, mock.Publish(ctx, e2))

	assert.Len(t, mock.GetPublishedEvents(), 2)
	assert.Len(t, mock.EventsOfType(MarkAdded), 1)

	mock.ClearEvents()
	assert.Empty(t, mock.GetPublishedEvents())

	mock.FailWith(errors.New("broker down"))
	assert.Error(t, mock.Publish(ctx, e1))
}
