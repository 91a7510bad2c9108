package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"absbot/events"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// SourceService is stamped on every envelope
const SourceService = "absbot"

// MessagePublisher is the transport the forwarder writes to
type MessagePublisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// PublishRecorder counts forwarded events
type PublishRecorder interface {
	RecordNATSMessagePublished(eventType string)
}

// EventEnvelope wraps a serialized event for the message bus
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	GuildID       string          `json:"guild_id"`
	Timestamp     time.Time       `json:"timestamp"`
	SourceService string          `json:"source_service"`
	Payload       json.RawMessage `json:"payload"`
}

// EventForwarder mirrors bus events onto the message bus
type EventForwarder struct {
	publisher MessagePublisher
	recorder  PublishRecorder
	now       func() time.Time
}

// NewEventForwarder creates a forwarder; recorder may be nil
func NewEventForwarder(publisher MessagePublisher, recorder PublishRecorder) *EventForwarder {
	return &EventForwarder{
		publisher: publisher,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Register subscribes the forwarder to every event type the bot raises
func (f *EventForwarder) Register(bus *events.Bus) {
	handler := func(ctx context.Context, event events.Event) {
		if err := f.Forward(ctx, event); err != nil {
			log.WithFields(log.Fields{
				"eventType": event.Type(),
				"guild_id":  event.Guild().String(),
			}).WithError(err).Error("Failed to forward event to NATS")
		}
	}

	bus.Subscribe(events.EventTypeMemberLeft, handler)
	bus.Subscribe(events.EventTypeNotifyChannelSet, handler)
}

// Forward publishes event wrapped in an EventEnvelope
func (f *EventForwarder) Forward(ctx context.Context, event events.Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	envelope := EventEnvelope{
		EventID:       uuid.New().String(),
		EventType:     string(event.Type()),
		GuildID:       event.Guild().String(),
		Timestamp:     f.now().UTC(),
		SourceService: SourceService,
		Payload:       payload,
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal event envelope: %w", err)
	}

	subject := SubjectFor(event)
	if err := f.publisher.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("failed to publish event to NATS: %w", err)
	}

	if f.recorder != nil {
		f.recorder.RecordNATSMessagePublished(string(event.Type()))
	}

	log.WithFields(log.Fields{
		"eventType": event.Type(),
		"eventId":   envelope.EventID,
		"subject":   subject,
	}).Debug("Successfully published event to NATS")

	return nil
}
