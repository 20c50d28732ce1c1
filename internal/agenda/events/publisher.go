package events

import (
	"context"
	"fmt"

	"jdpanel/pkg/kafka"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/middleware"
	"jdpanel/pkg/model"
)

const (
	source        = "agenda"
	schemaVersion = "1"
)

// Publisher announces gateway-confirmed booking mutations.
type Publisher interface {
	Publish(ctx context.Context, event model.BookingEvent) error
}

// KafkaPublisher writes booking events keyed by tenant so one tenant's
// events stay ordered on a single partition.
type KafkaPublisher struct {
	producer *kafka.Producer
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event model.BookingEvent) error {
	msg := NewMessage(ctx, event)
	if err := p.producer.Publish(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// NewMessage builds the kafka message for event. The request id, when
// present, travels as the correlation id.
func NewMessage(ctx context.Context, event model.BookingEvent) kafka.Message {
	builder := kafka.NewMessage().
		WithKey(event.TenantID).
		WithValue(event).
		WithEventType(string(event.Type)).
		WithSchemaVersion(schemaVersion).
		WithSource(source)

	if requestID := middleware.RequestIDFrom(ctx); requestID != "" {
		builder = builder.WithCorrelationID(requestID)
	}
	return builder.Build()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct {
	log *logger.Logger
}

func NewNoopPublisher(log *logger.Logger) *NoopPublisher {
	return &NoopPublisher{log: log}
}

func (p *NoopPublisher) Publish(_ context.Context, event model.BookingEvent) error {
	p.log.Debug("Booking event not published, kafka disabled",
		"type", event.Type,
		"tenant_id", event.TenantID,
	)
	return nil
}
