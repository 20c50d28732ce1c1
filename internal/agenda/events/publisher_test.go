package events

import (
	"context"
	"testing"
	"time"

	"jdpanel/pkg/kafka"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/middleware"
	"jdpanel/pkg/model"
)

func TestNewMessage(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-1")
	event := model.BookingEvent{
		Type:       model.EventBookingCanceled,
		TenantID:   "tenant-a",
		BookingUID: "u-1",
		BookingID:  "7",
		ContactID:  "c-1",
		OccurredAt: time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC),
	}

	msg := NewMessage(ctx, event)

	if msg.Key != "tenant-a" {
		t.Errorf("Key = %q, want tenant id", msg.Key)
	}
	if got := msg.GetEventType(); got != "booking.canceled" {
		t.Errorf("event type = %q", got)
	}
	if got := msg.GetCorrelationID(); got != "req-1" {
		t.Errorf("correlation id = %q", got)
	}
	if msg.GetEventID() == "" {
		t.Error("event id should be generated")
	}
	if h, _ := msg.GetHeader(kafka.HeaderSource); h != "agenda" {
		t.Errorf("source = %q", h)
	}

	var decoded model.BookingEvent
	if err := msg.DecodeValue(&decoded); err != nil {
		t.Fatalf("DecodeValue: %v", err)
	}
	if decoded.ContactID != "c-1" || decoded.BookingID != "7" {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(logger.Discard())
	if err := p.Publish(context.Background(), model.BookingEvent{Type: model.EventBookingCreated}); err != nil {
		t.Errorf("Publish() = %v", err)
	}
}
