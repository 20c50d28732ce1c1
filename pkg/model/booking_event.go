package model

import "time"

type BookingEventType string

const (
	EventBookingCreated     BookingEventType = "booking.created"
	EventBookingCanceled    BookingEventType = "booking.canceled"
	EventBookingRescheduled BookingEventType = "booking.rescheduled"
)

// BookingEvent is published after the gateway confirms a mutation.
type BookingEvent struct {
	Type       BookingEventType `json:"type"`
	TenantID   string           `json:"tenant_id"`
	BookingUID string           `json:"booking_uid,omitempty"`
	BookingID  ExternalID       `json:"booking_id,omitempty"`
	ContactID  string           `json:"contact_id,omitempty"`
	StartTime  *time.Time       `json:"start_time,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
