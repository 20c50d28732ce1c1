package model

import "time"

type BookingStatus string

const (
	BookingConfirmed BookingStatus = "confirmed"
	BookingPending   BookingStatus = "pending"
	BookingCanceled  BookingStatus = "canceled"
)

const (
	GatewayStatusAccepted = "ACCEPTED"
	GatewayStatusPending  = "PENDING"

	DefaultClientName   = "Cliente"
	DefaultServiceTitle = "Agendamento"
)

// StatusFromGateway maps a raw gateway status. Anything that is neither
// ACCEPTED nor PENDING is treated as canceled.
func StatusFromGateway(raw string) BookingStatus {
	switch raw {
	case GatewayStatusAccepted:
		return BookingConfirmed
	case GatewayStatusPending:
		return BookingPending
	default:
		return BookingCanceled
	}
}

func (s BookingStatus) Label() string {
	switch s {
	case BookingConfirmed:
		return "Confirmado"
	case BookingPending:
		return "Pendente"
	default:
		return "Cancelado"
	}
}

func (s BookingStatus) Color() string {
	switch s {
	case BookingConfirmed:
		return "emerald"
	case BookingPending:
		return "amber"
	default:
		return "rose"
	}
}

// Active reports whether the booking still occupies its slot.
func (s BookingStatus) Active() bool {
	return s == BookingConfirmed || s == BookingPending
}

// Booking is the local mirror of a gateway booking. ID addresses the v1
// endpoints, ExternalUID the v2 ones.
type Booking struct {
	ID           ExternalID    `json:"id"`
	ExternalUID  string        `json:"uid"`
	ClientName   string        `json:"client_name"`
	ServiceTitle string        `json:"service_title"`
	StartTime    time.Time     `json:"start_time"`
	Status       BookingStatus `json:"status"`
	EventTypeID  *ExternalID   `json:"event_type_id,omitempty"`
	ContactID    string        `json:"contact_id,omitempty"`

	// Raw names as typed on the booking form and on the first attendee.
	FormName     string `json:"-"`
	AttendeeName string `json:"-"`

	StatusLabel string `json:"status_label"`
	StatusColor string `json:"status_color"`
	DisplayDate string `json:"display_date,omitempty"`
}

// WithStatus returns a copy carrying status and its derived display fields.
func (b Booking) WithStatus(status BookingStatus) Booking {
	b.Status = status
	b.StatusLabel = status.Label()
	b.StatusColor = status.Color()
	return b
}

// UpcomingBooking is one row of the dashboard "next appointments" card.
type UpcomingBooking struct {
	Name        string `json:"name"`
	Initials    string `json:"initials"`
	Service     string `json:"service"`
	Status      string `json:"status"`
	StatusColor string `json:"status_color"`
	Date        string `json:"date"`
}

type DashboardSummary struct {
	IntegrationReady bool              `json:"integration_ready"`
	TodayCount       int               `json:"today_count"`
	Summary          string            `json:"summary"`
	Upcoming         []UpcomingBooking `json:"upcoming"`
}
