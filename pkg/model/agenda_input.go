package model

// CreateBookingInput books a contact into an event type at a local date and time.
type CreateBookingInput struct {
	ContactID   string     `json:"contact_id" validate:"required,max=64"`
	EventTypeID ExternalID `json:"event_type_id" validate:"required"`
	Date        string     `json:"date" validate:"required,isodate"`
	Time        string     `json:"time" validate:"required,hhmm"`
}

type RescheduleInput struct {
	Date string `json:"date" validate:"required,isodate"`
	Time string `json:"time" validate:"required,hhmm"`
}

type SlotQuery struct {
	EventTypeID ExternalID `validate:"required"`
	Date        string     `validate:"required,isodate"`
}

// BookingFilter narrows the cached booking list. Year 0 means all years.
type BookingFilter struct {
	Query string
	Year  int
}
