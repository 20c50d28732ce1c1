package model

import "strconv"

const DefaultPriceLabel = "Padrão"

// EventType is a bookable service offered by the clinic on the gateway.
type EventType struct {
	ID              ExternalID `json:"id"`
	Title           string     `json:"title"`
	DurationMinutes int        `json:"duration_minutes"`
	PriceLabel      string     `json:"price_label"`
}

// PriceLabel renders a gateway price in cents as "R$ <reais>", or
// DefaultPriceLabel when the event type has no price.
func PriceLabel(cents float64) string {
	if cents == 0 {
		return DefaultPriceLabel
	}
	return "R$ " + strconv.FormatFloat(cents/100, 'f', -1, 64)
}
