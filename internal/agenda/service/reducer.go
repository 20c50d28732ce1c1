package service

import (
	"sort"

	"jdpanel/pkg/model"
)

// bookingPatch is a local state change the gateway already confirmed.
type bookingPatch struct {
	id     model.ExternalID
	status model.BookingStatus
}

// applyPatch returns a new slice with the patched booking; the input is not modified.
func applyPatch(bookings []model.Booking, p bookingPatch) []model.Booking {
	out := make([]model.Booking, len(bookings))
	for i, b := range bookings {
		if b.ID == p.id {
			b = b.WithStatus(p.status)
		}
		out[i] = b
	}
	return out
}

// sortMostRecentFirst orders bookings by start time, newest first. Ties keep their gateway order.
func sortMostRecentFirst(bookings []model.Booking) {
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].StartTime.After(bookings[j].StartTime)
	})
}

func findBooking(bookings []model.Booking, id model.ExternalID) (model.Booking, bool) {
	for _, b := range bookings {
		if b.ID == id {
			return b, true
		}
	}
	return model.Booking{}, false
}
