package service

import (
	"sort"
	"strings"
	"time"

	"jdpanel/pkg/model"
)

// filterBookings keeps bookings whose client or service contains the query
// (case-insensitive) and whose local start year matches. Order is preserved.
func filterBookings(bookings []model.Booking, f model.BookingFilter, loc *time.Location) []model.Booking {
	query := strings.ToLower(strings.TrimSpace(f.Query))

	out := make([]model.Booking, 0, len(bookings))
	for _, b := range bookings {
		if query != "" &&
			!strings.Contains(strings.ToLower(b.ClientName), query) &&
			!strings.Contains(strings.ToLower(b.ServiceTitle), query) {
			continue
		}
		if f.Year != 0 && b.StartTime.In(loc).Year() != f.Year {
			continue
		}
		out = append(out, b)
	}
	return out
}

// availableYears lists distinct local start years, newest first.
func availableYears(bookings []model.Booking, loc *time.Location) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, b := range bookings {
		y := b.StartTime.In(loc).Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(years)))
	return years
}
