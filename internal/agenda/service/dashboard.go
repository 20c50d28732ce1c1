package service

import (
	"fmt"
	"sort"
	"time"

	"jdpanel/pkg/locale"
	"jdpanel/pkg/model"
	"jdpanel/pkg/sanitizer"
)

const (
	upcomingLimit    = 5
	emptyClientName  = "Cliente Vazio"
	freeTodaySummary = "Livre para hoje"
)

func buildDashboard(bookings []model.Booking, now time.Time, loc *time.Location) model.DashboardSummary {
	summary := model.DashboardSummary{
		IntegrationReady: true,
		Summary:          freeTodaySummary,
		Upcoming:         []model.UpcomingBooking{},
	}

	upcoming := make([]model.Booking, 0)
	today := locale.StartOfDay(now, loc)
	for _, b := range bookings {
		if !b.Status.Active() {
			continue
		}
		isToday := locale.SameDay(b.StartTime, now, loc)
		if isToday {
			summary.TodayCount++
		}
		if isToday || b.StartTime.After(today) {
			upcoming = append(upcoming, b)
		}
	}
	if summary.TodayCount > 0 {
		summary.Summary = fmt.Sprintf("%d marcados para hoje", summary.TodayCount)
	}

	sort.SliceStable(upcoming, func(i, j int) bool {
		return upcoming[i].StartTime.Before(upcoming[j].StartTime)
	})
	if len(upcoming) > upcomingLimit {
		upcoming = upcoming[:upcomingLimit]
	}

	for _, b := range upcoming {
		name := dashboardName(b)
		summary.Upcoming = append(summary.Upcoming, model.UpcomingBooking{
			Name:        name,
			Initials:    sanitizer.Initials(name),
			Service:     b.ServiceTitle,
			Status:      b.Status.Label(),
			StatusColor: b.Status.Color(),
			Date:        locale.DisplayDate(b.StartTime, now, loc),
		})
	}
	return summary
}

func dashboardName(b model.Booking) string {
	switch {
	case b.FormName != "":
		return b.FormName
	case b.AttendeeName != "":
		return b.AttendeeName
	default:
		return emptyClientName
	}
}
