package locale

import (
	"fmt"
	"time"
)

// date-fns ptBR abbreviations, as the staff is used to seeing them.
var shortMonthsPtBR = [...]string{"jan", "fev", "mar", "abr", "mai", "jun", "jul", "ago", "set", "out", "nov", "dez"}

// LoadLocation resolves an IANA zone, falling back to DefaultTimezone on empty input.
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load location %q: %w", name, err)
	}
	return loc, nil
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns local midnight of t's day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// EndOfDay returns the last millisecond of t's day in loc.
func EndOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
}

// ClockTime formats t as HH:mm in loc.
func ClockTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("15:04")
}

// ShortDate formats t as "dd/MMM, HH:mm" with pt-BR month abbreviations.
func ShortDate(t time.Time, loc *time.Location) string {
	lt := t.In(loc)
	return fmt.Sprintf("%02d/%s, %s", lt.Day(), shortMonthsPtBR[lt.Month()-1], lt.Format("15:04"))
}

// DisplayDate renders "Hoje, HH:mm" for today and ShortDate otherwise.
func DisplayDate(t, now time.Time, loc *time.Location) string {
	if SameDay(t, now, loc) {
		return "Hoje, " + ClockTime(t, loc)
	}
	return ShortDate(t, loc)
}
