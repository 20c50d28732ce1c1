package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const (
	DefaultRegion = "BR"

	brazilCountryCode = "55"

	// BookingPhonePlaceholder replaces any phone too short to be a Brazilian
	// number. The gateway rejects bookings with malformed phones.
	BookingPhonePlaceholder = "+5511999999999"
)

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeBookingPhone applies the gateway phone rules:
// strip non-digits, drop a leading 55 from 12 or 13 digit numbers, insert the
// mobile 9 after the area code of 10 digit numbers and prefix +55.
// Local numbers shorter than 10 digits become BookingPhonePlaceholder.
func NormalizeBookingPhone(raw string) string {
	local := Digits(raw)

	if strings.HasPrefix(local, brazilCountryCode) && (len(local) == 12 || len(local) == 13) {
		local = local[len(brazilCountryCode):]
	}

	if len(local) == 10 {
		local = local[:2] + "9" + local[2:]
	}

	if len(local) < 10 {
		return BookingPhonePlaceholder
	}

	return "+" + brazilCountryCode + local
}

// SanitizeContactPhone formats a contact phone as E.164 when libphonenumber
// accepts it as a valid number (region BR for national formats). Anything
// else is returned trimmed so staff input is never lost.
func SanitizeContactPhone(phone string) string {
	phone = TrimAndNormalize(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(parsed) {
		return phone
	}
	return phonenumbers.Format(parsed, phonenumbers.E164)
}
