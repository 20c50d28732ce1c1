package locale

import (
	"slices"

	"github.com/nyaruka/phonenumbers"
)

const (
	DefaultTimezone = "America/Sao_Paulo"
	DefaultLanguage = "pt-BR"
	DefaultRegion   = "BR"
)

// InferTimezoneFromPhone guesses a contact's zone from the phone prefix.
// National formats are read as BR. When a prefix spans several zones the
// clinic zone wins if listed, otherwise the first one. Unparseable or
// unmapped phones get the clinic zone.
func InferTimezoneFromPhone(phone string) string {
	if phone == "" {
		return DefaultTimezone
	}
	parsed, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil {
		return DefaultTimezone
	}

	zones, err := phonenumbers.GetTimezonesForNumber(parsed)
	if err != nil || len(zones) == 0 || zones[0] == phonenumbers.UNKNOWN_TIMEZONE {
		return DefaultTimezone
	}
	if slices.Contains(zones, DefaultTimezone) {
		return DefaultTimezone
	}
	return zones[0]
}
