package gateway

import (
	"net/url"
	"time"

	"jdpanel/pkg/client"
	"jdpanel/pkg/model"
)

const (
	pathEventTypes = "/v1/event-types"
	pathBookings   = "/v1/bookings"
	pathSlots      = "/v1/slots"

	HeaderAPIVersion = "cal-api-version"
	APIVersion       = "2024-08-13"

	CancelReasonV2     = "Cancelado pelo painel gerencial JD"
	CancelReasonV1     = "Cancelado pelo gestor no JD Painel"
	RescheduleReasonV2 = "Reagendado pelo painel gerencial JD"

	// ISOMillis matches the instant format the gateway expects (JS toISOString).
	ISOMillis = "2006-01-02T15:04:05.000Z"
)

func pathCancelV1(id model.ExternalID) string {
	return pathBookings + "/" + url.PathEscape(id.String()) + "/cancel"
}

func pathCancelV2(uid string) string {
	return "/v2/bookings/" + url.PathEscape(uid) + "/cancel"
}

func pathRescheduleV2(uid string) string {
	return "/v2/bookings/" + url.PathEscape(uid) + "/reschedule"
}

// FormatInstant renders t as a UTC ISO-8601 string with milliseconds.
func FormatInstant(t time.Time) string {
	return t.UTC().Format(ISOMillis)
}

// AuthMode selects how the API key travels with a request.
type AuthMode int

const (
	// AuthQueryKey sends ?apiKey=K, as the v1 endpoints require.
	AuthQueryKey AuthMode = iota
	// AuthBearer sends Authorization: Bearer K.
	AuthBearer
)

func (m AuthMode) String() string {
	if m == AuthBearer {
		return "bearer"
	}
	return "query_key"
}

func (m AuthMode) apply(req *client.Request, apiKey string) {
	switch m {
	case AuthBearer:
		if req.Headers == nil {
			req.Headers = map[string]string{}
		}
		req.Headers["Authorization"] = "Bearer " + apiKey
	default:
		if req.Query == nil {
			req.Query = url.Values{}
		}
		req.Query.Set("apiKey", apiKey)
	}
}

// versioned marks a request for the v2 API.
func versioned(req *client.Request) {
	if req.Headers == nil {
		req.Headers = map[string]string{}
	}
	req.Headers[HeaderAPIVersion] = APIVersion
}

type CreateBookingRequest struct {
	EventTypeID int64             `json:"eventTypeId"`
	Start       string            `json:"start"`
	Responses   BookingResponses  `json:"responses"`
	Metadata    map[string]string `json:"metadata"`
	TimeZone    string            `json:"timeZone"`
	Language    string            `json:"language"`
}

type BookingResponses struct {
	Name                string `json:"name"`
	Email               string `json:"email"`
	Phone               string `json:"phone"`
	AttendeePhoneNumber string `json:"attendeePhoneNumber"`
}

type cancelV2Body struct {
	CancellationReason       string `json:"cancellationReason"`
	CancelSubsequentBookings bool   `json:"cancelSubsequentBookings"`
}

type cancelV1Body struct {
	Reason string `json:"reason"`
}

type rescheduleBody struct {
	Start              string `json:"start"`
	ReschedulingReason string `json:"reschedulingReason"`
}
