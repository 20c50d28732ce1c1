package gateway

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	agendaerrors "jdpanel/internal/agenda/errors"
	"jdpanel/pkg/model"
)

// listShape extracts the JSON array of items from one accepted response shape.
type listShape func(body []byte, wrapperKey string) (json.RawMessage, bool)

// listShapes are tried in order: a bare array, then {wrapperKey: [...]}.
var listShapes = []listShape{bareArray, wrappedArray}

func bareArray(body []byte, _ string) (json.RawMessage, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, false
	}
	return trimmed, true
}

func wrappedArray(body []byte, wrapperKey string) (json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return nil, false
	}
	raw, ok := obj[wrapperKey]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	return raw, true
}

// decodeList accepts either list shape. Items that fail to decode are
// dropped and counted in skipped.
func decodeList[T any](body []byte, wrapperKey string) (items []T, skipped int, err error) {
	for _, shape := range listShapes {
		raw, ok := shape(body, wrapperKey)
		if !ok {
			continue
		}

		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, 0, agendaerrors.ErrSchemaMismatch
		}

		items = make([]T, 0, len(elems))
		for _, elem := range elems {
			var item T
			if err := json.Unmarshal(elem, &item); err != nil {
				skipped++
				continue
			}
			items = append(items, item)
		}
		return items, skipped, nil
	}
	return nil, 0, agendaerrors.ErrSchemaMismatch
}

type wireEventType struct {
	ID     model.ExternalID `json:"id"`
	Title  string           `json:"title"`
	Length int              `json:"length"`
	Price  float64          `json:"price"`
	Hidden bool             `json:"hidden"`
}

func (e wireEventType) toModel() model.EventType {
	return model.EventType{
		ID:              e.ID,
		Title:           e.Title,
		DurationMinutes: e.Length,
		PriceLabel:      model.PriceLabel(e.Price),
	}
}

type wireAttendee struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type wireBooking struct {
	ID          model.ExternalID           `json:"id"`
	UID         string                     `json:"uid"`
	Title       string                     `json:"title"`
	StartTime   string                     `json:"startTime"`
	Status      string                     `json:"status"`
	Attendees   []wireAttendee             `json:"attendees"`
	Responses   map[string]json.RawMessage `json:"responses"`
	EventType   *wireEventTypeRef          `json:"eventType"`
	EventTypeID *model.ExternalID          `json:"eventTypeId"`
	Metadata    map[string]any             `json:"metadata"`
}

type wireEventTypeRef struct {
	ID *model.ExternalID `json:"id"`
}

func (b wireBooking) formName() string {
	raw, ok := b.Responses["name"]
	if !ok {
		return ""
	}
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		return strings.TrimSpace(name)
	}
	// Some event types collect {firstName, lastName}.
	var split struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
	}
	if err := json.Unmarshal(raw, &split); err == nil {
		return strings.TrimSpace(split.FirstName + " " + split.LastName)
	}
	return ""
}

func (b wireBooking) eventTypeID() *model.ExternalID {
	if b.EventType != nil && b.EventType.ID != nil && !b.EventType.ID.IsZero() {
		id := *b.EventType.ID
		return &id
	}
	if b.EventTypeID != nil && !b.EventTypeID.IsZero() {
		id := *b.EventTypeID
		return &id
	}
	return nil
}

// zonelessLayouts are accepted for startTime values that carry no offset.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// parseStart reads an RFC3339 instant, falling back to wall-clock time in
// loc when the gateway omits the offset.
func parseStart(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t, true
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// toModel maps a wire booking. ok is false when the start time is unusable.
func (b wireBooking) toModel(loc *time.Location) (model.Booking, bool) {
	start, ok := parseStart(b.StartTime, loc)
	if !ok {
		return model.Booking{}, false
	}

	var attendee string
	if len(b.Attendees) > 0 {
		attendee = b.Attendees[0].Name
	}
	client := attendee
	if client == "" {
		client = model.DefaultClientName
	}
	title := b.Title
	if title == "" {
		title = model.DefaultServiceTitle
	}

	booking := model.Booking{
		ID:           b.ID,
		ExternalUID:  b.UID,
		ClientName:   client,
		ServiceTitle: title,
		StartTime:    start,
		EventTypeID:  b.eventTypeID(),
		FormName:     b.formName(),
		AttendeeName: attendee,
	}
	if contactID, ok := b.Metadata["supabase_id"].(string); ok {
		booking.ContactID = contactID
	}
	return booking.WithStatus(model.StatusFromGateway(b.Status)), true
}

type wireSlots struct {
	Slots map[string][]struct {
		Time string `json:"time"`
	} `json:"slots"`
}

// decodeSlots returns the slot buckets keyed by YYYY-MM-DD.
func decodeSlots(body []byte) (map[string][]time.Time, error) {
	var ws wireSlots
	if err := json.Unmarshal(body, &ws); err != nil || ws.Slots == nil {
		return nil, agendaerrors.ErrSchemaMismatch
	}

	buckets := make(map[string][]time.Time, len(ws.Slots))
	for day, slots := range ws.Slots {
		times := make([]time.Time, 0, len(slots))
		for _, s := range slots {
			t, err := time.Parse(time.RFC3339Nano, s.Time)
			if err != nil {
				continue
			}
			times = append(times, t)
		}
		buckets[day] = times
	}
	return buckets, nil
}
