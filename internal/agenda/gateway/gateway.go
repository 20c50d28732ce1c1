package gateway

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	agendaerrors "jdpanel/internal/agenda/errors"
	"jdpanel/pkg/client"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

// Gateway is the booking API the agenda mirrors. Every call takes the
// tenant's API key; failures are *agendaerrors.GatewayError values.
type Gateway interface {
	ListEventTypes(ctx context.Context, apiKey string) ([]model.EventType, error)
	ListBookings(ctx context.Context, apiKey string) ([]model.Booking, error)
	ListSlots(ctx context.Context, apiKey string, eventTypeID model.ExternalID, start, end time.Time) (map[string][]time.Time, error)
	CreateBooking(ctx context.Context, apiKey string, req CreateBookingRequest) (*model.Booking, error)
	CancelBookingV2(ctx context.Context, apiKey, uid string) error
	CancelBookingV1(ctx context.Context, apiKey string, id model.ExternalID) error
	RescheduleBooking(ctx context.Context, auth AuthMode, apiKey, uid string, start time.Time) error
}

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond int
	Burst         int
	// Location reads startTime values sent without an offset. Nil means UTC.
	Location *time.Location
}

type HTTPGateway struct {
	http    *client.HttpClient
	limiter *rate.Limiter
	loc     *time.Location
	log     *logger.Logger
}

func New(cfg Config, log *logger.Logger) *HTTPGateway {
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	return &HTTPGateway{
		http:    client.NewHttpClient(cfg.BaseURL, cfg.Timeout),
		limiter: rate.NewLimiter(limit, burst),
		loc:     cfg.Location,
		log:     log,
	}
}

// call throttles, sends and classifies one request. The API key never
// reaches the logs: only the path is logged.
func (g *HTTPGateway) call(ctx context.Context, req client.Request) (*client.Response, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, &agendaerrors.GatewayError{Kind: agendaerrors.ErrNetwork, Message: "rate limiter wait aborted", Err: err}
	}

	start := time.Now()
	resp, err := g.http.Do(ctx, req)
	if err != nil {
		g.log.Warn("Gateway request failed",
			"method", req.Method,
			"path", req.Path,
			"error", err,
		)
		return nil, &agendaerrors.GatewayError{Kind: agendaerrors.ErrNetwork, Message: "request failed", Err: err}
	}

	g.log.Debug("Gateway request completed",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	if resp.IsSuccess() {
		return resp, nil
	}

	kind := agendaerrors.ErrRejected
	if resp.StatusCode == http.StatusUnauthorized {
		kind = agendaerrors.ErrUnauthorized
	}
	return resp, &agendaerrors.GatewayError{
		Kind:    kind,
		Status:  resp.StatusCode,
		Message: client.GetErrorMessage(resp),
	}
}

func (g *HTTPGateway) ListEventTypes(ctx context.Context, apiKey string) ([]model.EventType, error) {
	req := client.Request{Method: http.MethodGet, Path: pathEventTypes}
	AuthQueryKey.apply(&req, apiKey)

	resp, err := g.call(ctx, req)
	if err != nil {
		return nil, err
	}

	wire, skipped, err := decodeList[wireEventType](resp.Body, "event_types")
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		g.log.Warn("Dropped undecodable event types", "count", skipped)
	}

	eventTypes := make([]model.EventType, 0, len(wire))
	for _, e := range wire {
		if e.Hidden {
			continue
		}
		eventTypes = append(eventTypes, e.toModel())
	}
	return eventTypes, nil
}

func (g *HTTPGateway) ListBookings(ctx context.Context, apiKey string) ([]model.Booking, error) {
	req := client.Request{Method: http.MethodGet, Path: pathBookings}
	AuthQueryKey.apply(&req, apiKey)

	resp, err := g.call(ctx, req)
	if err != nil {
		return nil, err
	}

	wire, skipped, err := decodeList[wireBooking](resp.Body, "bookings")
	if err != nil {
		return nil, err
	}

	bookings := make([]model.Booking, 0, len(wire))
	for _, b := range wire {
		booking, ok := b.toModel(g.loc)
		if !ok {
			skipped++
			continue
		}
		bookings = append(bookings, booking)
	}
	if skipped > 0 {
		g.log.Warn("Dropped undecodable bookings", "count", skipped)
	}
	return bookings, nil
}

func (g *HTTPGateway) ListSlots(ctx context.Context, apiKey string, eventTypeID model.ExternalID, start, end time.Time) (map[string][]time.Time, error) {
	req := client.Request{
		Method: http.MethodGet,
		Path:   pathSlots,
	}
	AuthQueryKey.apply(&req, apiKey)
	req.Query.Set("eventTypeId", eventTypeID.String())
	req.Query.Set("startTime", FormatInstant(start))
	req.Query.Set("endTime", FormatInstant(end))

	resp, err := g.call(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeSlots(resp.Body)
}

// CreateBooking returns the created booking when the response can be
// decoded, or nil when the gateway confirmed without a usable body.
func (g *HTTPGateway) CreateBooking(ctx context.Context, apiKey string, body CreateBookingRequest) (*model.Booking, error) {
	req := client.Request{Method: http.MethodPost, Path: pathBookings, Body: body}
	AuthQueryKey.apply(&req, apiKey)

	resp, err := g.call(ctx, req)
	if err != nil {
		return nil, err
	}

	var wire wireBooking
	if err := resp.DecodeJSON(&wire); err != nil {
		return nil, nil
	}
	booking, ok := wire.toModel(g.loc)
	if !ok {
		return nil, nil
	}
	return &booking, nil
}

func (g *HTTPGateway) CancelBookingV2(ctx context.Context, apiKey, uid string) error {
	req := client.Request{
		Method: http.MethodPost,
		Path:   pathCancelV2(uid),
		Body: cancelV2Body{
			CancellationReason:       CancelReasonV2,
			CancelSubsequentBookings: true,
		},
	}
	versioned(&req)
	AuthBearer.apply(&req, apiKey)

	_, err := g.call(ctx, req)
	return err
}

func (g *HTTPGateway) CancelBookingV1(ctx context.Context, apiKey string, id model.ExternalID) error {
	req := client.Request{
		Method: http.MethodDelete,
		Path:   pathCancelV1(id),
		Body:   cancelV1Body{Reason: CancelReasonV1},
	}
	AuthQueryKey.apply(&req, apiKey)

	_, err := g.call(ctx, req)
	return err
}

func (g *HTTPGateway) RescheduleBooking(ctx context.Context, auth AuthMode, apiKey, uid string, start time.Time) error {
	req := client.Request{
		Method: http.MethodPost,
		Path:   pathRescheduleV2(uid),
		Body: rescheduleBody{
			Start:              FormatInstant(start),
			ReschedulingReason: RescheduleReasonV2,
		},
	}
	versioned(&req)
	auth.apply(&req, apiKey)

	_, err := g.call(ctx, req)
	return err
}
