package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	agendaerrors "jdpanel/internal/agenda/errors"
	"jdpanel/internal/agenda/events"
	"jdpanel/internal/agenda/gateway"
	"jdpanel/internal/agenda/validator"
	"jdpanel/pkg/config"
	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/locale"
	"jdpanel/pkg/model"
	"jdpanel/pkg/sanitizer"
)

const (
	msgCreateRejected     = "Verifique as configurações"
	msgCreateNetwork      = "Ocorreu um erro de rede ao tentar agendar."
	msgCancelFailed       = "Não foi possível cancelar o agendamento na API."
	msgCancelNetwork      = "Erro de rede ao tentar cancelar."
	msgRescheduleFailed   = "Não foi possível reagendar esse booking."
	msgRescheduleNetwork  = "Erro de rede ao reagendar."
	msgIntegrationMissing = "Integração necessária: configure a chave da API de agendamento no perfil"

	localDateTimeLayout = "2006-01-02 15:04"
)

// KeyResolver returns the tenant's gateway API key, or "" when none is configured.
type KeyResolver interface {
	APIKey(ctx context.Context, tenantID string) (string, error)
}

// ContactReader loads the contact a booking is made for.
type ContactReader interface {
	GetByID(ctx context.Context, id string) (*model.Contact, error)
}

type AgendaService interface {
	Refresh(ctx context.Context, tenantID string) (*Snapshot, error)
	EventTypes(ctx context.Context, tenantID string) ([]model.EventType, error)
	Bookings(ctx context.Context, tenantID string, filter model.BookingFilter, force bool) ([]model.Booking, error)
	BookingYears(ctx context.Context, tenantID string) ([]int, error)
	Slots(ctx context.Context, tenantID string, query model.SlotQuery) ([]string, error)
	RescheduleSlots(ctx context.Context, tenantID string, bookingID model.ExternalID, date string) ([]string, error)
	CreateBooking(ctx context.Context, tenantID string, input *model.CreateBookingInput) (*model.Booking, error)
	CancelBooking(ctx context.Context, tenantID string, bookingID model.ExternalID) (*model.Booking, error)
	RescheduleBooking(ctx context.Context, tenantID string, bookingID model.ExternalID, input *model.RescheduleInput) error
	Dashboard(ctx context.Context, tenantID string) (*model.DashboardSummary, error)
	Invalidate(ctx context.Context, tenantID string)
}

type agendaService struct {
	gateway   gateway.Gateway
	keys      KeyResolver
	contacts  ContactReader
	publisher events.Publisher
	validator *validator.AgendaValidator
	cfg       *config.Config

	cache    *tenantCache
	inflight *inflightGuard
	loc      *time.Location
	now      func() time.Time
}

func NewAgendaService(
	gw gateway.Gateway,
	keys KeyResolver,
	contacts ContactReader,
	publisher events.Publisher,
	validator *validator.AgendaValidator,
	cfg *config.Config,
) AgendaService {
	loc := cfg.ClinicLocation
	if loc == nil {
		var err error
		if loc, err = locale.LoadLocation(cfg.ClinicTimeZone); err != nil {
			loc = time.UTC
		}
	}

	var store snapshotStore = newMemoryStore()
	if cfg.Client != nil && cfg.Client.Redis != nil {
		store = cfg.Client.Redis
	}

	return &agendaService{
		gateway:   gw,
		keys:      keys,
		contacts:  contacts,
		publisher: publisher,
		validator: validator,
		cfg:       cfg,
		cache:     newTenantCache(store, cfg.AgendaCacheTTL, cfg.Log),
		inflight:  newInflightGuard(),
		loc:       loc,
		now:       time.Now,
	}
}

// Refresh mirrors the tenant's event types and bookings. Gateway failures
// degrade to empty collections for the caller and leave the cached mirror
// untouched; only a missing API key is an error.
func (s *agendaService) Refresh(ctx context.Context, tenantID string) (*Snapshot, error) {
	apiKey, err := s.apiKey(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	var eventTypes []model.EventType
	var bookings []model.Booking
	var eventTypesErr, bookingsErr error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		eventTypes, eventTypesErr = s.gateway.ListEventTypes(ctx, apiKey)
		if eventTypesErr != nil {
			s.logSyncFailure(tenantID, "event_types", eventTypesErr)
			eventTypes = nil
		}
	}()

	go func() {
		defer wg.Done()
		bookings, bookingsErr = s.gateway.ListBookings(ctx, apiKey)
		if bookingsErr != nil {
			s.logSyncFailure(tenantID, "bookings", bookingsErr)
			bookings = nil
		}
	}()

	wg.Wait()

	if eventTypes == nil {
		eventTypes = []model.EventType{}
	}
	if bookings == nil {
		bookings = []model.Booking{}
	}
	sortMostRecentFirst(bookings)

	snap := Snapshot{
		EventTypes: eventTypes,
		Bookings:   bookings,
		FetchedAt:  s.now(),
	}
	if eventTypesErr != nil || bookingsErr != nil {
		s.cfg.Log.Warn("Agenda sync incomplete, keeping cached mirror", "tenant_id", tenantID)
		return &snap, nil
	}
	s.cache.put(ctx, tenantID, snap)

	s.cfg.Log.Info("Agenda synchronized",
		"tenant_id", tenantID,
		"event_types", len(eventTypes),
		"bookings", len(bookings),
	)
	return &snap, nil
}

func (s *agendaService) logSyncFailure(tenantID, collection string, err error) {
	if errors.Is(err, agendaerrors.ErrSchemaMismatch) {
		s.cfg.Log.Warn("Gateway returned an unrecognized shape, using empty collection",
			"tenant_id", tenantID,
			"collection", collection,
			"error", err,
		)
		return
	}
	s.cfg.Log.Error("Failed to fetch from gateway, using empty collection",
		"tenant_id", tenantID,
		"collection", collection,
		"error", err,
	)
}

// snapshot serves the cached mirror, refreshing it when missing, stale or forced.
func (s *agendaService) snapshot(ctx context.Context, tenantID string, force bool) (*Snapshot, error) {
	if !force {
		if snap, ok := s.cache.get(ctx, tenantID, s.now()); ok {
			return &snap, nil
		}
	}
	return s.Refresh(ctx, tenantID)
}

func (s *agendaService) EventTypes(ctx context.Context, tenantID string) ([]model.EventType, error) {
	snap, err := s.snapshot(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}
	return snap.EventTypes, nil
}

func (s *agendaService) Bookings(ctx context.Context, tenantID string, filter model.BookingFilter, force bool) ([]model.Booking, error) {
	snap, err := s.snapshot(ctx, tenantID, force)
	if err != nil {
		return nil, err
	}

	now := s.now()
	filtered := filterBookings(snap.Bookings, filter, s.loc)
	for i := range filtered {
		filtered[i].DisplayDate = locale.DisplayDate(filtered[i].StartTime, now, s.loc)
	}
	return filtered, nil
}

func (s *agendaService) BookingYears(ctx context.Context, tenantID string) ([]int, error) {
	snap, err := s.snapshot(ctx, tenantID, false)
	if err != nil {
		return nil, err
	}
	return availableYears(snap.Bookings, s.loc), nil
}

// Slots lists the free times of a local day as HH:mm. Gateway failures and
// a day absent from the response both yield an empty list.
func (s *agendaService) Slots(ctx context.Context, tenantID string, query model.SlotQuery) ([]string, error) {
	if err := s.validator.ValidateSlotQuery(&query); err != nil {
		return nil, apperrors.Validation("Slot query validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	apiKey, err := s.apiKey(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	day, err := time.ParseInLocation("2006-01-02", query.Date, s.loc)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date, expected YYYY-MM-DD")
	}
	start := locale.StartOfDay(day, s.loc)
	end := locale.EndOfDay(day, s.loc)

	buckets, err := s.gateway.ListSlots(ctx, apiKey, query.EventTypeID, start, end)
	if err != nil {
		s.cfg.Log.Warn("Failed to fetch slots, returning none",
			"tenant_id", tenantID,
			"event_type_id", query.EventTypeID.String(),
			"date", query.Date,
			"error", err,
		)
		return []string{}, nil
	}

	instants := buckets[start.UTC().Format("2006-01-02")]
	slots := make([]string, 0, len(instants))
	for _, instant := range instants {
		slots = append(slots, locale.ClockTime(instant, s.loc))
	}
	return slots, nil
}

// RescheduleSlots lists slots for the event type of an existing booking.
func (s *agendaService) RescheduleSlots(ctx context.Context, tenantID string, bookingID model.ExternalID, date string) ([]string, error) {
	booking, err := s.findBooking(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.EventTypeID == nil || booking.EventTypeID.IsZero() {
		return nil, apperrors.InvalidInput(agendaerrors.ErrMissingEventType.Error())
	}
	return s.Slots(ctx, tenantID, model.SlotQuery{EventTypeID: *booking.EventTypeID, Date: date})
}

func (s *agendaService) CreateBooking(ctx context.Context, tenantID string, input *model.CreateBookingInput) (*model.Booking, error) {
	if err := s.validator.ValidateCreate(input); err != nil {
		return nil, apperrors.Validation("Booking validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	eventTypeID, err := input.EventTypeID.Int()
	if err != nil {
		return nil, apperrors.InvalidInput(agendaerrors.ErrEventTypeNotNumeric.Error())
	}
	start, err := time.ParseInLocation(localDateTimeLayout, input.Date+" "+input.Time, s.loc)
	if err != nil {
		return nil, apperrors.InvalidInput("Invalid date or time")
	}

	apiKey, err := s.apiKey(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	release, ok := s.inflight.acquire(inflightKey(tenantID, "create", input.ContactID, input.EventTypeID.String(), input.Date, input.Time))
	if !ok {
		return nil, apperrors.Conflict(agendaerrors.ErrOperationInFlight.Error())
	}
	defer release()

	contact, err := s.contacts.GetByID(ctx, input.ContactID)
	if err != nil {
		return nil, err
	}

	req := s.buildCreateRequest(contact, eventTypeID, start)
	created, err := s.gateway.CreateBooking(ctx, apiKey, req)
	if err != nil {
		s.cfg.Log.Error("Gateway refused booking creation",
			"tenant_id", tenantID,
			"contact_id", contact.ID,
			"event_type_id", eventTypeID,
			"error", err,
		)
		if errors.Is(err, agendaerrors.ErrNetwork) {
			return nil, apperrors.BadGateway(msgCreateNetwork, err)
		}
		message := agendaerrors.Message(err)
		if message == "" {
			message = msgCreateRejected
		}
		return nil, apperrors.GatewayRejected(message, agendaerrors.Status(err))
	}

	s.cfg.Log.Info("Booking created",
		"tenant_id", tenantID,
		"contact_id", contact.ID,
		"event_type_id", eventTypeID,
		"start", gateway.FormatInstant(start),
	)

	event := model.BookingEvent{
		Type:      model.EventBookingCreated,
		TenantID:  tenantID,
		ContactID: contact.ID,
		StartTime: &start,
	}
	if created != nil {
		event.BookingID = created.ID
		event.BookingUID = created.ExternalUID
	}
	s.publish(ctx, event)

	if _, err := s.Refresh(ctx, tenantID); err != nil {
		return created, err
	}
	return created, nil
}

func (s *agendaService) buildCreateRequest(contact *model.Contact, eventTypeID int64, start time.Time) gateway.CreateBookingRequest {
	phone := sanitizer.NormalizeBookingPhone(contact.Phone)

	name := strings.TrimSpace(contact.DisplayName())
	if name == "" {
		name = model.DefaultBookingName
	}

	email := ""
	if contact.Email != nil {
		email = strings.TrimSpace(*contact.Email)
	}
	if email == "" {
		email = sanitizer.Digits(phone) + "@" + model.BookingEmailDomain
	}

	return gateway.CreateBookingRequest{
		EventTypeID: eventTypeID,
		Start:       gateway.FormatInstant(start),
		Responses: gateway.BookingResponses{
			Name:                name,
			Email:               email,
			Phone:               phone,
			AttendeePhoneNumber: phone,
		},
		Metadata: map[string]string{"supabase_id": contact.ID},
		TimeZone: s.timeZoneName(),
		Language: locale.DefaultLanguage,
	}
}

func (s *agendaService) timeZoneName() string {
	if s.cfg.ClinicTimeZone != "" {
		return s.cfg.ClinicTimeZone
	}
	return locale.DefaultTimezone
}

// CancelBooking tries v2 first and falls back to v1 only when v2 refused
// the credentials. The cached booking is patched, not refetched.
func (s *agendaService) CancelBooking(ctx context.Context, tenantID string, bookingID model.ExternalID) (*model.Booking, error) {
	if _, err := s.cancelableBooking(ctx, tenantID, bookingID); err != nil {
		return nil, err
	}

	apiKey, err := s.apiKey(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	release, ok := s.inflight.acquire(inflightKey(tenantID, "cancel", bookingID.String()))
	if !ok {
		return nil, apperrors.Conflict(agendaerrors.ErrOperationInFlight.Error())
	}
	defer release()

	// A cancel that finished while this one waited has already patched the mirror.
	booking, err := s.cancelableBooking(ctx, tenantID, bookingID)
	if err != nil {
		return nil, err
	}

	attempts := []attempt{
		{
			name: "v2",
			run: func(ctx context.Context) error {
				return s.gateway.CancelBookingV2(ctx, apiKey, booking.ExternalUID)
			},
			fallbackOn: onUnauthorized,
		},
		{
			name: "v1",
			run: func(ctx context.Context) error {
				return s.gateway.CancelBookingV1(ctx, apiKey, booking.ID)
			},
		},
	}

	path, err := runAttempts(ctx, attempts, s.attemptLogger(tenantID, "cancel", bookingID))
	if err != nil {
		if errors.Is(err, agendaerrors.ErrNetwork) {
			return nil, apperrors.BadGateway(msgCancelNetwork, err)
		}
		return nil, apperrors.GatewayRejected(msgCancelFailed, agendaerrors.Status(err))
	}

	patch := bookingPatch{id: bookingID, status: model.BookingCanceled}
	s.cache.patch(ctx, tenantID, s.now(), func(bookings []model.Booking) []model.Booking {
		return applyPatch(bookings, patch)
	})

	s.cfg.Log.Info("Booking canceled",
		"tenant_id", tenantID,
		"booking_id", bookingID.String(),
		"path", path,
	)

	s.publish(ctx, model.BookingEvent{
		Type:       model.EventBookingCanceled,
		TenantID:   tenantID,
		BookingID:  booking.ID,
		BookingUID: booking.ExternalUID,
		ContactID:  booking.ContactID,
	})

	canceled := booking.WithStatus(model.BookingCanceled)
	return &canceled, nil
}

// RescheduleBooking tries bearer auth, then the query key on the same
// endpoint. The new start is only trusted after a full refresh.
func (s *agendaService) RescheduleBooking(ctx context.Context, tenantID string, bookingID model.ExternalID, input *model.RescheduleInput) error {
	if err := s.validator.ValidateReschedule(input); err != nil {
		return apperrors.Validation("Reschedule validation failed", map[string]any{
			"error": err.Error(),
		})
	}
	start, err := time.ParseInLocation(localDateTimeLayout, input.Date+" "+input.Time, s.loc)
	if err != nil {
		return apperrors.InvalidInput("Invalid date or time")
	}

	booking, err := s.findBooking(ctx, tenantID, bookingID)
	if err != nil {
		return err
	}
	if booking.Status == model.BookingCanceled {
		return apperrors.Conflict(agendaerrors.ErrAlreadyCanceled.Error())
	}
	if booking.ExternalUID == "" {
		return apperrors.InvalidInput(agendaerrors.ErrMissingExternalUID.Error())
	}

	apiKey, err := s.apiKey(ctx, tenantID)
	if err != nil {
		return err
	}

	release, ok := s.inflight.acquire(inflightKey(tenantID, "reschedule", bookingID.String()))
	if !ok {
		return apperrors.Conflict(agendaerrors.ErrOperationInFlight.Error())
	}
	defer release()

	attempts := []attempt{
		{
			name: gateway.AuthBearer.String(),
			run: func(ctx context.Context) error {
				return s.gateway.RescheduleBooking(ctx, gateway.AuthBearer, apiKey, booking.ExternalUID, start)
			},
			fallbackOn: onHTTPFailure,
		},
		{
			name: gateway.AuthQueryKey.String(),
			run: func(ctx context.Context) error {
				return s.gateway.RescheduleBooking(ctx, gateway.AuthQueryKey, apiKey, booking.ExternalUID, start)
			},
		},
	}

	path, err := runAttempts(ctx, attempts, s.attemptLogger(tenantID, "reschedule", bookingID))
	if err != nil {
		if errors.Is(err, agendaerrors.ErrNetwork) {
			return apperrors.BadGateway(msgRescheduleNetwork, err)
		}
		return apperrors.GatewayRejected(msgRescheduleFailed, agendaerrors.Status(err))
	}

	s.cfg.Log.Info("Booking rescheduled",
		"tenant_id", tenantID,
		"booking_id", bookingID.String(),
		"start", gateway.FormatInstant(start),
		"path", path,
	)

	s.publish(ctx, model.BookingEvent{
		Type:       model.EventBookingRescheduled,
		TenantID:   tenantID,
		BookingID:  booking.ID,
		BookingUID: booking.ExternalUID,
		ContactID:  booking.ContactID,
		StartTime:  &start,
	})

	_, err = s.Refresh(ctx, tenantID)
	return err
}

// Dashboard summarizes today's workload. A tenant without an API key gets
// an empty summary flagged as not ready instead of an error.
func (s *agendaService) Dashboard(ctx context.Context, tenantID string) (*model.DashboardSummary, error) {
	snap, err := s.snapshot(ctx, tenantID, false)
	if err != nil {
		if appErr := apperrors.AsAppError(err); appErr.Code == apperrors.CodePreconditionFailed {
			return &model.DashboardSummary{
				IntegrationReady: false,
				Summary:          freeTodaySummary,
				Upcoming:         []model.UpcomingBooking{},
			}, nil
		}
		return nil, err
	}

	summary := buildDashboard(snap.Bookings, s.now(), s.loc)
	return &summary, nil
}

func (s *agendaService) Invalidate(ctx context.Context, tenantID string) {
	s.cache.invalidate(ctx, tenantID)
	s.cfg.Log.Info("Agenda cache invalidated", "tenant_id", tenantID)
}

func (s *agendaService) apiKey(ctx context.Context, tenantID string) (string, error) {
	if tenantID == "" {
		return "", apperrors.InvalidInput("Tenant ID cannot be empty")
	}

	key, err := s.keys.APIKey(ctx, tenantID)
	if err != nil {
		if apperrors.IsAppError(err) {
			return "", err
		}
		return "", apperrors.Internal("Failed to resolve gateway credentials", err)
	}
	if key == "" {
		return "", apperrors.PreconditionFailed(msgIntegrationMissing)
	}
	return key, nil
}

func (s *agendaService) findBooking(ctx context.Context, tenantID string, bookingID model.ExternalID) (model.Booking, error) {
	if bookingID.IsZero() {
		return model.Booking{}, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	snap, err := s.snapshot(ctx, tenantID, false)
	if err != nil {
		return model.Booking{}, err
	}
	booking, ok := findBooking(snap.Bookings, bookingID)
	if !ok {
		return model.Booking{}, apperrors.NotFoundWithID("Booking", bookingID.String())
	}
	return booking, nil
}

// cancelableBooking loads a booking that can still go through the v2-first
// cancel policy: not canceled and carrying an external uid.
func (s *agendaService) cancelableBooking(ctx context.Context, tenantID string, bookingID model.ExternalID) (model.Booking, error) {
	booking, err := s.findBooking(ctx, tenantID, bookingID)
	if err != nil {
		return model.Booking{}, err
	}
	if booking.Status == model.BookingCanceled {
		return model.Booking{}, apperrors.Conflict(agendaerrors.ErrAlreadyCanceled.Error())
	}
	if booking.ExternalUID == "" {
		return model.Booking{}, apperrors.InvalidInput(agendaerrors.ErrMissingExternalUID.Error())
	}
	return booking, nil
}

func (s *agendaService) attemptLogger(tenantID, operation string, bookingID model.ExternalID) func(string, error) {
	return func(name string, err error) {
		s.cfg.Log.Warn("Gateway attempt failed",
			"tenant_id", tenantID,
			"operation", operation,
			"booking_id", bookingID.String(),
			"attempt", name,
			"error", err,
		)
	}
}

func (s *agendaService) publish(ctx context.Context, event model.BookingEvent) {
	event.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event",
			"type", event.Type,
			"tenant_id", event.TenantID,
			"error", err,
		)
	}
}

func inflightKey(parts ...string) string {
	return strings.Join(parts, ":")
}
