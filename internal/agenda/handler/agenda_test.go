package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/julienschmidt/httprouter"

	"jdpanel/internal/agenda/service"
	apperrors "jdpanel/pkg/errors"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/middleware"
	"jdpanel/pkg/model"
)

type mockAgendaService struct {
	bookingsFunc   func(tenantID string, filter model.BookingFilter, force bool) ([]model.Booking, error)
	slotsFunc      func(tenantID string, query model.SlotQuery) ([]string, error)
	createFunc     func(tenantID string, input *model.CreateBookingInput) (*model.Booking, error)
	cancelFunc     func(tenantID string, id model.ExternalID) (*model.Booking, error)
	rescheduleFunc func(tenantID string, id model.ExternalID, input *model.RescheduleInput) error
	invalidated    []string
}

func (m *mockAgendaService) Refresh(ctx context.Context, tenantID string) (*service.Snapshot, error) {
	return &service.Snapshot{}, nil
}

func (m *mockAgendaService) EventTypes(ctx context.Context, tenantID string) ([]model.EventType, error) {
	return []model.EventType{}, nil
}

func (m *mockAgendaService) Bookings(ctx context.Context, tenantID string, filter model.BookingFilter, force bool) ([]model.Booking, error) {
	if m.bookingsFunc != nil {
		return m.bookingsFunc(tenantID, filter, force)
	}
	return []model.Booking{}, nil
}

func (m *mockAgendaService) BookingYears(ctx context.Context, tenantID string) ([]int, error) {
	return []int{}, nil
}

func (m *mockAgendaService) Slots(ctx context.Context, tenantID string, query model.SlotQuery) ([]string, error) {
	if m.slotsFunc != nil {
		return m.slotsFunc(tenantID, query)
	}
	return []string{}, nil
}

func (m *mockAgendaService) RescheduleSlots(ctx context.Context, tenantID string, bookingID model.ExternalID, date string) ([]string, error) {
	return []string{}, nil
}

func (m *mockAgendaService) CreateBooking(ctx context.Context, tenantID string, input *model.CreateBookingInput) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(tenantID, input)
	}
	return nil, nil
}

func (m *mockAgendaService) CancelBooking(ctx context.Context, tenantID string, bookingID model.ExternalID) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(tenantID, bookingID)
	}
	return nil, nil
}

func (m *mockAgendaService) RescheduleBooking(ctx context.Context, tenantID string, bookingID model.ExternalID, input *model.RescheduleInput) error {
	if m.rescheduleFunc != nil {
		return m.rescheduleFunc(tenantID, bookingID, input)
	}
	return nil
}

func (m *mockAgendaService) Dashboard(ctx context.Context, tenantID string) (*model.DashboardSummary, error) {
	return &model.DashboardSummary{}, nil
}

func (m *mockAgendaService) Invalidate(_ context.Context, tenantID string) {
	m.invalidated = append(m.invalidated, tenantID)
}

func newRouter(svc service.AgendaService, secret string) *httprouter.Router {
	router := httprouter.New()
	NewAgendaHandler(svc, logger.Discard(), secret).RegisterRoutes(router)
	return router
}

func serve(router http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

var tenantHeader = map[string]string{"X-Tenant-ID": "tenant-1"}

func TestBookings_ParsesFilters(t *testing.T) {
	var gotFilter model.BookingFilter
	var gotForce bool
	svc := &mockAgendaService{
		bookingsFunc: func(tenantID string, filter model.BookingFilter, force bool) ([]model.Booking, error) {
			gotFilter, gotForce = filter, force
			return []model.Booking{}, nil
		},
	}
	router := newRouter(svc, "")

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantFilter model.BookingFilter
		wantForce  bool
	}{
		{"no filters", "", http.StatusOK, model.BookingFilter{}, false},
		{"query and year", "?q=ana&year=2025", http.StatusOK, model.BookingFilter{Query: "ana", Year: 2025}, false},
		{"all years", "?year=all", http.StatusOK, model.BookingFilter{}, false},
		{"forced refresh", "?refresh=true", http.StatusOK, model.BookingFilter{}, true},
		{"invalid year", "?year=abc", http.StatusBadRequest, model.BookingFilter{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotFilter, gotForce = model.BookingFilter{}, false

			w := serve(router, http.MethodGet, "/api/v1/agenda/bookings"+tt.query, "", tenantHeader)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if gotFilter != tt.wantFilter {
				t.Errorf("expected filter %+v, got %+v", tt.wantFilter, gotFilter)
			}
			if gotForce != tt.wantForce {
				t.Errorf("expected force %v, got %v", tt.wantForce, gotForce)
			}
		})
	}
}

func TestTenantHeaderRequired(t *testing.T) {
	router := newRouter(&mockAgendaService{}, "")

	w := serve(router, http.MethodGet, "/api/v1/agenda/dashboard", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestSlots_PassesQuery(t *testing.T) {
	var got model.SlotQuery
	svc := &mockAgendaService{
		slotsFunc: func(tenantID string, query model.SlotQuery) ([]string, error) {
			got = query
			return []string{"09:00", "09:30"}, nil
		},
	}
	router := newRouter(svc, "")

	w := serve(router, http.MethodGet, "/api/v1/agenda/slots?event_type_id=77&date=2025-03-10", "", tenantHeader)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if got.EventTypeID != "77" || got.Date != "2025-03-10" {
		t.Errorf("unexpected query %+v", got)
	}

	var resp struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Data) != 2 || resp.Data[0] != "09:00" {
		t.Errorf("unexpected slots %v", resp.Data)
	}
}

func TestCreateBooking(t *testing.T) {
	var got *model.CreateBookingInput
	svc := &mockAgendaService{
		createFunc: func(tenantID string, input *model.CreateBookingInput) (*model.Booking, error) {
			got = input
			return &model.Booking{ID: "501"}, nil
		},
	}
	router := newRouter(svc, "")

	body := `{"contact_id":"c-1","event_type_id":77,"date":"2025-03-10","time":"14:30"}`
	w := serve(router, http.MethodPost, "/api/v1/agenda/bookings", body, tenantHeader)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if got == nil || got.EventTypeID != "77" || got.Time != "14:30" {
		t.Errorf("unexpected input %+v", got)
	}
}

func TestCreateBooking_UnknownFieldRejected(t *testing.T) {
	router := newRouter(&mockAgendaService{}, "")

	w := serve(router, http.MethodPost, "/api/v1/agenda/bookings", `{"contact_id":"c-1","foo":1}`, tenantHeader)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCancelBooking_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"gateway rejected", apperrors.GatewayRejected("Não foi possível cancelar o agendamento na API.", 500), http.StatusUnprocessableEntity, apperrors.CodeGatewayRejected},
		{"network", apperrors.BadGateway("Erro de rede ao tentar cancelar.", nil), http.StatusBadGateway, apperrors.CodeBadGateway},
		{"already canceled", apperrors.Conflict("booking is already canceled"), http.StatusConflict, apperrors.CodeConflict},
		{"no integration", apperrors.PreconditionFailed("Integração necessária"), http.StatusPreconditionFailed, apperrors.CodePreconditionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID model.ExternalID
			svc := &mockAgendaService{
				cancelFunc: func(tenantID string, id model.ExternalID) (*model.Booking, error) {
					gotID = id
					if tt.err != nil {
						return nil, tt.err
					}
					return &model.Booking{ID: id, Status: model.BookingCanceled}, nil
				},
			}
			router := newRouter(svc, "")

			w := serve(router, http.MethodPost, "/api/v1/agenda/bookings/id/42/cancel", "", tenantHeader)

			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if gotID != "42" {
				t.Errorf("expected booking id 42, got %q", gotID)
			}
			if tt.wantCode != "" {
				var resp struct {
					Code string `json:"code"`
				}
				if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
					t.Fatalf("decode response: %v", err)
				}
				if resp.Code != tt.wantCode {
					t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
				}
			}
		})
	}
}

func TestRescheduleBooking(t *testing.T) {
	var got *model.RescheduleInput
	svc := &mockAgendaService{
		rescheduleFunc: func(tenantID string, id model.ExternalID, input *model.RescheduleInput) error {
			got = input
			return nil
		},
	}
	router := newRouter(svc, "")

	w := serve(router, http.MethodPost, "/api/v1/agenda/bookings/id/42/reschedule", `{"date":"2025-03-14","time":"10:00"}`, tenantHeader)

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
	if got == nil || got.Date != "2025-03-14" {
		t.Errorf("unexpected input %+v", got)
	}
}

func TestWebhook(t *testing.T) {
	const secret = "whsec"
	body := `{"triggerEvent":"BOOKING_CANCELLED","payload":{"uid":"abc"}}`
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	signature := hex.EncodeToString(mac.Sum(nil))

	t.Run("valid signature invalidates tenant cache", func(t *testing.T) {
		svc := &mockAgendaService{}
		router := newRouter(svc, secret)

		w := serve(router, http.MethodPost, "/api/v1/agenda/webhooks/tenant-9", body, map[string]string{
			middleware.WebhookSignatureHeader: "sha256=" + signature,
		})

		if w.Code != http.StatusNoContent {
			t.Fatalf("expected status %d, got %d", http.StatusNoContent, w.Code)
		}
		if len(svc.invalidated) != 1 || svc.invalidated[0] != "tenant-9" {
			t.Errorf("expected tenant-9 invalidated, got %v", svc.invalidated)
		}
	})

	t.Run("bad signature rejected", func(t *testing.T) {
		svc := &mockAgendaService{}
		router := newRouter(svc, secret)

		w := serve(router, http.MethodPost, "/api/v1/agenda/webhooks/tenant-9", body, map[string]string{
			middleware.WebhookSignatureHeader: "deadbeef",
		})

		if w.Code != http.StatusUnauthorized {
			t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
		}
		if len(svc.invalidated) != 0 {
			t.Errorf("expected no invalidation, got %v", svc.invalidated)
		}
	})

	t.Run("route absent without secret", func(t *testing.T) {
		router := newRouter(&mockAgendaService{}, "")

		w := serve(router, http.MethodPost, "/api/v1/agenda/webhooks/tenant-9", body, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
		}
	})
}
