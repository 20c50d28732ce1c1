package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"jdpanel/internal/agenda/service"
	apperrors "jdpanel/pkg/errors"
	httputil "jdpanel/pkg/http"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/middleware"
	"jdpanel/pkg/model"
)

type AgendaHandler struct {
	service       service.AgendaService
	log           *logger.Logger
	webhookSecret string
}

// NewAgendaHandler builds the agenda routes. The webhook route is only
// registered when webhookSecret is set.
func NewAgendaHandler(service service.AgendaService, log *logger.Logger, webhookSecret string) *AgendaHandler {
	return &AgendaHandler{
		service:       service,
		log:           log,
		webhookSecret: webhookSecret,
	}
}

func (h *AgendaHandler) EventTypes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "EventTypes", err)
		return
	}

	eventTypes, err := h.service.EventTypes(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "EventTypes", err)
		return
	}

	h.writeSuccess(w, "EventTypes", eventTypes)
}

func (h *AgendaHandler) Bookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "Bookings", err)
		return
	}

	query := r.URL.Query()
	filter := model.BookingFilter{Query: query.Get("q")}
	if yearStr := query.Get("year"); yearStr != "" && yearStr != "all" {
		year, err := strconv.Atoi(yearStr)
		if err != nil {
			h.writeError(w, "Bookings", apperrors.InvalidInput("invalid year parameter: "+yearStr))
			return
		}
		filter.Year = year
	}
	force := query.Get("refresh") == "true"

	bookings, err := h.service.Bookings(r.Context(), tenantID, filter, force)
	if err != nil {
		h.writeError(w, "Bookings", err)
		return
	}

	h.writeSuccess(w, "Bookings", bookings)
}

func (h *AgendaHandler) BookingYears(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "BookingYears", err)
		return
	}

	years, err := h.service.BookingYears(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "BookingYears", err)
		return
	}

	h.writeSuccess(w, "BookingYears", years)
}

func (h *AgendaHandler) Sync(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "Sync", err)
		return
	}

	snap, err := h.service.Refresh(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "Sync", err)
		return
	}

	h.writeSuccess(w, "Sync", snap)
}

func (h *AgendaHandler) Slots(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	query := r.URL.Query()
	slots, err := h.service.Slots(r.Context(), tenantID, model.SlotQuery{
		EventTypeID: model.ExternalID(strings.TrimSpace(query.Get("event_type_id"))),
		Date:        query.Get("date"),
	})
	if err != nil {
		h.writeError(w, "Slots", err)
		return
	}

	h.writeSuccess(w, "Slots", slots)
}

func (h *AgendaHandler) RescheduleSlots(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "RescheduleSlots", err)
		return
	}

	slots, err := h.service.RescheduleSlots(r.Context(), tenantID, model.ExternalID(ps.ByName("id")), r.URL.Query().Get("date"))
	if err != nil {
		h.writeError(w, "RescheduleSlots", err)
		return
	}

	h.writeSuccess(w, "RescheduleSlots", slots)
}

func (h *AgendaHandler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "CreateBooking", err)
		return
	}

	var input model.CreateBookingInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "CreateBooking", err)
		return
	}

	created, err := h.service.CreateBooking(r.Context(), tenantID, &input)
	if err != nil {
		h.writeError(w, "CreateBooking", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateBooking", "operation", "WriteCreated", "error", err)
	}
}

func (h *AgendaHandler) CancelBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "CancelBooking", err)
		return
	}

	canceled, err := h.service.CancelBooking(r.Context(), tenantID, model.ExternalID(ps.ByName("id")))
	if err != nil {
		h.writeError(w, "CancelBooking", err)
		return
	}

	h.writeSuccess(w, "CancelBooking", canceled)
}

func (h *AgendaHandler) RescheduleBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "RescheduleBooking", err)
		return
	}

	var input model.RescheduleInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "RescheduleBooking", err)
		return
	}

	if err := h.service.RescheduleBooking(r.Context(), tenantID, model.ExternalID(ps.ByName("id")), &input); err != nil {
		h.writeError(w, "RescheduleBooking", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AgendaHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "Dashboard", err)
		return
	}

	summary, err := h.service.Dashboard(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "Dashboard", err)
		return
	}

	h.writeSuccess(w, "Dashboard", summary)
}

type webhookEnvelope struct {
	TriggerEvent string `json:"triggerEvent"`
}

// Webhook drops the tenant's cached mirror whenever the gateway reports a
// change made outside the panel. Signature checks happen in middleware.
func (h *AgendaHandler) Webhook(w http.ResponseWriter, r *http.Request) {
	tenantID := httprouter.ParamsFromContext(r.Context()).ByName("tenant")
	if tenantID == "" {
		h.writeError(w, "Webhook", apperrors.InvalidInput("tenant is required"))
		return
	}

	var envelope webhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		h.writeError(w, "Webhook", apperrors.InvalidInput("invalid webhook payload"))
		return
	}

	h.log.Info("Gateway webhook received",
		"tenant_id", tenantID,
		"trigger", envelope.TriggerEvent,
	)
	h.service.Invalidate(r.Context(), tenantID)

	httputil.WriteNoContent(w)
}

func (h *AgendaHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *AgendaHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *AgendaHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/agenda/event-types", h.EventTypes)
	router.GET("/api/v1/agenda/bookings", h.Bookings)
	router.POST("/api/v1/agenda/bookings", h.CreateBooking)
	router.GET("/api/v1/agenda/bookings/years", h.BookingYears)
	router.POST("/api/v1/agenda/bookings/id/:id/cancel", h.CancelBooking)
	router.POST("/api/v1/agenda/bookings/id/:id/reschedule", h.RescheduleBooking)
	router.GET("/api/v1/agenda/bookings/id/:id/slots", h.RescheduleSlots)
	router.POST("/api/v1/agenda/sync", h.Sync)
	router.GET("/api/v1/agenda/slots", h.Slots)
	router.GET("/api/v1/agenda/dashboard", h.Dashboard)

	if h.webhookSecret != "" {
		verify := middleware.WebhookSignatureVerification(h.webhookSecret, h.log)
		router.Handler(http.MethodPost, "/api/v1/agenda/webhooks/:tenant", verify(http.HandlerFunc(h.Webhook)))
	}
}
