package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"jdpanel/internal/profiles/service"
	httputil "jdpanel/pkg/http"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

type ProfileHandler struct {
	service service.ProfileService
	log     *logger.Logger
}

func NewProfileHandler(service service.ProfileService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		service: service,
		log:     log,
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	view, err := h.service.Get(r.Context(), tenantID)
	if err != nil {
		h.writeError(w, "Get", err)
		return
	}

	h.writeSuccess(w, "Get", view)
}

func (h *ProfileHandler) UpdateInfo(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "UpdateInfo", err)
		return
	}

	var input model.ProfileInfoInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "UpdateInfo", err)
		return
	}

	view, err := h.service.UpdateInfo(r.Context(), tenantID, &input)
	if err != nil {
		h.writeError(w, "UpdateInfo", err)
		return
	}

	h.writeSuccess(w, "UpdateInfo", view)
}

func (h *ProfileHandler) UpdateIntegrations(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	tenantID, err := httputil.TenantID(r)
	if err != nil {
		h.writeError(w, "UpdateIntegrations", err)
		return
	}

	var input model.IntegrationsInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "UpdateIntegrations", err)
		return
	}

	view, err := h.service.UpdateIntegrations(r.Context(), tenantID, &input)
	if err != nil {
		h.writeError(w, "UpdateIntegrations", err)
		return
	}

	h.writeSuccess(w, "UpdateIntegrations", view)
}

func (h *ProfileHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ProfileHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ProfileHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/profile", h.Get)
	router.PUT("/api/v1/profile/info", h.UpdateInfo)
	router.PUT("/api/v1/profile/integrations", h.UpdateIntegrations)
}
