package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/julienschmidt/httprouter"

	"jdpanel/internal/contacts/service"
	apperrors "jdpanel/pkg/errors"
	httputil "jdpanel/pkg/http"
	"jdpanel/pkg/logger"
	"jdpanel/pkg/model"
)

// DefaultStatsWindow is how far back "new leads" looks when no since is given.
const DefaultStatsWindow = 7 * 24 * time.Hour

type ContactHandler struct {
	service service.ContactService
	log     *logger.Logger
	now     func() time.Time
}

func NewContactHandler(service service.ContactService, log *logger.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		log:     log,
		now:     time.Now,
	}
}

func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var input model.NewContactInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	contact, err := h.service.Create(r.Context(), &input)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, contact); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ContactHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	contact, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	h.writeSuccess(w, "GetByID", contact)
}

func (h *ContactHandler) GetDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	details, err := h.service.GetDetails(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetDetails", err)
		return
	}

	h.writeSuccess(w, "GetDetails", details)
}

func (h *ContactHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	contacts, total, err := h.service.List(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, contacts, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ContactHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()

	limit := 0
	if limitStr := query.Get("limit"); limitStr != "" {
		var err error
		if limit, err = strconv.Atoi(limitStr); err != nil {
			h.writeError(w, "Search", apperrors.InvalidInput("invalid limit parameter: "+limitStr))
			return
		}
	}

	contacts, err := h.service.Search(r.Context(), query.Get("q"), limit)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	h.writeSuccess(w, "Search", contacts)
}

func (h *ContactHandler) Recent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	n := 0
	if nStr := r.URL.Query().Get("n"); nStr != "" {
		var err error
		if n, err = strconv.Atoi(nStr); err != nil {
			h.writeError(w, "Recent", apperrors.InvalidInput("invalid n parameter: "+nStr))
			return
		}
	}

	contacts, err := h.service.Recent(r.Context(), n)
	if err != nil {
		h.writeError(w, "Recent", err)
		return
	}

	h.writeSuccess(w, "Recent", contacts)
}

func (h *ContactHandler) UpdateName(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var input model.UpdateNameInput
	if err := httputil.DecodeJSON(r, &input); err != nil {
		h.writeError(w, "UpdateName", err)
		return
	}

	if err := h.service.UpdateName(r.Context(), ps.ByName("id"), &input); err != nil {
		h.writeError(w, "UpdateName", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ContactHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	since := h.now().Add(-DefaultStatsWindow)
	if sinceStr := r.URL.Query().Get("since"); sinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			h.writeError(w, "Stats", apperrors.InvalidInput("invalid since format, must be RFC3339"))
			return
		}
		since = parsed
	}

	stats, err := h.service.Stats(r.Context(), since)
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	h.writeSuccess(w, "Stats", stats)
}

func (h *ContactHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ContactHandler) writeSuccess(w http.ResponseWriter, handler string, data any) {
	if err := httputil.WriteSuccess(w, data); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ContactHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/contacts", h.GetAll)
	router.POST("/api/v1/contacts", h.Create)
	router.GET("/api/v1/contacts/search", h.Search)
	router.GET("/api/v1/contacts/recent", h.Recent)
	router.GET("/api/v1/contacts/stats", h.Stats)
	router.GET("/api/v1/contacts/id/:id", h.GetByID)
	router.GET("/api/v1/contacts/id/:id/details", h.GetDetails)
	router.PATCH("/api/v1/contacts/id/:id/name", h.UpdateName)
}
