package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
		wantCause  bool
	}{
		{"not found", NotFoundWithID("Contact", "c-1"), CodeNotFound, http.StatusNotFound, false},
		{"validation", Validation("Contact validation failed", nil), CodeValidation, http.StatusUnprocessableEntity, false},
		{"invalid input", InvalidInput("Contact ID cannot be empty"), CodeInvalidInput, http.StatusBadRequest, false},
		{"unauthorized", Unauthorized("missing tenant"), CodeUnauthorized, http.StatusUnauthorized, false},
		{"conflict", Conflict("phone already registered"), CodeConflict, http.StatusConflict, false},
		{"precondition", PreconditionFailed("booking api key not configured"), CodePreconditionFailed, http.StatusPreconditionFailed, false},
		{"payload too large", PayloadTooLarge(1024), CodePayloadTooLarge, http.StatusRequestEntityTooLarge, false},
		{"media type", UnsupportedMediaType("application/json"), CodeUnsupportedMedia, http.StatusUnsupportedMediaType, false},
		{"rate limited", RateLimited(), CodeRateLimited, http.StatusTooManyRequests, false},
		{"timeout", Timeout("Request timeout"), CodeTimeout, http.StatusGatewayTimeout, false},
		{"internal", Internal("Failed to create contact", cause), CodeInternal, http.StatusInternalServerError, true},
		{"bad gateway", BadGateway("booking gateway unreachable", cause), CodeBadGateway, http.StatusBadGateway, true},
		{"gateway rejected", GatewayRejected("slot taken", http.StatusBadRequest), CodeGatewayRejected, http.StatusUnprocessableEntity, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantStatus, tt.err.StatusCode())
			assert.Equal(t, tt.wantCause, errors.Is(tt.err, cause))
		})
	}
}

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "NOT_FOUND: Contact not found", NotFoundWithID("Contact", "1").Error())
	assert.Equal(t,
		"INTERNAL_ERROR: internal error (caused by: database connection failed)",
		Internal("internal error", errors.New("database connection failed")).Error(),
	)
}

func TestAppError_StatusCodeFallbacks(t *testing.T) {
	assert.Equal(t, http.StatusConflict, (&AppError{Code: CodeConflict}).StatusCode())
	assert.Equal(t, http.StatusTeapot, (&AppError{Code: CodeConflict, HTTPStatus: http.StatusTeapot}).StatusCode())
	assert.Equal(t, http.StatusInternalServerError, (&AppError{Code: "SOMETHING_NEW"}).StatusCode())
}

func TestDetails(t *testing.T) {
	assert.Equal(t, map[string]any{"resource": "Contact", "id": "12345"}, NotFoundWithID("Contact", "12345").Details)
	assert.Equal(t, map[string]any{"upstream_status": http.StatusBadRequest}, GatewayRejected("x", http.StatusBadRequest).Details)
	assert.Equal(t, "GATEWAY_REJECTED: User either already has booking at this time or is not available",
		GatewayRejected("User either already has booking at this time or is not available", 400).Error())

	err := Validation("bad", map[string]any{"field": "email"}).WithDetails(map[string]any{"field": "phone"})
	assert.Equal(t, "phone", err.Details["field"])
}

func TestAsAppError(t *testing.T) {
	appErr := Conflict("taken")
	wrapped := fmt.Errorf("create: %w", appErr)
	plain := errors.New("regular error")

	assert.True(t, IsAppError(wrapped))
	assert.False(t, IsAppError(plain))

	assert.Same(t, appErr, AsAppError(wrapped))

	got := AsAppError(plain)
	assert.Equal(t, CodeInternal, got.Code)
	assert.ErrorIs(t, got, plain)
}
