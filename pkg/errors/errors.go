package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound           = "NOT_FOUND"
	CodeValidation         = "VALIDATION_ERROR"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeUnsupportedMedia   = "UNSUPPORTED_MEDIA_TYPE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeInternal           = "INTERNAL_ERROR"
	CodeBadGateway         = "BAD_GATEWAY"
	CodeGatewayRejected    = "GATEWAY_REJECTED"
	CodeTimeout            = "TIMEOUT"
)

// statusByCode is the single place a code is tied to an HTTP status.
var statusByCode = map[string]int{
	CodeNotFound:           http.StatusNotFound,
	CodeValidation:         http.StatusUnprocessableEntity,
	CodeInvalidInput:       http.StatusBadRequest,
	CodeUnauthorized:       http.StatusUnauthorized,
	CodeConflict:           http.StatusConflict,
	CodePreconditionFailed: http.StatusPreconditionFailed,
	CodePayloadTooLarge:    http.StatusRequestEntityTooLarge,
	CodeUnsupportedMedia:   http.StatusUnsupportedMediaType,
	CodeRateLimited:        http.StatusTooManyRequests,
	CodeInternal:           http.StatusInternalServerError,
	CodeBadGateway:         http.StatusBadGateway,
	CodeGatewayRejected:    http.StatusUnprocessableEntity,
	CodeTimeout:            http.StatusGatewayTimeout,
}

// AppError is what services return and handlers render. Err is logged but
// never sent to clients.
type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	if status, ok := statusByCode[e.Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func newError(code, message string, cause error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: statusByCode[code],
		Err:        cause,
	}
}

func NotFoundWithID(resource, id string) *AppError {
	return newError(CodeNotFound, resource+" not found", nil).
		WithDetails(map[string]any{"resource": resource, "id": id})
}

func Validation(message string, details map[string]any) *AppError {
	return newError(CodeValidation, message, nil).WithDetails(details)
}

func InvalidInput(message string) *AppError {
	return newError(CodeInvalidInput, message, nil)
}

func Unauthorized(message string) *AppError {
	return newError(CodeUnauthorized, message, nil)
}

func Conflict(message string) *AppError {
	return newError(CodeConflict, message, nil)
}

// PreconditionFailed reports a missing tenant setup, such as no gateway key.
func PreconditionFailed(message string) *AppError {
	return newError(CodePreconditionFailed, message, nil)
}

func PayloadTooLarge(limit int64) *AppError {
	return newError(CodePayloadTooLarge, "Request body too large", nil).
		WithDetails(map[string]any{"limit_bytes": limit})
}

func UnsupportedMediaType(want string) *AppError {
	return newError(CodeUnsupportedMedia, "Content-Type must be "+want, nil)
}

func RateLimited() *AppError {
	return newError(CodeRateLimited, "Rate limit exceeded", nil)
}

func Timeout(message string) *AppError {
	return newError(CodeTimeout, message, nil)
}

func Internal(message string, err error) *AppError {
	return newError(CodeInternal, message, err)
}

// BadGateway reports a transport failure while talking to an upstream API.
func BadGateway(message string, err error) *AppError {
	return newError(CodeBadGateway, message, err)
}

// GatewayRejected carries an upstream business rejection; message is shown as-is.
func GatewayRejected(message string, upstreamStatus int) *AppError {
	return newError(CodeGatewayRejected, message, nil).
		WithDetails(map[string]any{"upstream_status": upstreamStatus})
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
