package errors

import (
	"errors"
	"fmt"
)

var (
	// Gateway failure taxonomy.
	ErrNetwork        = errors.New("gateway unreachable")
	ErrSchemaMismatch = errors.New("gateway response has an unexpected shape")
	ErrUnauthorized   = errors.New("gateway rejected the credentials")
	ErrRejected       = errors.New("gateway rejected the request")

	ErrBookingNotFound     = errors.New("booking not found")
	ErrAlreadyCanceled     = errors.New("booking is already canceled")
	ErrOperationInFlight   = errors.New("operation already in progress for this booking")
	ErrIntegrationMissing  = errors.New("gateway api key not configured")
	ErrMissingEventType    = errors.New("booking has no event type")
	ErrMissingExternalUID  = errors.New("booking has no gateway uid")
	ErrContactNotFound     = errors.New("contact not found")
	ErrEventTypeNotNumeric = errors.New("event type id must be numeric")
)

// GatewayError carries the upstream status and message of a failed call.
// errors.Is matches it against the taxonomy sentinel in Kind.
type GatewayError struct {
	Kind    error
	Status  int
	Message string
	Err     error
}

func (e *GatewayError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v (status %d): %s: %v", e.Kind, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("%v (status %d): %s", e.Kind, e.Status, e.Message)
}

func (e *GatewayError) Is(target error) bool {
	return target == e.Kind
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// Message returns the upstream message of err, or "" when err is not a GatewayError.
func Message(err error) string {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Message
	}
	return ""
}

// Status returns the upstream HTTP status of err, or 0.
func Status(err error) int {
	var gwErr *GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Status
	}
	return 0
}
