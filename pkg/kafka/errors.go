package kafka

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrNoBrokers      = errors.New("no kafka brokers configured")
	ErrProducerClosed = errors.New("kafka producer is closed")
	ErrConsumerClosed = errors.New("kafka consumer is closed")
	ErrEmptyKey       = errors.New("message key cannot be empty")
	ErrEmptyValue     = errors.New("message value cannot be empty")
)

// ErrorType tells the consumer what to do with a failed message.
type ErrorType int

const (
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeTransient is retried in place.
	ErrorTypeTransient
	// ErrorTypePermanent goes straight to the dead-letter topic.
	ErrorTypePermanent
	// ErrorTypeBusiness is a well-formed event the domain refuses. Not retried.
	ErrorTypeBusiness
)

func (t ErrorType) String() string {
	switch t {
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypePermanent:
		return "permanent"
	case ErrorTypeBusiness:
		return "business"
	default:
		return "unknown"
	}
}

// HandlerError is returned by message handlers to classify a failure.
type HandlerError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]any
}

func (e *HandlerError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

func (e *HandlerError) WithDetail(key string, value any) *HandlerError {
	if e.Details == nil {
		e.Details = make(map[string]any, 1)
	}
	e.Details[key] = value
	return e
}

func newHandlerError(t ErrorType, message string, err error) *HandlerError {
	return &HandlerError{Type: t, Message: message, Err: err}
}

func NewTransientError(message string, err error) *HandlerError {
	return newHandlerError(ErrorTypeTransient, message, err)
}

func NewPermanentError(message string, err error) *HandlerError {
	return newHandlerError(ErrorTypePermanent, message, err)
}

func NewBusinessError(message string, err error) *HandlerError {
	return newHandlerError(ErrorTypeBusiness, message, err)
}

// Substrings of driver and network errors that carry no type information.
var errorPatterns = []struct {
	fragment string
	kind     ErrorType
}{
	{"connection refused", ErrorTypeTransient},
	{"connection reset", ErrorTypeTransient},
	{"broken pipe", ErrorTypeTransient},
	{"timeout", ErrorTypeTransient},
	{"deadline exceeded", ErrorTypeTransient},
	{"no such host", ErrorTypeTransient},
	{"network is unreachable", ErrorTypeTransient},
	{"temporary failure", ErrorTypeTransient},
	{"too many clients", ErrorTypeTransient},
	{"schema mismatch", ErrorTypePermanent},
	{"deserialization failed", ErrorTypePermanent},
	{"unknown topic", ErrorTypePermanent},
}

// ClassifyError inspects typed errors first, then message text. Anything
// unrecognised is treated as permanent.
func ClassifyError(err error) ErrorType {
	if err == nil {
		return ErrorTypeUnknown
	}

	var handlerErr *HandlerError
	if errors.As(err, &handlerErr) {
		return handlerErr.Type
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return ErrorTypeTransient
	}

	text := strings.ToLower(err.Error())
	for _, p := range errorPatterns {
		if strings.Contains(text, p.fragment) {
			return p.kind
		}
	}
	return ErrorTypePermanent
}

func ShouldRetry(err error, currentRetries, maxRetries int) bool {
	return err != nil && currentRetries < maxRetries && ClassifyError(err) == ErrorTypeTransient
}
