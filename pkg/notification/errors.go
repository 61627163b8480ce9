package notification

import (
	"net/http"

	"github.com/cybershield/notifier/pkg/apiresponses"
)

// Kind classifies a failure so the HTTP boundary can map it to a status code.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindTemplate
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindTemplate:
		return "template_error"
	case KindTransport:
		return "transport_error"
	default:
		return "unknown_error"
	}
}

// Error is the failure type returned by Service.Send.
type Error struct {
	Kind Kind
	// Code overrides the response code derived from Kind.
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error kind to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation, KindTemplate:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ResponseCode returns the machine-readable code sent to clients.
func (e *Error) ResponseCode() string {
	if e.Code != "" {
		return e.Code
	}
	switch e.Kind {
	case KindValidation:
		return apiresponses.CodeValidation
	case KindTemplate:
		return apiresponses.CodeTemplate
	case KindTransport:
		return apiresponses.CodeTransport
	default:
		return apiresponses.CodeInternalError
	}
}

func validationError(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}
