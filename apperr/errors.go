package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind uint

const (
	KindUnknown Kind = iota
	KindValidation
	KindInternal
	KindUpstream
)

// Error carries the category a handler turns into a status code.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (e *Error) Code() string {
	switch e.Kind {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindUpstream:
		return "UPSTREAM_ERROR"
	case KindInternal:
		return "INTERNAL_ERROR"
	default:
		return "UNKNOWN_ERROR"
	}
}

func Validation(message string, err error) *Error {
	return &Error{Kind: KindValidation, Message: message, Err: err}
}

func Internal(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}

func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Message: message, Err: err}
}

// From returns err as an *Error, treating anything uncategorized as internal.
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Internal("internal error", err)
}

// Response is the JSON body of failed requests.
type Response struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// Public hides the wrapped cause of internal errors from callers.
func (e *Error) Public(requestID string) Response {
	msg := e.Error()
	if e.Kind == KindInternal || e.Kind == KindUnknown {
		msg = e.Message
	}
	return Response{Error: msg, Code: e.Code(), RequestID: requestID}
}
