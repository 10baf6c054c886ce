package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is an API-facing failure. Code is the stable machine identifier
// clients switch on; Status is the HTTP status the envelope is sent with.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return "<nil>"
	case e.Err == nil:
		return e.Message
	default:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is compares codes, so a sentinel and any clone of it match under errors.Is.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && e != nil && other != nil && e.Code == other.Code
}

// New declares an error kind.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap reports err to clients as the given kind while keeping it for logs.
func Wrap(err error, code string, status int, message string) *Error {
	e := New(code, status, message)
	e.Err = err
	return e
}

// Generic kinds.
var (
	ErrNotFound   = New("NOT_FOUND", http.StatusNotFound, "resource not found")
	ErrForbidden  = New("FORBIDDEN", http.StatusForbidden, "forbidden")
	ErrValidation = New("VALIDATION_ERROR", http.StatusBadRequest, "validation failed")
	ErrInternal   = New("INTERNAL_ERROR", http.StatusInternalServerError, "internal server error")
	ErrCacheMiss  = New("CACHE_MISS", http.StatusNotFound, "cache miss")
)

// Timetable kinds.
var (
	ErrSessionExpired     = New("SESSION_EXPIRED", http.StatusGone, "session not found or expired")
	ErrSlotOccupied       = New("SLOT_OCCUPIED", http.StatusConflict, "slot already occupied")
	ErrRevertPrecondition = New("REVERT_PRECONDITION", http.StatusPreconditionFailed, "cannot revert: slot occupied")
	ErrMalformedPayload   = New("MALFORMED_PAYLOAD", http.StatusUnprocessableEntity, "malformed timetable payload")
	ErrNotConfigured      = New("NOT_CONFIGURED", http.StatusPreconditionFailed, "timing not configured")
)

// FromError finds the *Error in err's chain. Anything else is reported as
// an internal error with the original kept as the cause.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return Wrap(err, ErrInternal.Code, ErrInternal.Status, ErrInternal.Message)
}

// Clone copies a kind with a request-specific message. An empty message
// keeps the default.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	out := *err
	if message != "" {
		out.Message = message
	}
	return &out
}
