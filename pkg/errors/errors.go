package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Error represents a typed domain error with HTTP awareness.
type Error struct {
	Code    string                 `json:"name"`
	Message string                 `json:"message"`
	Status  int                    `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
	Err     error                  `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// New creates a new Error instance.
func New(code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message}
}

// Wrap attaches context to an existing error.
func Wrap(err error, code string, status int, message string) *Error {
	return &Error{Code: code, Status: status, Message: message, Err: err}
}

// Predefined errors. Codes follow the CMS error names clients already match on.
var (
	ErrInvalidCredentials = New("ValidationError", http.StatusBadRequest, "Invalid identifier or password")
	ErrBlockedAccount     = New("ApplicationError", http.StatusBadRequest, "Your account has been blocked by an administrator")
	ErrInactiveAccount    = New("ApplicationError", http.StatusBadRequest, "account is inactive")
	ErrNotFound           = New("NotFoundError", http.StatusNotFound, "Not Found")
	ErrForbidden          = New("ForbiddenError", http.StatusForbidden, "Forbidden")
	ErrUnauthorized       = New("UnauthorizedError", http.StatusUnauthorized, "Missing or invalid credentials")
	ErrConflict           = New("ApplicationError", http.StatusBadRequest, "Email or Username are already taken")
	ErrValidation         = New("ValidationError", http.StatusBadRequest, "Invalid parameters")
	ErrPayloadTooLarge    = New("PayloadTooLargeError", http.StatusRequestEntityTooLarge, "File too large")
	ErrInternal           = New("InternalServerError", http.StatusInternalServerError, "Internal Server Error")
)

// FromError normalises any error into an *Error.
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

// Clone returns a copy of the error allowing for message overrides.
func Clone(err *Error, message string) *Error {
	if err == nil {
		return nil
	}
	clone := *err
	if message != "" {
		clone.Message = message
	}
	return &clone
}

// WithDetails returns a copy of err carrying the given details.
func WithDetails(err *Error, details map[string]interface{}) *Error {
	clone := Clone(err, "")
	if clone == nil {
		return nil
	}
	clone.Details = details
	return clone
}
