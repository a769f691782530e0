// Package errs holds the error kinds surfaced by the user and account services.
// Handlers translate a kind into an HTTP status; the message is safe to show to clients.
package errs

import "errors"

var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrInactiveOwner       = errors.New("inactive owner")
	ErrCreditLimitExceeded = errors.New("credit limit exceeded")
	ErrInsufficientCash    = errors.New("insufficient cash")
	ErrIntegrity           = errors.New("integrity error")
	ErrCascadeFailure      = errors.New("cascade failure")
	ErrStore               = errors.New("store error")
)

// Error pairs a kind with a client-facing message and an optional cause.
type Error struct {
	Kind    error
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

func New(kind error, message string) error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind error, message string, err error) error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) error { return New(ErrValidation, message) }

func NotFound(message string) error { return New(ErrNotFound, message) }

func InactiveOwner(message string) error { return New(ErrInactiveOwner, message) }

func CreditLimitExceeded(message string) error { return New(ErrCreditLimitExceeded, message) }

func Integrity(message string) error { return New(ErrIntegrity, message) }

// Store wraps an unexpected persistence failure.
func Store(message string, err error) error { return Wrap(ErrStore, message, err) }

// Message returns the client-facing message of err, or fallback when err is not an *Error.
func Message(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return fallback
}
