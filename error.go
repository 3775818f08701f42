package email

import (
	"errors"
	"fmt"
)

// EmptyFromAddressMessage is reported in a failed Result when neither the
// message nor the options carry a sender.
const EmptyFromAddressMessage = "From Address should not be empty"

type ErrorReason string

const (
	REASON_UNKNOWN           ErrorReason = "UNKNOWN_ERROR"
	REASON_RATE_LIMITED      ErrorReason = "RATE_LIMITED"
	REASON_INVALID_EMAIL     ErrorReason = "INVALID_EMAIL"
	REASON_UNVERIFIED_DOMAIN ErrorReason = "UNVERIFIED_DOMAIN"
	REASON_MESSAGE_REJECTED  ErrorReason = "MESSAGE_REJECTED"
	REASON_SERVICE_ERROR     ErrorReason = "SERVICE_ERROR"
	REASON_VALIDATION_ERROR  ErrorReason = "VALIDATION_ERROR"
	REASON_CONNECTION_FAILED ErrorReason = "CONNECTION_FAILED"
	REASON_TIMEOUT           ErrorReason = "TIMEOUT"
)

var _ error = &Error{}

// Error is returned by the provider and every MailClient in this module.
type Error struct {
	Message string
	Reason  ErrorReason
	// Temporary is set when the backend reported a transient failure.
	Temporary bool
	Cause     error
}

func (e *Error) Error() string {
	s := fmt.Sprintf("%s: %s.", e.Reason, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(" Cause: %s", e.Cause)
	}
	return s
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ReasonOf reports the ErrorReason of the first *Error in err's chain, or
// REASON_UNKNOWN when there is none.
func ReasonOf(err error) ErrorReason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return REASON_UNKNOWN
}

// IsTemporary reports whether err carries an *Error marked as transient.
func IsTemporary(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Temporary
}

func newError(reason ErrorReason, message string, cause error) *Error {
	return &Error{
		Message: message,
		Reason:  reason,
		Cause:   cause,
	}
}

func NewUnknownError(message string, cause error) *Error {
	return newError(REASON_UNKNOWN, message, cause)
}

func NewRateLimitedError(message string, cause error) *Error {
	e := newError(REASON_RATE_LIMITED, message, cause)
	e.Temporary = true
	return e
}

func NewInvalidEmailError(message string, cause error) *Error {
	return newError(REASON_INVALID_EMAIL, message, cause)
}

func NewUnverifiedDomainError(message string, cause error) *Error {
	return newError(REASON_UNVERIFIED_DOMAIN, message, cause)
}

func NewMessageRejectedError(message string, cause error) *Error {
	return newError(REASON_MESSAGE_REJECTED, message, cause)
}

func NewServiceError(message string, cause error) *Error {
	return newError(REASON_SERVICE_ERROR, message, cause)
}

func NewValidationError(message string, cause error) *Error {
	return newError(REASON_VALIDATION_ERROR, message, cause)
}

func NewConnectionError(message string, cause error) *Error {
	e := newError(REASON_CONNECTION_FAILED, message, cause)
	e.Temporary = true
	return e
}

func NewTimeoutError(message string, cause error) *Error {
	e := newError(REASON_TIMEOUT, message, cause)
	e.Temporary = true
	return e
}
