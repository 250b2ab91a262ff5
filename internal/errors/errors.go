// Package errors defines the error taxonomy surfaced by the remittance engine.
// Every error returned across a service boundary either is, or wraps, a
// *DomainError so transports can map it to a status code.
package errors

import (
	"errors"
	"fmt"
)

// Error codes
const (
	CodeNotFound            = "NOT_FOUND"
	CodeInvalidState        = "INVALID_STATE"
	CodeAmountOutOfBounds   = "AMOUNT_OUT_OF_BOUNDS"
	CodeValidation          = "VALIDATION_ERROR"
	CodeExternalService     = "EXTERNAL_SERVICE_FAILURE"
	CodeCorridorUnavailable = "CORRIDOR_UNAVAILABLE"
)

// DomainError carries a stable code plus a human-readable message.
type DomainError struct {
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError with the same code, so callers can compare
// against the sentinels regardless of message.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New builds a DomainError with a specific message.
func New(code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Wrap attaches a cause to a DomainError.
func Wrap(code, message string, err error) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// CodeOf returns the code of the first DomainError in err's chain, or "".
func CodeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

func NotFound(format string, args ...interface{}) *DomainError {
	return New(CodeNotFound, fmt.Sprintf(format, args...))
}

func InvalidState(format string, args ...interface{}) *DomainError {
	return New(CodeInvalidState, fmt.Sprintf(format, args...))
}

func AmountOutOfBounds(format string, args ...interface{}) *DomainError {
	return New(CodeAmountOutOfBounds, fmt.Sprintf(format, args...))
}

func Validation(format string, args ...interface{}) *DomainError {
	return New(CodeValidation, fmt.Sprintf(format, args...))
}

func External(service string, err error) *DomainError {
	return Wrap(CodeExternalService, service+" unavailable", err)
}

func CorridorUnavailable(format string, args ...interface{}) *DomainError {
	return New(CodeCorridorUnavailable, fmt.Sprintf(format, args...))
}
