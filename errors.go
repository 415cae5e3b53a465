package pushcomm

import (
	"errors"
	"fmt"
)

// Error represents a directory error with categorization.
// Every rejected request surfaces exactly one *Error; the request's
// writes and events are discarded.
type Error struct {
	// Code is a machine-readable error code
	Code string

	// Message is a human-readable error message
	Message string

	// Err is the underlying error (if any)
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error carrying the same code.
// This lets callers match with errors.Is(err, ErrNotSubscribed) regardless of
// the message attached at the failure site.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Error codes for infrastructure failures.
const (
	// ErrCodeNoData indicates no record exists at the requested location.
	ErrCodeNoData = "NO_DATA"

	// ErrCodeValidation indicates a malformed request (bad encoding, missing field).
	ErrCodeValidation = "VALIDATION_ERROR"

	// ErrCodeConfiguration indicates invalid configuration.
	ErrCodeConfiguration = "CONFIGURATION_ERROR"

	// ErrCodeDatabase indicates a storage operation failed.
	ErrCodeDatabase = "DATABASE_ERROR"

	// ErrCodeDelivery indicates an event could not be published downstream.
	ErrCodeDelivery = "DELIVERY_ERROR"
)

// Error codes for rejected requests.
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeInvalidArgument      = "INVALID_ARGUMENT"
	ErrCodeAlreadyPaused        = "ALREADY_PAUSED"
	ErrCodeNotPaused            = "NOT_PAUSED"
	ErrCodeContractPaused       = "CONTRACT_PAUSED"
	ErrCodeAlreadySubscribed    = "ALREADY_SUBSCRIBED"
	ErrCodeNotSubscribed        = "NOT_SUBSCRIBED"
	ErrCodeDelegateAlreadyAdded = "DELEGATE_ALREADY_ADDED"
	ErrCodeDelegateNotFound     = "DELEGATE_NOT_FOUND"
	ErrCodeUnderflow            = "UNDERFLOW"
	ErrCodeOverflow             = "OVERFLOW"
	ErrCodeAlreadyInitialized   = "ALREADY_INITIALIZED"
	ErrCodeNotInitialized       = "NOT_INITIALIZED"
)

// Common errors.
var (
	// ErrNoData is returned when a record lookup finds nothing.
	// This is not necessarily an error condition in all cases.
	ErrNoData = &Error{
		Code:    ErrCodeNoData,
		Message: "no data found",
	}

	// ErrInvalidConfiguration is returned when a component is built without its dependencies.
	ErrInvalidConfiguration = &Error{
		Code:    ErrCodeConfiguration,
		Message: "invalid configuration",
	}

	ErrUnauthorized         = NewError(ErrCodeUnauthorized, "unauthorized access")
	ErrInvalidArgument      = NewError(ErrCodeInvalidArgument, "invalid argument provided")
	ErrAlreadyPaused        = NewError(ErrCodeAlreadyPaused, "directory is already paused")
	ErrNotPaused            = NewError(ErrCodeNotPaused, "directory is not paused")
	ErrContractPaused       = NewError(ErrCodeContractPaused, "directory is paused")
	ErrAlreadySubscribed    = NewError(ErrCodeAlreadySubscribed, "already subscribed to this channel")
	ErrNotSubscribed        = NewError(ErrCodeNotSubscribed, "not subscribed to this channel")
	ErrDelegateAlreadyAdded = NewError(ErrCodeDelegateAlreadyAdded, "delegate already added")
	ErrDelegateNotFound     = NewError(ErrCodeDelegateNotFound, "delegate not added or removed")
	ErrUnderflow            = NewError(ErrCodeUnderflow, "counter underflow")
	ErrOverflow             = NewError(ErrCodeOverflow, "counter overflow")
	ErrAlreadyInitialized   = NewError(ErrCodeAlreadyInitialized, "registry already initialized")
	ErrNotInitialized       = NewError(ErrCodeNotInitialized, "registry not initialized")
)

// NewError creates a new Error with the given code and message.
func NewError(code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// NewErrorWithCause creates a new Error wrapping an underlying error.
func NewErrorWithCause(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     cause,
	}
}

// IsNoData checks if an error is ErrNoData.
func IsNoData(err error) bool {
	return CodeOf(err) == ErrCodeNoData
}

// CodeOf returns the code of the outermost *Error in err's chain,
// or the empty string when err carries no code.
func CodeOf(err error) string {
	var pcErr *Error
	if errors.As(err, &pcErr) {
		return pcErr.Code
	}
	return ""
}
