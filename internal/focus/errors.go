package focus

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of a refused or failed focus operation
type ErrorType int

const (
	// ErrTypeNotRegistered indicates the target id is not in the registry
	ErrTypeNotRegistered ErrorType = iota
	// ErrTypeNotFocusable indicates the target is registered but disabled
	ErrTypeNotFocusable
	// ErrTypeLeaveRefused indicates the current element's CanLeaveFocus said no
	ErrTypeLeaveRefused
	// ErrTypeReceiveRefused indicates the target's CanReceiveFocus said no
	ErrTypeReceiveRefused
	// ErrTypeOutsideModal indicates the target is outside the topmost modal scope
	ErrTypeOutsideModal
	// ErrTypeSuperseded indicates a newer navigation request replaced this one
	ErrTypeSuperseded
	// ErrTypeDisabled indicates the manager's global kill switch is off
	ErrTypeDisabled
	// ErrTypeModalOrder indicates a modal close request that violates LIFO order
	ErrTypeModalOrder
	// ErrTypeModalOpen indicates the scope is already on the modal stack
	ErrTypeModalOpen
	// ErrTypePlacement indicates the surface did not accept focus
	ErrTypePlacement
	// ErrTypeValidation indicates an invalid argument (e.g. an element without id)
	ErrTypeValidation
	// ErrTypeCanceled indicates the caller's context ended before the transition
	ErrTypeCanceled
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNotRegistered:
		return "Not Registered"
	case ErrTypeNotFocusable:
		return "Not Focusable"
	case ErrTypeLeaveRefused:
		return "Leave Refused"
	case ErrTypeReceiveRefused:
		return "Receive Refused"
	case ErrTypeOutsideModal:
		return "Outside Modal"
	case ErrTypeSuperseded:
		return "Superseded"
	case ErrTypeDisabled:
		return "Focus Disabled"
	case ErrTypeModalOrder:
		return "Modal Order"
	case ErrTypeModalOpen:
		return "Modal Already Open"
	case ErrTypePlacement:
		return "Placement Failed"
	case ErrTypeValidation:
		return "Validation Error"
	case ErrTypeCanceled:
		return "Canceled"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// Error is the tagged failure value returned by focus operations.
// Refusals are ordinary values, not exceptional conditions.
type Error struct {
	Type    ErrorType // Category of refusal
	ID      string    // Element or scope the operation targeted
	Message string    // Human-readable message
	Err     error     // Underlying error (validator error, context error)
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *Error) Unwrap() error {
	return e.Err
}

func newError(t ErrorType, id, format string, args ...any) *Error {
	return &Error{
		Type:    t,
		ID:      id,
		Message: fmt.Sprintf(format, args...),
	}
}

// IsRefusal reports whether err is a validator refusal (leave or receive).
func IsRefusal(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Type == ErrTypeLeaveRefused || fe.Type == ErrTypeReceiveRefused
	}
	return false
}

// IsRegistryInconsistency reports whether err came from focusing an id the
// registry does not know about.
func IsRegistryInconsistency(err error) bool {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Type == ErrTypeNotRegistered
	}
	return false
}

// TypeOf returns the ErrorType carried by err, or -1 when err is not a focus error.
func TypeOf(err error) ErrorType {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Type
	}
	return -1
}
