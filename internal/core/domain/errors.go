package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrSessionNotFound = fmt.Errorf("class session %w", ErrNotFound)
	ErrBookingNotFound = fmt.Errorf("booking %w", ErrNotFound)
	ErrPackageNotFound = fmt.Errorf("package %w", ErrNotFound)
)

var (
	ErrCapacityExceeded   = errors.New("class is full")
	ErrSessionCancelled   = errors.New("class session is cancelled")
	ErrBookingClosed      = errors.New("booking window is closed for this class")
	ErrAlreadyBooked      = errors.New("member already has a booking for this class")
	ErrNoActivePackage    = errors.New("member has no active package")
	ErrNoCreditsRemaining = errors.New("package has no credits remaining")
	ErrPackageExpired     = errors.New("package has expired")
	ErrPackageInactive    = errors.New("package is not active")
)

var (
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrConcurrencyConflict = errors.New("concurrent modification detected")
	ErrForbidden           = errors.New("forbidden")
	ErrValidation          = errors.New("validation error")
)

// TransitionError reports a lifecycle action that is not allowed from the
// current state.
type TransitionError struct {
	Entity string
	From   string
	Action string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("invalid transition: cannot %s %s in state %q", e.Action, e.Entity, e.From)
}

func (e *TransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// IsPackageUnusable reports whether err means the package cannot pay for a
// booking. Callers offer the drop-in path instead.
func IsPackageUnusable(err error) bool {
	return errors.Is(err, ErrNoCreditsRemaining) ||
		errors.Is(err, ErrPackageExpired) ||
		errors.Is(err, ErrPackageInactive)
}

func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrencyConflict)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
