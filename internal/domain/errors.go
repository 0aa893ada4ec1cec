package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the booking core unwraps to one of
// these so transports can map them with errors.Is.
var (
	ErrValidation                 = errors.New("validation failed")
	ErrIllegalTransition          = errors.New("illegal transition")
	ErrPreconditionFailed         = errors.New("precondition failed")
	ErrExternalServiceUnavailable = errors.New("external service unavailable")
	ErrNotFound                   = errors.New("not found")
)

// ErrConcurrentModification is returned when another writer holds the booking
// or changed it between read and write.
var ErrConcurrentModification = &kindError{kind: ErrPreconditionFailed, msg: "booking was modified concurrently"}

type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func Preconditionf(format string, args ...any) error {
	return &kindError{kind: ErrPreconditionFailed, msg: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

func Unavailablef(format string, args ...any) error {
	return &kindError{kind: ErrExternalServiceUnavailable, msg: fmt.Sprintf(format, args...)}
}

// TransitionError reports a state machine rule violation on one status axis.
type TransitionError struct {
	Axis string
	From string
	To   string
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal %s transition: %s -> %s", e.Axis, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrIllegalTransition }
