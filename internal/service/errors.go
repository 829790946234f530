package service

import (
	"errors"
	"fmt"
)

// ErrCapacityExceeded is returned when a reservation would push an event past
// its ticket stock. Nothing is written when it is returned.
var ErrCapacityExceeded = errors.New("sold out or insufficient seats")

// ErrReservationClosed is returned when an event is not accepting reservations today.
var ErrReservationClosed = errors.New("reservations are not being accepted for this event")

// ErrNotMember is returned when a non-member submits an invited reservation.
var ErrNotMember = errors.New("invited reservations are limited to members")

// ValidationError reports input that was rejected before any write.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
