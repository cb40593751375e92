package booking

import (
	"errors"
	"time"

	"clinicsched/internal/availability"
)

// ErrSlotUnavailable means the slot was taken between validation and the
// write. The caller may pick another slot and retry.
var ErrSlotUnavailable = errors.New("selected time slot is no longer available")

// ValidationError reports malformed input.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

func validationError(msg string) error {
	return &ValidationError{msg: msg}
}

// RejectedError carries a failed booking validation. Date is set for series
// bookings and names the occurrence that was rejected.
type RejectedError struct {
	Validation availability.BookingValidation
	Date       time.Time
}

func (e *RejectedError) Error() string {
	if e.Date.IsZero() {
		return e.Validation.FirstError()
	}
	return e.Date.Format("2006-01-02") + ": " + e.Validation.FirstError()
}
