package availability

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

const (
	ErrMsgPastDate      = "Cannot book appointments for past dates"
	ErrMsgPastTime      = "Selected time has already passed"
	ErrMsgInvalidTime   = "Invalid start time"
	ErrMsgUnknownPeriod = "Selected period is not available on this date"
	ErrMsgOutsideHours  = "Selected time is outside working hours"
	errFmtHoliday       = "Clinic is closed: %s"
	errFmtClosedWeekday = "Clinic is closed on %s"
	errFmtExceedsPeriod = "Appointment would end after %s ends at %s"
	errFmtConflict      = "Time slot conflicts with an existing appointment at %s"
)

// BookingRequest is a proposed booking. PeriodID optionally pins the working
// period; ExcludeAppointmentID ignores one existing appointment, which is how
// a reschedule avoids conflicting with itself.
type BookingRequest struct {
	Date                 time.Time
	StartTime            string
	Duration             int
	Mode                 Mode
	PeriodID             uuid.UUID
	ExcludeAppointmentID uuid.UUID
}

type BookingValidation struct {
	IsValid bool     `json:"is_valid"`
	Errors  []string `json:"errors"`
}

// FirstError is the authoritative rejection reason, or "" when valid.
func (v BookingValidation) FirstError() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return v.Errors[0]
}

func valid() BookingValidation {
	return BookingValidation{IsValid: true, Errors: []string{}}
}

func reject(msg string) BookingValidation {
	return BookingValidation{IsValid: false, Errors: []string{msg}}
}

// ValidateBooking runs the acceptance pipeline and stops at the first
// failure. Public mode enforces closures and working hours; both modes
// reject past dates and overlaps with confirmed appointments.
//
// The result is advisory: the write path must still be guarded by an atomic
// no-overlap constraint.
func (e *Engine) ValidateBooking(req BookingRequest, snap Snapshot) BookingValidation {
	day := e.Day(req.Date)
	today := e.Today()
	if day.Before(today) {
		return reject(ErrMsgPastDate)
	}

	start, err := ParseClock(req.StartTime)
	if err != nil {
		return reject(ErrMsgInvalidTime)
	}
	end := start + e.normalizeDuration(req.Duration)

	if req.Mode != ModeInternal {
		if day.Equal(today) && start <= e.nowMinutes() {
			return reject(ErrMsgPastTime)
		}
		if h, ok := FindHoliday(day, snap.Holidays); ok {
			return reject(fmt.Sprintf(errFmtHoliday, HolidayReason(h)))
		}

		periods := PeriodsForDate(day, snap.Periods)
		if len(periods) == 0 {
			return reject(fmt.Sprintf(errFmtClosedWeekday, day.Weekday()))
		}

		period, msg := resolvePeriod(periods, req.PeriodID, start)
		if msg != "" {
			return reject(msg)
		}
		if periodEnd := TimeToMinutes(period.EndTime); end > periodEnd {
			return reject(fmt.Sprintf(errFmtExceedsPeriod, period.Name, FormatTimeDisplay(period.EndTime)))
		}
	}

	busy := e.busyIntervals(day, snap, req.ExcludeAppointmentID)
	if b, ok := firstConflict(start, end, busy); ok {
		return reject(fmt.Sprintf(errFmtConflict, FormatTimeDisplay(MinutesToTime(b.start))))
	}

	return valid()
}

func resolvePeriod(periods []domain.WorkingPeriod, id uuid.UUID, start int) (domain.WorkingPeriod, string) {
	at := MinutesToTime(start)
	if id != uuid.Nil {
		p, ok := FindPeriod(periods, id)
		if !ok {
			return domain.WorkingPeriod{}, ErrMsgUnknownPeriod
		}
		if !IsTimeWithinPeriod(at, p) {
			return domain.WorkingPeriod{}, ErrMsgOutsideHours
		}
		return p, ""
	}
	for _, p := range periods {
		if IsTimeWithinPeriod(at, p) {
			return p, ""
		}
	}
	return domain.WorkingPeriod{}, ErrMsgOutsideHours
}
