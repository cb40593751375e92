// Package availability turns a clinic's working periods, holidays, services
// and confirmed appointments into bookable dates, slots and booking
// decisions. Every call recomputes from the Snapshot it is given; an Engine
// only carries configuration and is safe for concurrent use.
package availability

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

// Engine defaults, in minutes except for the range which is in days.
const (
	DefaultSlotIncrement    = 15
	DefaultDuration         = 30
	DefaultBookingRangeDays = 21
)

// Mode selects which closure checks apply. Public bookings respect holidays
// and working hours; internal (staff) bookings only respect the past and
// double-booking.
type Mode string

const (
	ModePublic   Mode = "public"
	ModeInternal Mode = "internal"
)

// ParseMode maps a user supplied value onto a Mode. The empty string is
// treated as public.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "public":
		return ModePublic, nil
	case "internal", "staff":
		return ModeInternal, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Snapshot is the immutable input for one engine call.
type Snapshot struct {
	Periods      []domain.WorkingPeriod
	Holidays     []domain.Holiday
	Services     []domain.Service
	Appointments []domain.Appointment
}

// Engine evaluates availability for one clinic configuration.
type Engine struct {
	now             func() time.Time
	loc             *time.Location
	increment       int
	defaultDuration int
	rangeDays       int
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithLocation sets the clinic's time zone. "Today" and the same-day cutoff
// are evaluated in it.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithSlotIncrement sets the spacing between candidate slot start times.
func WithSlotIncrement(minutes int) Option {
	return func(e *Engine) {
		if minutes > 0 {
			e.increment = minutes
		}
	}
}

// WithDefaultDuration sets the duration used when a service has none.
func WithDefaultDuration(minutes int) Option {
	return func(e *Engine) {
		if minutes > 0 {
			e.defaultDuration = minutes
		}
	}
}

// WithBookingRangeDays sets how many days AvailableDates covers by default.
func WithBookingRangeDays(days int) Option {
	return func(e *Engine) {
		if days > 0 {
			e.rangeDays = days
		}
	}
}

// New returns an Engine with the defaults above, then applies opts.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:             time.Now,
		loc:             time.Local,
		increment:       DefaultSlotIncrement,
		defaultDuration: DefaultDuration,
		rangeDays:       DefaultBookingRangeDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location is the clinic's time zone.
func (e *Engine) Location() *time.Location { return e.loc }

func (e *Engine) DefaultDuration() int { return e.defaultDuration }

// RangeDays is the default length of the booking horizon.
func (e *Engine) RangeDays() int { return e.rangeDays }

// Today is the current date at midnight in the clinic's location.
func (e *Engine) Today() time.Time {
	return domain.DateOnly(e.now(), e.loc)
}

// Day normalizes a caller supplied date to midnight in the clinic's
// location, keeping the calendar day as written.
func (e *Engine) Day(date time.Time) time.Time {
	return domain.CivilDate(date, e.loc)
}

// DurationFor returns the duration of the service with the given id, or the
// default duration when the service is unknown or has no usable duration.
func (e *Engine) DurationFor(serviceID uuid.UUID, services []domain.Service) int {
	for _, s := range services {
		if s.ID == serviceID {
			return e.normalizeDuration(s.Duration)
		}
	}
	return e.defaultDuration
}

func (e *Engine) normalizeDuration(minutes int) int {
	if minutes <= 0 {
		return e.defaultDuration
	}
	return minutes
}

func (e *Engine) nowMinutes() int {
	now := e.now().In(e.loc)
	return now.Hour()*60 + now.Minute()
}
