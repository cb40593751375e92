package availability

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

type DateStatus string

const (
	DateAvailable DateStatus = "available"
	DateHoliday   DateStatus = "holiday"
	DateNoPeriods DateStatus = "no_periods"
	DatePast      DateStatus = "past"
	DateFull      DateStatus = "full"
)

const (
	ReasonClosed = "Clinic closed"
	ReasonPast   = "Date has passed"
	ReasonFull   = "Fully booked"
)

const dateLayout = "2006-01-02"

type AvailableDate struct {
	Date      time.Time
	Label     string
	DayOfWeek int
	Status    DateStatus
	Reason    string
}

type availableDateJSON struct {
	Date      string     `json:"date"`
	Label     string     `json:"label"`
	DayOfWeek int        `json:"day_of_week"`
	Status    DateStatus `json:"status"`
	Reason    string     `json:"reason,omitempty"`
}

func (d AvailableDate) MarshalJSON() ([]byte, error) {
	return json.Marshal(availableDateJSON{
		Date:      d.Date.Format(dateLayout),
		Label:     d.Label,
		DayOfWeek: d.DayOfWeek,
		Status:    d.Status,
		Reason:    d.Reason,
	})
}

func (d *AvailableDate) UnmarshalJSON(b []byte) error {
	var raw availableDateJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	date, err := time.Parse(dateLayout, raw.Date)
	if err != nil {
		return err
	}
	*d = AvailableDate{
		Date:      date,
		Label:     raw.Label,
		DayOfWeek: raw.DayOfWeek,
		Status:    raw.Status,
		Reason:    raw.Reason,
	}
	return nil
}

// RangeOptions bounds AvailableDates. Zero Days uses the engine's booking
// range.
type RangeOptions struct {
	Days         int
	IncludeToday bool
}

// DateStatus classifies date. Precedence: past, then (public mode only)
// holiday and no_periods, then full, then available.
func (e *Engine) DateStatus(date time.Time, snap Snapshot, duration int, mode Mode) (DateStatus, string) {
	day := e.Day(date)
	if day.Before(e.Today()) {
		return DatePast, ReasonPast
	}

	if mode != ModeInternal {
		if h, ok := FindHoliday(day, snap.Holidays); ok {
			return DateHoliday, HolidayReason(h)
		}
	}

	periods := PeriodsForDate(day, snap.Periods)
	if len(periods) == 0 {
		if mode != ModeInternal {
			return DateNoPeriods, ReasonClosed
		}
		return DateAvailable, ""
	}

	if e.dayIsFull(day, periods, snap, e.normalizeDuration(duration)) {
		return DateFull, ReasonFull
	}
	return DateAvailable, ""
}

func (e *Engine) dayIsFull(day time.Time, periods []domain.WorkingPeriod, snap Snapshot, duration int) bool {
	busy := e.busyIntervals(day, snap, uuid.Nil)
	for _, p := range periods {
		if _, ok := CalculateNextAvailableTime(e.timeSlots(day, p, busy, duration)); ok {
			return false
		}
	}
	return true
}

// AvailableDates returns one entry per day of the booking horizon, starting
// today or tomorrow.
func (e *Engine) AvailableDates(snap Snapshot, duration int, mode Mode, opts RangeOptions) []AvailableDate {
	days := opts.Days
	if days <= 0 {
		days = e.rangeDays
	}

	first := e.Today()
	if !opts.IncludeToday {
		first = first.AddDate(0, 0, 1)
	}

	out := make([]AvailableDate, 0, days)
	for i := 0; i < days; i++ {
		day := first.AddDate(0, 0, i)
		status, reason := e.DateStatus(day, snap, duration, mode)
		out = append(out, AvailableDate{
			Date:      day,
			Label:     day.Format("Mon, Jan 2"),
			DayOfWeek: int(day.Weekday()),
			Status:    status,
			Reason:    reason,
		})
	}
	return out
}

// SuggestNextAvailableDate returns the first available entry strictly after
// after, or false when the horizon has none.
func SuggestNextAvailableDate(dates []AvailableDate, after time.Time) (AvailableDate, bool) {
	key := dayKey(after)
	for _, d := range dates {
		if d.Status == DateAvailable && dayKey(d.Date) > key {
			return d, true
		}
	}
	return AvailableDate{}, false
}
