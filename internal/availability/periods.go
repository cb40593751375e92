package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

type PeriodStatus string

const (
	PeriodAvailable PeriodStatus = "available"
	PeriodFull      PeriodStatus = "full"
	PeriodClosed    PeriodStatus = "closed"
)

type AvailablePeriod struct {
	Period            domain.WorkingPeriod `json:"period"`
	Status            PeriodStatus         `json:"status"`
	AvailableSlots    int                  `json:"available_slots"`
	NextAvailableTime string               `json:"next_available_time,omitempty"`
}

// PeriodsForDate returns the working periods configured for date's weekday,
// ordered by start time.
func PeriodsForDate(date time.Time, periods []domain.WorkingPeriod) []domain.WorkingPeriod {
	wd := int(date.Weekday())
	out := make([]domain.WorkingPeriod, 0, 4)
	for _, p := range periods {
		if p.DayOfWeek == wd {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return TimeToMinutes(out[i].StartTime) < TimeToMinutes(out[j].StartTime)
	})
	return out
}

// FindPeriod looks up a period by id among periods.
func FindPeriod(periods []domain.WorkingPeriod, id uuid.UUID) (domain.WorkingPeriod, bool) {
	for _, p := range periods {
		if p.ID == id {
			return p, true
		}
	}
	return domain.WorkingPeriod{}, false
}

// CalculateNextAvailableTime returns the earliest available slot time.
func CalculateNextAvailableTime(slots []TimeSlot) (string, bool) {
	for _, s := range slots {
		if s.Available {
			return s.Time, true
		}
	}
	return "", false
}

// SummarizePeriod reduces a period's slots into its availability.
func SummarizePeriod(period domain.WorkingPeriod, slots []TimeSlot) AvailablePeriod {
	out := AvailablePeriod{Period: period, Status: PeriodFull}
	for _, s := range slots {
		if s.Available {
			out.AvailableSlots++
		}
	}
	if next, ok := CalculateNextAvailableTime(slots); ok {
		out.Status = PeriodAvailable
		out.NextAvailableTime = next
	}
	return out
}

// PeriodAvailability summarizes every period of date. Periods of a past
// date, or of a holiday in public mode, are reported closed.
func (e *Engine) PeriodAvailability(date time.Time, snap Snapshot, duration int, mode Mode) []AvailablePeriod {
	day := e.Day(date)
	periods := PeriodsForDate(day, snap.Periods)
	out := make([]AvailablePeriod, 0, len(periods))

	closed := day.Before(e.Today())
	if !closed && mode != ModeInternal {
		_, closed = FindHoliday(day, snap.Holidays)
	}
	if closed {
		for _, p := range periods {
			out = append(out, AvailablePeriod{Period: p, Status: PeriodClosed})
		}
		return out
	}

	duration = e.normalizeDuration(duration)
	busy := e.busyIntervals(day, snap, uuid.Nil)
	for _, p := range periods {
		out = append(out, SummarizePeriod(p, e.timeSlots(day, p, busy, duration)))
	}
	return out
}
