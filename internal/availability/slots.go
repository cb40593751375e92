package availability

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

type TimeSlot struct {
	Time      string `json:"time"`
	Available bool   `json:"available"`
	Reason    string `json:"reason,omitempty"`
}

type busyInterval struct {
	start int
	end   int
}

// TimeSlots enumerates candidate start times in period for a booking of
// duration minutes, stepping by the slot increment, and marks the ones that
// overlap a confirmed appointment. On today's date, candidates at or before
// the current time are dropped.
func (e *Engine) TimeSlots(date time.Time, period domain.WorkingPeriod, snap Snapshot, duration int) []TimeSlot {
	day := e.Day(date)
	busy := e.busyIntervals(day, snap, uuid.Nil)
	return e.timeSlots(day, period, busy, e.normalizeDuration(duration))
}

func (e *Engine) timeSlots(day time.Time, period domain.WorkingPeriod, busy []busyInterval, duration int) []TimeSlot {
	start := TimeToMinutes(period.StartTime)
	end := TimeToMinutes(period.EndTime)

	cutoff := -1
	if day.Equal(e.Today()) {
		cutoff = e.nowMinutes()
	}

	var slots []TimeSlot
	if end > start {
		slots = make([]TimeSlot, 0, (end-start)/e.increment+1)
	}
	for t := start; t+duration <= end; t += e.increment {
		if t <= cutoff {
			continue
		}
		slot := TimeSlot{Time: MinutesToTime(t), Available: true}
		if b, ok := firstConflict(t, t+duration, busy); ok {
			slot.Available = false
			slot.Reason = "Conflicts with appointment at " + FormatTimeDisplay(MinutesToTime(b.start))
		}
		slots = append(slots, slot)
	}
	return slots
}

// busyIntervals collects the confirmed appointments on day, each spanning its
// own service's duration, ordered by start.
func (e *Engine) busyIntervals(day time.Time, snap Snapshot, exclude uuid.UUID) []busyInterval {
	out := make([]busyInterval, 0, len(snap.Appointments))
	for _, a := range snap.Appointments {
		if !a.IsConfirmed() || !a.OnDate(day) {
			continue
		}
		if exclude != uuid.Nil && a.ID == exclude {
			continue
		}
		start := TimeToMinutes(a.StartTime)
		out = append(out, busyInterval{
			start: start,
			end:   start + e.DurationFor(a.ServiceID, snap.Services),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].start < out[j].start })
	return out
}

func firstConflict(start, end int, busy []busyInterval) (busyInterval, bool) {
	for _, b := range busy {
		if IntervalsOverlap(start, end, b.start, b.end) {
			return b, true
		}
	}
	return busyInterval{}, false
}
