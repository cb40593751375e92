package domain

import (
	"errors"
	"sort"
	"time"
)

// MaxSeriesOccurrences caps how many appointments one weekly series may
// create.
const MaxSeriesOccurrences = 26

// WeeklyRule describes a staff-booked follow-up series: every Interval weeks
// on the ISO weekdays in ByWeekday (1 = Monday .. 7 = Sunday), starting at
// Start and stopping at Until or after Count dates.
type WeeklyRule struct {
	Start     time.Time
	Interval  int
	ByWeekday []int16
	Until     *time.Time
	Count     *int
}

// GenerateWeeklyDates expands rule into calendar dates in ascending order.
// Dates are midnight in Start's location.
func GenerateWeeklyDates(rule WeeklyRule) ([]time.Time, error) {
	if rule.Start.IsZero() {
		return nil, errors.New("start date is required")
	}
	if rule.Until == nil && rule.Count == nil {
		return nil, errors.New("until or count is required")
	}
	if rule.Count != nil && *rule.Count < 1 {
		return nil, errors.New("count must be at least 1")
	}

	weekdays := make([]int16, 0, len(rule.ByWeekday))
	seen := make(map[int16]struct{}, len(rule.ByWeekday))
	for _, wd := range rule.ByWeekday {
		if wd < 1 || wd > 7 {
			return nil, errors.New("invalid weekday")
		}
		if _, ok := seen[wd]; ok {
			continue
		}
		seen[wd] = struct{}{}
		weekdays = append(weekdays, wd)
	}
	if len(weekdays) == 0 {
		weekdays = append(weekdays, isoWeekday(rule.Start.Weekday()))
	}
	sort.Slice(weekdays, func(i, j int) bool { return weekdays[i] < weekdays[j] })

	interval := rule.Interval
	if interval < 1 {
		interval = 1
	}

	start := DateOnly(rule.Start, nil)
	var until time.Time
	if rule.Until != nil {
		until = CivilDate(*rule.Until, start.Location())
		if until.Before(start) {
			return nil, errors.New("until must not be before start")
		}
	}

	startMonday := mondayOf(start)
	out := make([]time.Time, 0, 8)

	for weekIndex := 0; ; weekIndex++ {
		weekMonday := startMonday.AddDate(0, 0, weekIndex*interval*7)

		for _, wd := range weekdays {
			d := weekMonday.AddDate(0, 0, weekdayOffsetFromMonday(wd))
			if d.Before(start) {
				continue
			}
			if rule.Until != nil && d.After(until) {
				return out, nil
			}
			if rule.Count != nil && len(out) >= *rule.Count {
				return out, nil
			}
			if len(out) >= MaxSeriesOccurrences {
				return nil, errors.New("series exceeds maximum occurrences")
			}
			out = append(out, d)
		}
	}
}

func isoWeekday(wd time.Weekday) int16 {
	if wd == time.Sunday {
		return 7
	}
	return int16(wd)
}

func mondayOf(d time.Time) time.Time {
	offset := 0
	if d.Weekday() == time.Sunday {
		offset = 6
	} else {
		offset = int(d.Weekday()) - 1
	}
	return d.AddDate(0, 0, -offset)
}

func weekdayOffsetFromMonday(weekday int16) int {
	if weekday == 7 {
		return 6
	}
	return int(weekday) - 1
}
