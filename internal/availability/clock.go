package availability

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"clinicsched/internal/domain"
)

var ErrInvalidClock = errors.New("invalid time of day")

// ParseClock parses "H:MM", "HH:MM" or "HH:MM:SS" into minutes after
// midnight.
func ParseClock(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, ErrInvalidClock
	}
	if len(parts[0]) < 1 || len(parts[0]) > 2 || len(parts[1]) != 2 {
		return 0, ErrInvalidClock
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidClock
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidClock
	}
	if len(parts) == 3 {
		sec, err := strconv.Atoi(parts[2])
		if err != nil || sec < 0 || sec > 59 {
			return 0, ErrInvalidClock
		}
	}
	return h*60 + m, nil
}

// TimeToMinutes is the lenient form of ParseClock: unparseable input yields 0.
func TimeToMinutes(s string) int {
	m, err := ParseClock(s)
	if err != nil {
		return 0
	}
	return m
}

// MinutesToTime formats minutes after midnight as zero padded "HH:MM". Values
// past 23:59 are not wrapped.
func MinutesToTime(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// IntervalsOverlap tests half-open intervals [startA, endA) and
// [startB, endB). Touching endpoints do not overlap.
func IntervalsOverlap(startA, endA, startB, endB int) bool {
	return startA < endB && startB < endA
}

// IsTimeWithinPeriod is inclusive of the period start and exclusive of its
// end.
func IsTimeWithinPeriod(t string, p domain.WorkingPeriod) bool {
	m := TimeToMinutes(t)
	return m >= TimeToMinutes(p.StartTime) && m < TimeToMinutes(p.EndTime)
}

// FormatTimeDisplay renders "14:05" as "2:05 PM".
func FormatTimeDisplay(hhmm string) string {
	m := TimeToMinutes(hhmm)
	h := (m / 60) % 24
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m%60, suffix)
}

func CalculateEndTime(start string, duration int) string {
	return MinutesToTime(TimeToMinutes(start) + duration)
}
