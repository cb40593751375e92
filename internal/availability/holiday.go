package availability

import (
	"time"

	"clinicsched/internal/domain"
)

// FindHoliday returns the first holiday in list order that covers date.
// Overlapping records are not ranked; order is the only precedence.
func FindHoliday(date time.Time, holidays []domain.Holiday) (domain.Holiday, bool) {
	for _, h := range holidays {
		if holidayCovers(h, date) {
			return h, true
		}
	}
	return domain.Holiday{}, false
}

// HolidayReason is the user facing explanation for a closure.
func HolidayReason(h domain.Holiday) string {
	if h.Note == "" {
		return "Holiday"
	}
	return h.Note
}

func holidayCovers(h domain.Holiday, date time.Time) bool {
	if h.Date != nil && domain.SameDay(*h.Date, date) {
		return true
	}

	if h.StartDate != nil {
		end := *h.StartDate
		if h.EndDate != nil {
			end = *h.EndDate
		}
		key := dayKey(date)
		if key >= dayKey(*h.StartDate) && key <= dayKey(end) {
			return true
		}
	}

	if h.Type == domain.HolidayTypeRecurringAnnual &&
		h.RecurringStartMonth != nil && h.RecurringStartDay != nil &&
		h.RecurringEndMonth != nil && h.RecurringEndDay != nil {
		md := int(date.Month())*100 + date.Day()
		start := *h.RecurringStartMonth*100 + *h.RecurringStartDay
		end := *h.RecurringEndMonth*100 + *h.RecurringEndDay
		if start <= end {
			return md >= start && md <= end
		}
		// Wraps across New Year, e.g. Dec 20 -> Jan 5.
		return md >= start || md <= end
	}

	return false
}

func dayKey(t time.Time) int {
	y, m, d := t.Date()
	return y*10000 + int(m)*100 + d
}
