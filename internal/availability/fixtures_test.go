package availability

import (
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

var (
	consultID = uuid.MustParse("00000000-0000-0000-0000-00000000c001")
	longID    = uuid.MustParse("00000000-0000-0000-0000-00000000c002")

	mondayMorningID    = uuid.MustParse("00000000-0000-0000-0000-00000000a001")
	tuesdayMorningID   = uuid.MustParse("00000000-0000-0000-0000-00000000a002")
	tuesdayAfternoonID = uuid.MustParse("00000000-0000-0000-0000-00000000a003")
	wednesdayShortID   = uuid.MustParse("00000000-0000-0000-0000-00000000a004")

	testServices = []domain.Service{
		{ID: consultID, Name: "Consultation", Duration: 30},
		{ID: longID, Name: "Full check-up", Duration: 60},
	}
)

// Monday 2 March 2026, 08:00 UTC.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newTestEngine(now time.Time, opts ...Option) *Engine {
	base := []Option{
		WithClock(func() time.Time { return now }),
		WithLocation(time.UTC),
	}
	return New(append(base, opts...)...)
}

func testPeriods() []domain.WorkingPeriod {
	return []domain.WorkingPeriod{
		{ID: tuesdayAfternoonID, Name: "Afternoon", StartTime: "14:00", EndTime: "17:00", DayOfWeek: 2},
		{ID: mondayMorningID, Name: "Morning", StartTime: "09:00", EndTime: "12:00", DayOfWeek: 1},
		{ID: tuesdayMorningID, Name: "Morning", StartTime: "09:00", EndTime: "12:00", DayOfWeek: 2},
		{ID: wednesdayShortID, Name: "Early", StartTime: "09:00", EndTime: "10:00", DayOfWeek: 3},
	}
}

func confirmed(d time.Time, start string, serviceID uuid.UUID) domain.Appointment {
	return domain.Appointment{
		ID:              uuid.New(),
		AppointmentDate: d,
		StartTime:       start,
		EndTime:         CalculateEndTime(start, 30),
		ServiceID:       serviceID,
		Status:          domain.AppointmentStatusConfirmed,
	}
}

func testSnapshot(appts ...domain.Appointment) Snapshot {
	return Snapshot{
		Periods:      testPeriods(),
		Services:     testServices,
		Appointments: appts,
	}
}
