package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"clinicsched/internal/domain"
)

func weeklyRule(count int) domain.WeeklyRule {
	return domain.WeeklyRule{
		Start:     date(2026, 3, 3),
		ByWeekday: []int16{2},
		Count:     &count,
	}
}

func TestBookSeries(t *testing.T) {
	schedule := newFakeSchedule()
	// Internal series ignore holidays.
	holiday := date(2026, 3, 10)
	schedule.holidays = []domain.Holiday{{Type: domain.HolidayTypeSingle, Date: &holiday}}
	appts := newMemStore()
	svc := newTestService(schedule, appts)

	got, err := svc.BookSeries(context.Background(), SeriesInput{
		PatientName: "Ada",
		StartTime:   "09:00",
		ServiceID:   consultID,
		Rule:        weeklyRule(4),
	})
	if err != nil {
		t.Fatalf("BookSeries error: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("len = %d, want 4", len(got))
	}
	want := []string{"2026-03-03", "2026-03-10", "2026-03-17", "2026-03-24"}
	for i, a := range got {
		if a.AppointmentDate.Format("2006-01-02") != want[i] {
			t.Fatalf("occurrence %d on %s, want %s", i, a.AppointmentDate.Format("2006-01-02"), want[i])
		}
		if a.SeriesID == nil || *a.SeriesID != *got[0].SeriesID {
			t.Fatalf("occurrence %d has series %v", i, a.SeriesID)
		}
	}
	if appts.txCount != 1 || len(appts.lockedDates[0]) != 4 {
		t.Fatalf("expected one transaction locking 4 dates, got %d / %v", appts.txCount, appts.lockedDates)
	}
}

func TestBookSeries_AllOrNothing(t *testing.T) {
	appts := newMemStore(booked(date(2026, 3, 17), "09:15", consultID))
	svc := newTestService(newFakeSchedule(), appts)

	_, err := svc.BookSeries(context.Background(), SeriesInput{
		PatientName: "Ada",
		StartTime:   "09:00",
		ServiceID:   consultID,
		Rule:        weeklyRule(4),
	})
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *RejectedError", err)
	}
	if !domain.SameDay(rejected.Date, date(2026, 3, 17)) {
		t.Fatalf("rejected date = %v, want 2026-03-17", rejected.Date)
	}
	if appts.count() != 1 {
		t.Fatalf("stored %d appointments, want only the pre-existing one", appts.count())
	}
}

func TestBookSeries_RollsBackOnWriteFailure(t *testing.T) {
	appts := newMemStore()
	svc := newTestService(newFakeSchedule(), appts)
	ctx := context.Background()

	// Another client books the third Tuesday between validation and write.
	calls := 0
	appts.listConfirmedFn = func(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
		calls++
		return nil, nil
	}
	third := booked(date(2026, 3, 17), "09:00", consultID)
	appts.appts[third.ID] = third

	_, err := svc.BookSeries(ctx, SeriesInput{PatientName: "Ada", StartTime: "09:00", ServiceID: consultID, Rule: weeklyRule(4)})
	var rejected *RejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("err = %v, want *RejectedError", err)
	}
	if appts.count() != 1 {
		t.Fatalf("stored %d appointments after rollback, want 1", appts.count())
	}
	if calls == 0 {
		t.Fatalf("advisory snapshot not used")
	}
}

func TestBookSeries_InvalidRule(t *testing.T) {
	svc := newTestService(newFakeSchedule(), newMemStore())

	_, err := svc.BookSeries(context.Background(), SeriesInput{
		PatientName: "Ada",
		StartTime:   "09:00",
		Rule:        domain.WeeklyRule{Start: date(2026, 3, 3), ByWeekday: []int16{2}},
	})
	var invalid *ValidationError
	if !errors.As(err, &invalid) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
}
