package availability

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

func TestTimeSlots_MorningScenario(t *testing.T) {
	e := newTestEngine(testNow)
	tuesday := date(2026, 3, 3)
	snap := testSnapshot(confirmed(tuesday, "09:00", consultID))
	morning := testPeriods()[2]

	slots := e.TimeSlots(tuesday, morning, snap, 30)

	if len(slots) != 11 {
		t.Fatalf("len(slots) = %d, want 11", len(slots))
	}
	if slots[0].Time != "09:00" || slots[len(slots)-1].Time != "11:30" {
		t.Fatalf("slot range = %s..%s, want 09:00..11:30", slots[0].Time, slots[len(slots)-1].Time)
	}
	for i := 1; i < len(slots); i++ {
		if TimeToMinutes(slots[i].Time)-TimeToMinutes(slots[i-1].Time) != 15 {
			t.Fatalf("slots not on 15 minute grid: %s then %s", slots[i-1].Time, slots[i].Time)
		}
	}

	if slots[0].Available {
		t.Fatalf("09:00 should conflict")
	}
	if !strings.Contains(slots[0].Reason, "9:00 AM") {
		t.Fatalf("reason = %q, want mention of 9:00 AM", slots[0].Reason)
	}
	if slots[1].Available {
		t.Fatalf("09:15 overlaps 09:00-09:30 and should conflict")
	}
	if !slots[2].Available || slots[2].Time != "09:30" {
		t.Fatalf("09:30 should be the first free slot, got %+v", slots[2])
	}
	if next, ok := CalculateNextAvailableTime(slots); !ok || next != "09:30" {
		t.Fatalf("next available = %q, %v, want 09:30", next, ok)
	}
}

func TestTimeSlots_IgnoresNonConfirmedAppointments(t *testing.T) {
	e := newTestEngine(testNow)
	tuesday := date(2026, 3, 3)

	statuses := []domain.AppointmentStatus{
		domain.AppointmentStatusPending,
		domain.AppointmentStatusPostponed,
		domain.AppointmentStatusCancelled,
		domain.AppointmentStatusCompleted,
		domain.AppointmentStatusNoShow,
	}
	var appts []domain.Appointment
	for _, st := range statuses {
		a := confirmed(tuesday, "09:00", consultID)
		a.Status = st
		appts = append(appts, a)
	}

	slots := e.TimeSlots(tuesday, testPeriods()[2], testSnapshot(appts...), 30)
	for _, s := range slots {
		if !s.Available {
			t.Fatalf("slot %s blocked by a non-confirmed appointment", s.Time)
		}
	}
}

func TestTimeSlots_IgnoresOtherDates(t *testing.T) {
	e := newTestEngine(testNow)
	snap := testSnapshot(confirmed(date(2026, 3, 10), "09:00", consultID))

	slots := e.TimeSlots(date(2026, 3, 3), testPeriods()[2], snap, 30)
	if !slots[0].Available {
		t.Fatalf("appointment on another date blocked 09:00")
	}
}

func TestTimeSlots_UsesAppointmentServiceDuration(t *testing.T) {
	e := newTestEngine(testNow)
	tuesday := date(2026, 3, 3)
	// A 60 minute check-up at 10:00 blocks until 11:00 even though the
	// requested duration is only 15 minutes.
	snap := testSnapshot(confirmed(tuesday, "10:00", longID))

	slots := e.TimeSlots(tuesday, testPeriods()[2], snap, 15)
	byTime := make(map[string]TimeSlot, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s
	}

	if !byTime["09:45"].Available {
		t.Fatalf("09:45-10:00 touches 10:00 and should be free")
	}
	for _, at := range []string{"10:00", "10:15", "10:30", "10:45"} {
		if byTime[at].Available {
			t.Fatalf("%s should be blocked by the check-up", at)
		}
	}
	if !byTime["11:00"].Available {
		t.Fatalf("11:00 should be free")
	}
}

func TestTimeSlots_UnknownServiceFallsBackToDefaultDuration(t *testing.T) {
	e := newTestEngine(testNow)
	tuesday := date(2026, 3, 3)
	snap := testSnapshot(confirmed(tuesday, "10:00", uuid.New()))

	slots := e.TimeSlots(tuesday, testPeriods()[2], snap, 15)
	byTime := make(map[string]TimeSlot, len(slots))
	for _, s := range slots {
		byTime[s.Time] = s
	}
	if byTime["10:15"].Available {
		t.Fatalf("10:15 should fall inside the default 30 minute block")
	}
	if !byTime["10:30"].Available {
		t.Fatalf("10:30 should be free after the default 30 minute block")
	}
}

func TestTimeSlots_DropsPastTimesToday(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 20, 0, 0, time.UTC)
	e := newTestEngine(now)

	slots := e.TimeSlots(date(2026, 3, 2), testPeriods()[1], testSnapshot(), 30)
	if len(slots) == 0 {
		t.Fatalf("expected slots")
	}
	if slots[0].Time != "09:30" {
		t.Fatalf("first slot = %s, want 09:30", slots[0].Time)
	}

	exact := newTestEngine(time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC))
	slots = exact.TimeSlots(date(2026, 3, 2), testPeriods()[1], testSnapshot(), 30)
	if slots[0].Time != "09:45" {
		t.Fatalf("slot at the current minute must be dropped, first = %s", slots[0].Time)
	}
}

func TestTimeSlots_DurationLongerThanPeriod(t *testing.T) {
	e := newTestEngine(testNow)
	slots := e.TimeSlots(date(2026, 3, 4), testPeriods()[3], testSnapshot(), 90)
	if len(slots) != 0 {
		t.Fatalf("len(slots) = %d, want 0", len(slots))
	}
}

func TestTimeSlots_ConfigurableIncrement(t *testing.T) {
	e := newTestEngine(testNow, WithSlotIncrement(30))
	slots := e.TimeSlots(date(2026, 3, 3), testPeriods()[2], testSnapshot(), 30)
	if len(slots) != 6 {
		t.Fatalf("len(slots) = %d, want 6", len(slots))
	}
}

func TestTimeSlots_ZeroDurationUsesDefault(t *testing.T) {
	e := newTestEngine(testNow)
	slots := e.TimeSlots(date(2026, 3, 4), testPeriods()[3], testSnapshot(), 0)
	// 09:00-10:00 with the default 30 minutes: 09:00, 09:15, 09:30.
	if len(slots) != 3 {
		t.Fatalf("len(slots) = %d, want 3", len(slots))
	}
}
