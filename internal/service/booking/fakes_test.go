package booking

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
	"clinicsched/internal/store"
)

var (
	consultID = uuid.MustParse("00000000-0000-0000-0000-00000000c001")
	longID    = uuid.MustParse("00000000-0000-0000-0000-00000000c002")

	mondayMorningID    = uuid.MustParse("00000000-0000-0000-0000-00000000a001")
	tuesdayMorningID   = uuid.MustParse("00000000-0000-0000-0000-00000000a002")
	tuesdayAfternoonID = uuid.MustParse("00000000-0000-0000-0000-00000000a003")
)

// Monday 2 March 2026, 08:00 UTC.
var testNow = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fakeSchedule struct {
	periods  []domain.WorkingPeriod
	holidays []domain.Holiday
	services []domain.Service

	listWorkingPeriodsFn func(ctx context.Context) ([]domain.WorkingPeriod, error)
}

func newFakeSchedule() *fakeSchedule {
	return &fakeSchedule{
		periods: []domain.WorkingPeriod{
			{ID: mondayMorningID, Name: "Morning", StartTime: "09:00", EndTime: "12:00", DayOfWeek: 1},
			{ID: tuesdayMorningID, Name: "Morning", StartTime: "09:00", EndTime: "12:00", DayOfWeek: 2},
			{ID: tuesdayAfternoonID, Name: "Afternoon", StartTime: "14:00", EndTime: "17:00", DayOfWeek: 2},
		},
		services: []domain.Service{
			{ID: consultID, Name: "Consultation", Duration: 30},
			{ID: longID, Name: "Full check-up", Duration: 60},
		},
	}
}

func (f *fakeSchedule) ListWorkingPeriods(ctx context.Context) ([]domain.WorkingPeriod, error) {
	if f.listWorkingPeriodsFn != nil {
		return f.listWorkingPeriodsFn(ctx)
	}
	return f.periods, nil
}

func (f *fakeSchedule) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	return f.holidays, nil
}

func (f *fakeSchedule) ListServices(ctx context.Context) ([]domain.Service, error) {
	return f.services, nil
}

// memStore is an in-memory AppointmentRepository. Transactions roll back on
// error and CreateAppointment enforces the same no-overlap rule as the
// database constraint.
type memStore struct {
	mu    sync.Mutex
	appts map[uuid.UUID]domain.Appointment

	txCount     int
	lockedDates [][]string

	listConfirmedFn func(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)
	createFn        func(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}

func newMemStore(appts ...domain.Appointment) *memStore {
	m := &memStore{appts: map[uuid.UUID]domain.Appointment{}}
	for _, a := range appts {
		m.appts[a.ID] = a
	}
	return m
}

func (m *memStore) ListConfirmed(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	if m.listConfirmedFn != nil {
		return m.listConfirmedFn(ctx, from, to)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.confirmedBetween(from, to), nil
}

func (m *memStore) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (m *memStore) InDateTransaction(ctx context.Context, dates []time.Time, fn func(ctx context.Context, tx store.BookingTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		keys = append(keys, d.Format("2006-01-02"))
	}
	m.txCount++
	m.lockedDates = append(m.lockedDates, keys)

	saved := make(map[uuid.UUID]domain.Appointment, len(m.appts))
	for k, v := range m.appts {
		saved[k] = v
	}
	if err := fn(ctx, memTx{m: m}); err != nil {
		m.appts = saved
		return err
	}
	return nil
}

func (m *memStore) confirmedBetween(from, to time.Time) []domain.Appointment {
	lo, hi := from.Format("2006-01-02"), to.Format("2006-01-02")
	var out []domain.Appointment
	for _, a := range m.appts {
		d := a.AppointmentDate.Format("2006-01-02")
		if a.IsConfirmed() && d >= lo && d <= hi {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out
}

func (m *memStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.appts)
}

type memTx struct {
	m *memStore
}

func (t memTx) ListConfirmedOn(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	return t.m.confirmedBetween(date, date), nil
}

func (t memTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	a, ok := t.m.appts[id]
	if !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	return a, nil
}

func (t memTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if t.m.createFn != nil {
		return t.m.createFn(ctx, appt)
	}
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if existing, ok := t.m.appts[appt.ID]; ok {
		if existing.PatientName != appt.PatientName || existing.StartTime != appt.StartTime ||
			!domain.SameDay(existing.AppointmentDate, appt.AppointmentDate) {
			return domain.Appointment{}, store.ErrIdempotencyConflict
		}
		return existing, nil
	}
	if t.overlaps(appt) {
		return domain.Appointment{}, store.ErrConflict
	}
	t.m.appts[appt.ID] = appt
	return appt, nil
}

func (t memTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	if _, ok := t.m.appts[appt.ID]; !ok {
		return domain.Appointment{}, store.ErrNotFound
	}
	if appt.IsConfirmed() && t.overlaps(appt) {
		return domain.Appointment{}, store.ErrConflict
	}
	t.m.appts[appt.ID] = appt
	return appt, nil
}

func (t memTx) overlaps(appt domain.Appointment) bool {
	for _, other := range t.m.appts {
		if other.ID == appt.ID || !other.IsConfirmed() || !domain.SameDay(other.AppointmentDate, appt.AppointmentDate) {
			continue
		}
		if availability.IntervalsOverlap(
			availability.TimeToMinutes(appt.StartTime), availability.TimeToMinutes(appt.EndTime),
			availability.TimeToMinutes(other.StartTime), availability.TimeToMinutes(other.EndTime),
		) {
			return true
		}
	}
	return false
}

func newTestService(schedule *fakeSchedule, appts *memStore) *Service {
	engine := availability.New(
		availability.WithClock(func() time.Time { return testNow }),
		availability.WithLocation(time.UTC),
	)
	return NewService(engine, schedule, appts, zerolog.Nop(), Config{})
}

func booked(d time.Time, start string, serviceID uuid.UUID) domain.Appointment {
	duration := 30
	if serviceID == longID {
		duration = 60
	}
	return domain.Appointment{
		ID:              uuid.New(),
		PatientName:     "Existing",
		AppointmentDate: d,
		StartTime:       start,
		EndTime:         availability.CalculateEndTime(start, duration),
		ServiceID:       serviceID,
		Status:          domain.AppointmentStatusConfirmed,
	}
}
