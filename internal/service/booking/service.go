// Package booking hosts the availability engine behind the clinic's stores:
// it loads the snapshot each query needs and guards every write with a
// date-scoped transaction that re-validates before inserting.
package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
	"clinicsched/internal/store"
)

const maxIdempotencyKeyLen = 256

// MaxRangeDays bounds an explicit staff horizon. Public callers never see
// past the engine's configured range.
const MaxRangeDays = 366

type Config struct {
	// IncludeToday starts public date ranges today instead of tomorrow.
	IncludeToday bool
}

type Service struct {
	engine   *availability.Engine
	schedule store.ScheduleReader
	appts    store.AppointmentRepository
	log      zerolog.Logger
	cfg      Config
}

func NewService(engine *availability.Engine, schedule store.ScheduleReader, appts store.AppointmentRepository, log zerolog.Logger, cfg Config) *Service {
	return &Service{
		engine:   engine,
		schedule: schedule,
		appts:    appts,
		log:      log.With().Str("component", "booking").Logger(),
		cfg:      cfg,
	}
}

type AvailabilityQuery struct {
	ServiceID    uuid.UUID
	Mode         availability.Mode
	Days         int
	IncludeToday *bool
}

type BookInput struct {
	PatientName    string
	Date           time.Time
	StartTime      string
	ServiceID      uuid.UUID
	PeriodID       uuid.UUID
	Mode           availability.Mode
	Notes          string
	IdempotencyKey string
}

type RescheduleInput struct {
	Date      time.Time
	StartTime string
	PeriodID  uuid.UUID
	Mode      availability.Mode
}

// Availability lists the booking horizon with a status per date.
func (s *Service) Availability(ctx context.Context, q AvailabilityQuery) ([]availability.AvailableDate, error) {
	opts := availability.RangeOptions{Days: q.Days, IncludeToday: s.cfg.IncludeToday}
	if q.IncludeToday != nil {
		opts.IncludeToday = *q.IncludeToday
	}
	switch {
	case opts.Days < 0:
		return nil, validationError("days must not be negative")
	case opts.Days > MaxRangeDays:
		return nil, validationError(fmt.Sprintf("days must not exceed %d", MaxRangeDays))
	case q.Mode != availability.ModeInternal && opts.Days > s.engine.RangeDays():
		opts.Days = s.engine.RangeDays()
	}
	first, last := s.horizon(opts)

	snap, err := s.snapshot(ctx, first, last)
	if err != nil {
		return nil, err
	}
	duration, err := s.serviceDuration(q.ServiceID, snap.Services)
	if err != nil {
		return nil, err
	}
	return s.engine.AvailableDates(snap, duration, q.Mode, opts), nil
}

// SuggestNext returns the first available date strictly after after within
// the booking horizon.
func (s *Service) SuggestNext(ctx context.Context, after time.Time, serviceID uuid.UUID, mode availability.Mode) (availability.AvailableDate, bool, error) {
	if after.IsZero() {
		return availability.AvailableDate{}, false, validationError("date is required")
	}
	dates, err := s.Availability(ctx, AvailabilityQuery{ServiceID: serviceID, Mode: mode})
	if err != nil {
		return availability.AvailableDate{}, false, err
	}
	next, ok := availability.SuggestNextAvailableDate(dates, s.engine.Day(after))
	return next, ok, nil
}

func (s *Service) Periods(ctx context.Context, date time.Time, serviceID uuid.UUID, mode availability.Mode) ([]availability.AvailablePeriod, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	snap, err := s.snapshot(ctx, date, date)
	if err != nil {
		return nil, err
	}
	duration, err := s.serviceDuration(serviceID, snap.Services)
	if err != nil {
		return nil, err
	}
	return s.engine.PeriodAvailability(date, snap, duration, mode), nil
}

// Slots lists candidate start times in one period. Closed dates (past, or a
// holiday in public mode) have no slots.
func (s *Service) Slots(ctx context.Context, date time.Time, periodID uuid.UUID, serviceID uuid.UUID, mode availability.Mode) ([]availability.TimeSlot, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	if periodID == uuid.Nil {
		return nil, validationError("period_id is required")
	}
	snap, err := s.snapshot(ctx, date, date)
	if err != nil {
		return nil, err
	}
	duration, err := s.serviceDuration(serviceID, snap.Services)
	if err != nil {
		return nil, err
	}

	day := s.engine.Day(date)
	period, ok := availability.FindPeriod(availability.PeriodsForDate(day, snap.Periods), periodID)
	if !ok {
		return nil, validationError(availability.ErrMsgUnknownPeriod)
	}
	if day.Before(s.engine.Today()) {
		return []availability.TimeSlot{}, nil
	}
	if _, closed := availability.FindHoliday(day, snap.Holidays); closed && mode != availability.ModeInternal {
		return []availability.TimeSlot{}, nil
	}
	slots := s.engine.TimeSlots(day, period, snap, duration)
	if slots == nil {
		slots = []availability.TimeSlot{}
	}
	return slots, nil
}

// Validate runs the booking validator against current data without writing.
func (s *Service) Validate(ctx context.Context, in BookInput) (availability.BookingValidation, error) {
	if in.Date.IsZero() {
		return availability.BookingValidation{}, validationError("date is required")
	}
	snap, err := s.snapshot(ctx, in.Date, in.Date)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	req, err := s.bookingRequest(in, snap.Services, uuid.Nil)
	if err != nil {
		return availability.BookingValidation{}, err
	}
	return s.engine.ValidateBooking(req, snap), nil
}

// Book validates the request, then re-validates and inserts inside a
// transaction that holds the date's lock. The database exclusion constraint
// remains the final arbiter.
func (s *Service) Book(ctx context.Context, in BookInput) (domain.Appointment, error) {
	name := strings.TrimSpace(in.PatientName)
	if name == "" {
		return domain.Appointment{}, validationError("patient_name is required")
	}
	if in.Date.IsZero() {
		return domain.Appointment{}, validationError("date is required")
	}

	id, err := idempotentID("book", in.IdempotencyKey)
	if err != nil {
		return domain.Appointment{}, err
	}

	snap, err := s.snapshot(ctx, in.Date, in.Date)
	if err != nil {
		return domain.Appointment{}, err
	}
	req, err := s.bookingRequest(in, snap.Services, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if v := s.engine.ValidateBooking(req, snap); !v.IsValid {
		s.log.Info().Str("date", sqlDate(req.Date)).Str("start_time", in.StartTime).Str("reason", v.FirstError()).Msg("booking rejected")
		return domain.Appointment{}, &RejectedError{Validation: v}
	}

	start := canonicalClock(in.StartTime)
	appt := domain.Appointment{
		ID:              id,
		PatientName:     name,
		AppointmentDate: s.engine.Day(in.Date),
		StartTime:       start,
		EndTime:         availability.CalculateEndTime(start, req.Duration),
		ServiceID:       in.ServiceID,
		Status:          domain.AppointmentStatusConfirmed,
		Notes:           strings.TrimSpace(in.Notes),
	}

	var out domain.Appointment
	err = s.appts.InDateTransaction(ctx, []time.Time{appt.AppointmentDate}, func(ctx context.Context, tx store.BookingTx) error {
		confirmed, err := tx.ListConfirmedOn(ctx, appt.AppointmentDate)
		if err != nil {
			return err
		}
		snap.Appointments = confirmed
		if v := s.engine.ValidateBooking(req, snap); !v.IsValid {
			return &RejectedError{Validation: v}
		}
		created, err := tx.CreateAppointment(ctx, appt)
		if err != nil {
			return err
		}
		out = created
		return nil
	})
	if err != nil {
		return domain.Appointment{}, s.writeError(err, "book")
	}

	s.log.Info().
		Str("appointment_id", out.ID.String()).
		Str("date", sqlDate(out.AppointmentDate)).
		Str("start_time", out.StartTime).
		Str("mode", string(req.Mode)).
		Msg("appointment booked")
	return out, nil
}

// Reschedule moves an appointment to a new date and time. The appointment
// itself is ignored when checking for conflicts.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, in RescheduleInput) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	if in.Date.IsZero() {
		return domain.Appointment{}, validationError("date is required")
	}

	current, err := s.appts.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}
	if !reschedulable(current.Status) {
		return domain.Appointment{}, validationError(fmt.Sprintf("appointment in status %s cannot be rescheduled", current.Status))
	}

	target := s.engine.Day(in.Date)
	snap, err := s.snapshot(ctx, target, target)
	if err != nil {
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	dates := []time.Time{s.engine.Day(current.AppointmentDate), target}
	err = s.appts.InDateTransaction(ctx, dates, func(ctx context.Context, tx store.BookingTx) error {
		locked, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		if !domain.SameDay(locked.AppointmentDate, current.AppointmentDate) {
			// Moved concurrently; the lock set no longer covers it.
			return store.ErrConflict
		}
		if !reschedulable(locked.Status) {
			return validationError(fmt.Sprintf("appointment in status %s cannot be rescheduled", locked.Status))
		}

		req, err := s.bookingRequest(BookInput{
			Date:      target,
			StartTime: in.StartTime,
			ServiceID: locked.ServiceID,
			PeriodID:  in.PeriodID,
			Mode:      in.Mode,
		}, snap.Services, locked.ID)
		if err != nil {
			return err
		}

		confirmed, err := tx.ListConfirmedOn(ctx, target)
		if err != nil {
			return err
		}
		snap.Appointments = confirmed
		if v := s.engine.ValidateBooking(req, snap); !v.IsValid {
			return &RejectedError{Validation: v}
		}

		start := canonicalClock(in.StartTime)
		locked.AppointmentDate = target
		locked.StartTime = start
		locked.EndTime = availability.CalculateEndTime(start, req.Duration)
		locked.Status = domain.AppointmentStatusConfirmed
		updated, err := tx.UpdateAppointment(ctx, locked)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Appointment{}, s.writeError(err, "reschedule")
	}

	s.log.Info().
		Str("appointment_id", out.ID.String()).
		Str("date", sqlDate(out.AppointmentDate)).
		Str("start_time", out.StartTime).
		Msg("appointment rescheduled")
	return out, nil
}

// Cancel marks an appointment cancelled, which frees its slot. Cancelling a
// cancelled appointment is a no-op.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	current, err := s.appts.Get(ctx, id)
	if err != nil {
		return domain.Appointment{}, err
	}

	var out domain.Appointment
	err = s.appts.InDateTransaction(ctx, []time.Time{current.AppointmentDate}, func(ctx context.Context, tx store.BookingTx) error {
		locked, err := tx.GetAppointment(ctx, id)
		if err != nil {
			return err
		}
		switch locked.Status {
		case domain.AppointmentStatusCancelled:
			out = locked
			return nil
		case domain.AppointmentStatusCompleted, domain.AppointmentStatusNoShow:
			return validationError(fmt.Sprintf("appointment in status %s cannot be cancelled", locked.Status))
		}
		locked.Status = domain.AppointmentStatusCancelled
		updated, err := tx.UpdateAppointment(ctx, locked)
		if err != nil {
			return err
		}
		out = updated
		return nil
	})
	if err != nil {
		return domain.Appointment{}, s.writeError(err, "cancel")
	}

	s.log.Info().Str("appointment_id", out.ID.String()).Msg("appointment cancelled")
	return out, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	if id == uuid.Nil {
		return domain.Appointment{}, validationError("appointment_id is required")
	}
	return s.appts.Get(ctx, id)
}

// DayAppointments lists the confirmed appointments on date.
func (s *Service) DayAppointments(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	if date.IsZero() {
		return nil, validationError("date is required")
	}
	day := s.engine.Day(date)
	return s.appts.ListConfirmed(ctx, day, day)
}

func (s *Service) horizon(opts availability.RangeOptions) (time.Time, time.Time) {
	days := opts.Days
	if days <= 0 {
		days = s.engine.RangeDays()
	}
	first := s.engine.Today()
	if !opts.IncludeToday {
		first = first.AddDate(0, 0, 1)
	}
	return first, first.AddDate(0, 0, days-1)
}

func (s *Service) snapshot(ctx context.Context, from, to time.Time) (availability.Snapshot, error) {
	periods, err := s.schedule.ListWorkingPeriods(ctx)
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("load working periods: %w", err)
	}
	holidays, err := s.schedule.ListHolidays(ctx)
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("load holidays: %w", err)
	}
	services, err := s.schedule.ListServices(ctx)
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("load services: %w", err)
	}
	appts, err := s.appts.ListConfirmed(ctx, s.engine.Day(from), s.engine.Day(to))
	if err != nil {
		return availability.Snapshot{}, fmt.Errorf("load appointments: %w", err)
	}
	return availability.Snapshot{
		Periods:      periods,
		Holidays:     holidays,
		Services:     services,
		Appointments: appts,
	}, nil
}

// serviceDuration resolves the requested service. No service means the
// default duration; an unknown one is an input error.
func (s *Service) serviceDuration(serviceID uuid.UUID, services []domain.Service) (int, error) {
	if serviceID == uuid.Nil {
		return s.engine.DefaultDuration(), nil
	}
	for _, svc := range services {
		if svc.ID == serviceID {
			return s.engine.DurationFor(serviceID, services), nil
		}
	}
	return 0, validationError("unknown service_id")
}

func (s *Service) bookingRequest(in BookInput, services []domain.Service, exclude uuid.UUID) (availability.BookingRequest, error) {
	duration, err := s.serviceDuration(in.ServiceID, services)
	if err != nil {
		return availability.BookingRequest{}, err
	}
	mode := in.Mode
	if mode == "" {
		mode = availability.ModePublic
	}
	return availability.BookingRequest{
		Date:                 in.Date,
		StartTime:            in.StartTime,
		Duration:             duration,
		Mode:                 mode,
		PeriodID:             in.PeriodID,
		ExcludeAppointmentID: exclude,
	}, nil
}

// writeError translates store failures from a guarded write into service
// errors and logs anything unexpected.
func (s *Service) writeError(err error, op string) error {
	var rejected *RejectedError
	var invalid *ValidationError
	switch {
	case errors.As(err, &rejected):
		s.log.Info().Str("op", op).Str("reason", rejected.Error()).Msg("booking rejected on recheck")
		return err
	case errors.As(err, &invalid), errors.Is(err, store.ErrNotFound):
		return err
	case errors.Is(err, store.ErrConflict):
		s.log.Warn().Str("op", op).Msg("slot taken concurrently")
		return fmt.Errorf("%w: %w", ErrSlotUnavailable, err)
	case errors.Is(err, store.ErrIdempotencyConflict):
		return validationError("idempotency_key was already used for a different booking")
	default:
		s.log.Error().Err(err).Str("op", op).Msg("booking write failed")
		return err
	}
}

func reschedulable(status domain.AppointmentStatus) bool {
	switch status {
	case domain.AppointmentStatusConfirmed, domain.AppointmentStatusPending, domain.AppointmentStatusPostponed:
		return true
	}
	return false
}

// idempotentID derives a stable appointment id from a client supplied key so
// that retries hit the same row. An empty key yields uuid.Nil and the store
// assigns a fresh id.
func idempotentID(scope, key string) (uuid.UUID, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return uuid.Nil, nil
	}
	if len(key) > maxIdempotencyKeyLen {
		return uuid.Nil, validationError("idempotency_key too long")
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("clinicsched:"+scope+":"+key)), nil
}

// canonicalClock rewrites a valid start time as "HH:MM". Invalid input is
// returned unchanged; validation rejects it before it is stored.
func canonicalClock(s string) string {
	m, err := availability.ParseClock(s)
	if err != nil {
		return s
	}
	return availability.MinutesToTime(m)
}

func sqlDate(t time.Time) string {
	return t.Format("2006-01-02")
}
