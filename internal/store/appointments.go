package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

// ScheduleReader loads the clinic's reference data. Holidays are returned in
// insertion order, which is the precedence used when records overlap.
type ScheduleReader interface {
	ListWorkingPeriods(ctx context.Context) ([]domain.WorkingPeriod, error)
	ListHolidays(ctx context.Context) ([]domain.Holiday, error)
	ListServices(ctx context.Context) ([]domain.Service, error)
}

type AppointmentRepository interface {
	// ListConfirmed returns confirmed appointments dated from..to inclusive.
	ListConfirmed(ctx context.Context, from, to time.Time) ([]domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)

	// InDateTransaction runs fn in a transaction holding an exclusive lock on
	// each of dates. Writers touching the same date are serialized.
	InDateTransaction(ctx context.Context, dates []time.Time, fn func(ctx context.Context, tx BookingTx) error) error
}
