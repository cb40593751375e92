package postgres

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"clinicsched/internal/domain"
	"clinicsched/internal/store"
)

const (
	pgExclusionViolation = "23P01"
	overlapConstraint    = "appointments_no_overlap"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type bookingTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) ListConfirmed(ctx context.Context, from, to time.Time) ([]domain.Appointment, error) {
	return listConfirmed(ctx, r.db, from, to)
}

func (r *AppointmentRepo) Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, r.db.NewSelect(), id)
}

func (r *AppointmentRepo) InDateTransaction(ctx context.Context, dates []time.Time, fn func(ctx context.Context, tx store.BookingTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, key := range dateLockKeys(dates) {
			if err := lockCalendarDay(ctx, tx, key); err != nil {
				return err
			}
		}
		return fn(ctx, bookingTx{tx: tx})
	})
}

// dateLockKeys dedupes dates and orders them so that concurrent transactions
// always acquire day locks in the same order.
func dateLockKeys(dates []time.Time) []string {
	seen := make(map[string]struct{}, len(dates))
	keys := make([]string, 0, len(dates))
	for _, d := range dates {
		k := "appointments:" + sqlDate(d)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lockCalendarDay(ctx context.Context, tx bun.Tx, key string) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx)
	return err
}

func listConfirmed(ctx context.Context, db bun.IDB, from, to time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := db.NewSelect().
		Model(&rows).
		Where("status = ?", domain.AppointmentStatusConfirmed).
		Where("appointment_date >= ?::date", sqlDate(from)).
		Where("appointment_date <= ?::date", sqlDate(to)).
		OrderExpr("appointment_date ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func getAppointment(ctx context.Context, q *bun.SelectQuery, id uuid.UUID) (domain.Appointment, error) {
	var out domain.Appointment
	err := q.Model(&out).Where("id = ?", id).Limit(1).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return out, nil
}

func (t bookingTx) ListConfirmedOn(ctx context.Context, date time.Time) ([]domain.Appointment, error) {
	return listConfirmed(ctx, t.tx, date, date)
}

func (t bookingTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	return getAppointment(ctx, t.tx.NewSelect().For("UPDATE"), id)
}

// CreateAppointment inserts appt. Re-submitting an id that already exists
// with identical booking details returns the stored row; different details
// fail with store.ErrIdempotencyConflict.
func (t bookingTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	m.AppointmentDate = domain.CivilDate(appt.AppointmentDate, time.UTC)

	res, err := t.tx.NewInsert().
		Model(&m).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		existing, err := getAppointment(ctx, t.tx.NewSelect(), m.ID)
		if err != nil {
			return domain.Appointment{}, err
		}
		if !sameBooking(existing, m) {
			return domain.Appointment{}, store.ErrIdempotencyConflict
		}
		return existing, nil
	}
	return m, nil
}

func (t bookingTx) UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := appt
	m.AppointmentDate = domain.CivilDate(appt.AppointmentDate, time.UTC)

	res, err := t.tx.NewUpdate().
		Model(&m).
		Column("patient_name", "appointment_date", "start_time", "end_time", "service_id", "status", "notes", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapWriteError(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return domain.Appointment{}, err
	}
	if affected == 0 {
		return domain.Appointment{}, store.ErrNotFound
	}
	return m, nil
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgExclusionViolation && pgErr.ConstraintName == overlapConstraint {
		return store.ErrConflict
	}
	return err
}

func sameBooking(a, b domain.Appointment) bool {
	return a.PatientName == b.PatientName &&
		domain.SameDay(a.AppointmentDate, b.AppointmentDate) &&
		a.StartTime == b.StartTime &&
		a.EndTime == b.EndTime &&
		a.ServiceID == b.ServiceID &&
		a.Notes == b.Notes
}
