package postgres

import (
	"context"

	"github.com/uptrace/bun"

	"clinicsched/internal/domain"
)

// ScheduleRepo reads the clinic's working periods, holidays and services.
type ScheduleRepo struct {
	db *bun.DB
}

func NewScheduleRepo(db *bun.DB) *ScheduleRepo {
	return &ScheduleRepo{db: db}
}

func (r *ScheduleRepo) ListWorkingPeriods(ctx context.Context) ([]domain.WorkingPeriod, error) {
	var rows []domain.WorkingPeriod
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("day_of_week ASC, start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListHolidays keeps insertion order: the first matching record wins when
// holidays overlap.
func (r *ScheduleRepo) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	var rows []domain.Holiday
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("created_at ASC, id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScheduleRepo) ListServices(ctx context.Context) ([]domain.Service, error) {
	var rows []domain.Service
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SaveWorkingPeriod, SaveHoliday and SaveService upsert reference data by
// id. They back the seed command and integration tests; there is no admin
// API.
func (r *ScheduleRepo) SaveWorkingPeriod(ctx context.Context, p domain.WorkingPeriod) (domain.WorkingPeriod, error) {
	_, err := r.db.NewInsert().
		Model(&p).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("start_time = EXCLUDED.start_time").
		Set("end_time = EXCLUDED.end_time").
		Set("day_of_week = EXCLUDED.day_of_week").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return p, err
}

func (r *ScheduleRepo) SaveHoliday(ctx context.Context, h domain.Holiday) (domain.Holiday, error) {
	_, err := r.db.NewInsert().
		Model(&h).
		On("CONFLICT (id) DO UPDATE").
		Set("type = EXCLUDED.type").
		Set("note = EXCLUDED.note").
		Set("date = EXCLUDED.date").
		Set("start_date = EXCLUDED.start_date").
		Set("end_date = EXCLUDED.end_date").
		Set("recurring_start_month = EXCLUDED.recurring_start_month").
		Set("recurring_start_day = EXCLUDED.recurring_start_day").
		Set("recurring_end_month = EXCLUDED.recurring_end_month").
		Set("recurring_end_day = EXCLUDED.recurring_end_day").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return h, err
}

func (r *ScheduleRepo) SaveService(ctx context.Context, s domain.Service) (domain.Service, error) {
	_, err := r.db.NewInsert().
		Model(&s).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("duration = EXCLUDED.duration").
		Set("price = EXCLUDED.price").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return s, err
}
