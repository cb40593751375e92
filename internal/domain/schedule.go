package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// WorkingPeriod is one named working block on a weekday, e.g. "Morning"
// 09:00-12:00 on Monday. DayOfWeek follows time.Weekday (0 = Sunday).
type WorkingPeriod struct {
	bun.BaseModel `bun:"table:working_periods"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	StartTime string    `bun:"start_time,notnull" json:"start_time"`
	EndTime   string    `bun:"end_time,notnull" json:"end_time"`
	DayOfWeek int       `bun:"day_of_week,notnull" json:"day_of_week"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

func (p *WorkingPeriod) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(&p.ID, &p.CreatedAt, &p.UpdatedAt, query)
}

type HolidayType string

const (
	HolidayTypeSingle          HolidayType = "single"
	HolidayTypeRange           HolidayType = "range"
	HolidayTypeRecurringAnnual HolidayType = "recurring_annual"
)

// Holiday closes the clinic. It takes exactly one of three shapes: a single
// Date, an explicit StartDate..EndDate range, or a recurring annual
// month/day range (Type == HolidayTypeRecurringAnnual) that may wrap across
// New Year.
type Holiday struct {
	bun.BaseModel `bun:"table:holidays"`

	ID                  uuid.UUID   `bun:"id,pk,type:uuid" json:"id"`
	Date                *time.Time  `bun:"date,type:date" json:"date,omitempty"`
	Type                HolidayType `bun:"type,notnull" json:"type"`
	Note                string      `bun:"note" json:"note,omitempty"`
	StartDate           *time.Time  `bun:"start_date,type:date" json:"start_date,omitempty"`
	EndDate             *time.Time  `bun:"end_date,type:date" json:"end_date,omitempty"`
	RecurringStartMonth *int        `bun:"recurring_start_month" json:"recurring_start_month,omitempty"`
	RecurringStartDay   *int        `bun:"recurring_start_day" json:"recurring_start_day,omitempty"`
	RecurringEndMonth   *int        `bun:"recurring_end_month" json:"recurring_end_month,omitempty"`
	RecurringEndDay     *int        `bun:"recurring_end_day" json:"recurring_end_day,omitempty"`
	CreatedAt           time.Time   `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt           time.Time   `bun:"updated_at,notnull" json:"updated_at"`
}

func (h *Holiday) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(&h.ID, &h.CreatedAt, &h.UpdatedAt, query)
}

// Service is a bookable treatment. Duration is in minutes.
type Service struct {
	bun.BaseModel `bun:"table:services"`

	ID        uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Duration  int       `bun:"duration,notnull" json:"duration"`
	Price     *float64  `bun:"price" json:"price,omitempty"`
	CreatedAt time.Time `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,notnull" json:"updated_at"`
}

func (s *Service) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampModel(&s.ID, &s.CreatedAt, &s.UpdatedAt, query)
}

func stampModel(id *uuid.UUID, createdAt, updatedAt *time.Time, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}
