package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "pending"
	AppointmentStatusConfirmed AppointmentStatus = "confirmed"
	AppointmentStatusPostponed AppointmentStatus = "postponed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusNoShow    AppointmentStatus = "no_show"
)

// Valid reports whether s is one of the known statuses.
func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusPending, AppointmentStatusConfirmed, AppointmentStatusPostponed,
		AppointmentStatusCancelled, AppointmentStatusCompleted, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Appointment is a booking on one calendar date. StartTime and EndTime are
// "HH:MM" wall-clock strings in the clinic's time zone.
type Appointment struct {
	bun.BaseModel `bun:"table:appointments"`

	ID              uuid.UUID         `bun:"id,pk,type:uuid" json:"id"`
	PatientName     string            `bun:"patient_name,notnull" json:"patient_name"`
	AppointmentDate time.Time         `bun:"appointment_date,type:date,notnull" json:"appointment_date"`
	StartTime       string            `bun:"start_time,notnull" json:"start_time"`
	EndTime         string            `bun:"end_time,notnull" json:"end_time"`
	ServiceID       uuid.UUID         `bun:"service_id,type:uuid,nullzero" json:"service_id"`
	Status          AppointmentStatus `bun:"status,notnull" json:"status"`
	Notes           string            `bun:"notes" json:"notes,omitempty"`
	SeriesID        *uuid.UUID        `bun:"series_id,type:uuid,nullzero" json:"series_id,omitempty"`
	CreatedAt       time.Time         `bun:"created_at,notnull" json:"created_at"`
	UpdatedAt       time.Time         `bun:"updated_at,notnull" json:"updated_at"`
}

func (a *Appointment) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if a.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return err
			}
			a.ID = id
		}
		if a.Status == "" {
			a.Status = AppointmentStatusConfirmed
		}
		if a.CreatedAt.IsZero() {
			a.CreatedAt = now
		}
		if a.UpdatedAt.IsZero() {
			a.UpdatedAt = now
		}
	case *bun.UpdateQuery:
		a.UpdatedAt = now
	}
	return nil
}

// IsConfirmed reports whether the appointment blocks other bookings.
func (a Appointment) IsConfirmed() bool {
	return a.Status == AppointmentStatusConfirmed
}

// OnDate reports whether the appointment falls on the calendar day of d.
func (a Appointment) OnDate(d time.Time) bool {
	return SameDay(a.AppointmentDate, d)
}

// SameDay compares the year, month and day of a and b as written, ignoring
// their locations.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// DateOnly truncates t to midnight in loc, keeping t's calendar day as seen
// in loc. A nil loc keeps t's own location.
func DateOnly(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CivilDate rebuilds the calendar day of t (as written) at midnight in loc.
// Dates scanned from a DATE column arrive as UTC midnight and must not be
// shifted by a zone conversion.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}
