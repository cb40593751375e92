package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/domain"
)

// BookingTx is the write side of the calendar, only valid inside
// AppointmentRepository.InDateTransaction.
type BookingTx interface {
	ListConfirmedOn(ctx context.Context, date time.Time) ([]domain.Appointment, error)
	GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
	UpdateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error)
}
