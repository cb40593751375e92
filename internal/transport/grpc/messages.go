package grpc

import (
	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
)

// Dates are "YYYY-MM-DD", times are "HH:MM" and ids are UUID strings. Mode
// defaults to internal on this API.

type AvailabilityRequest struct {
	ServiceID    string `json:"service_id,omitempty"`
	Mode         string `json:"mode,omitempty"`
	Days         int    `json:"days,omitempty"`
	IncludeToday *bool  `json:"include_today,omitempty"`
}

type AvailabilityResponse struct {
	Dates []availability.AvailableDate `json:"dates"`
}

type SuggestNextRequest struct {
	After     string `json:"after"`
	ServiceID string `json:"service_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type SuggestNextResponse struct {
	Found bool                        `json:"found"`
	Date  *availability.AvailableDate `json:"date,omitempty"`
}

type PeriodsRequest struct {
	Date      string `json:"date"`
	ServiceID string `json:"service_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type PeriodsResponse struct {
	Periods []availability.AvailablePeriod `json:"periods"`
}

type SlotsRequest struct {
	Date      string `json:"date"`
	PeriodID  string `json:"period_id"`
	ServiceID string `json:"service_id,omitempty"`
	Mode      string `json:"mode,omitempty"`
}

type SlotsResponse struct {
	Slots []availability.TimeSlot `json:"slots"`
}

// BookingRequest is shared by Validate and Book. The idempotency key of a
// Book call travels in the "idempotency-key" metadata header.
type BookingRequest struct {
	PatientName string `json:"patient_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	ServiceID   string `json:"service_id,omitempty"`
	PeriodID    string `json:"period_id,omitempty"`
	Mode        string `json:"mode,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type ValidateResponse struct {
	Validation availability.BookingValidation `json:"validation"`
}

type AppointmentResponse struct {
	Appointment domain.Appointment `json:"appointment"`
}

type RescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	PeriodID      string `json:"period_id,omitempty"`
	Mode          string `json:"mode,omitempty"`
}

type AppointmentRequest struct {
	AppointmentID string `json:"appointment_id"`
}

type DayAppointmentsRequest struct {
	Date string `json:"date"`
}

type AppointmentsResponse struct {
	Appointments []domain.Appointment `json:"appointments"`
}

// SeriesRequest books StartTime every Interval weeks on Weekdays (ISO,
// 1 = Monday) from StartDate until Until or for Count dates.
type SeriesRequest struct {
	PatientName string  `json:"patient_name"`
	StartTime   string  `json:"start_time"`
	ServiceID   string  `json:"service_id,omitempty"`
	StartDate   string  `json:"start_date"`
	Interval    int     `json:"interval,omitempty"`
	Weekdays    []int16 `json:"weekdays,omitempty"`
	Until       string  `json:"until,omitempty"`
	Count       *int    `json:"count,omitempty"`
	Notes       string  `json:"notes,omitempty"`
}
