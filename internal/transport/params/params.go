// Package params parses the string fields shared by the HTTP and gRPC
// transports.
package params

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/availability"
)

const DateLayout = "2006-01-02"

// Date parses a "YYYY-MM-DD" calendar date. The result is UTC midnight; the
// engine moves it into the clinic's zone without shifting the day.
func Date(field, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%s is required", field)
	}
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return d, nil
}

// OptionalDate is Date but returns nil for an empty string.
func OptionalDate(field, s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := Date(field, s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UUID parses a required id.
func UUID(field, s string) (uuid.UUID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return uuid.Nil, fmt.Errorf("%s is required", field)
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s must be a UUID", field)
	}
	return id, nil
}

// OptionalUUID returns uuid.Nil for an empty string.
func OptionalUUID(field, s string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, nil
	}
	return UUID(field, s)
}

// Mode parses a booking mode, using fallback when s is empty.
func Mode(s string, fallback availability.Mode) (availability.Mode, error) {
	if strings.TrimSpace(s) == "" {
		return fallback, nil
	}
	return availability.ParseMode(s)
}
