// Package httpapi is the REST surface of the booking service. Public routes
// always run in public mode and are rate limited per client IP; staff routes
// default to internal mode.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
	"clinicsched/internal/service/booking"
	"clinicsched/internal/store"
)

type bookingService interface {
	Availability(ctx context.Context, q booking.AvailabilityQuery) ([]availability.AvailableDate, error)
	SuggestNext(ctx context.Context, after time.Time, serviceID uuid.UUID, mode availability.Mode) (availability.AvailableDate, bool, error)
	Periods(ctx context.Context, date time.Time, serviceID uuid.UUID, mode availability.Mode) ([]availability.AvailablePeriod, error)
	Slots(ctx context.Context, date time.Time, periodID, serviceID uuid.UUID, mode availability.Mode) ([]availability.TimeSlot, error)
	Validate(ctx context.Context, in booking.BookInput) (availability.BookingValidation, error)
	Book(ctx context.Context, in booking.BookInput) (domain.Appointment, error)
	BookSeries(ctx context.Context, in booking.SeriesInput) ([]domain.Appointment, error)
	Reschedule(ctx context.Context, id uuid.UUID, in booking.RescheduleInput) (domain.Appointment, error)
	Cancel(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Appointment, error)
	DayAppointments(ctx context.Context, date time.Time) ([]domain.Appointment, error)
}

type Config struct {
	RateLimit RateLimitConfig
}

// New builds the echo instance with every route registered.
func New(svc bookingService, log zerolog.Logger, cfg Config) *echo.Echo {
	log = log.With().Str("component", "http").Logger()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.RequestID())
	e.Use(RequestLogger(log))
	e.Use(Recovery(log))

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	public := &handler{svc: svc, log: log, defaultMode: availability.ModePublic, lockMode: true}
	pub := e.Group("/api/v1", RateLimit(cfg.RateLimit, log))
	public.registerAvailability(pub)
	pub.POST("/bookings/validate", public.validate)
	pub.POST("/bookings", public.book)

	staff := &handler{svc: svc, log: log, defaultMode: availability.ModeInternal}
	st := e.Group("/api/v1/staff")
	staff.registerAvailability(st)
	st.POST("/appointments/validate", staff.validate)
	st.POST("/appointments", staff.book)
	st.POST("/appointments/series", staff.bookSeries)
	st.GET("/appointments", staff.dayAppointments)
	st.GET("/appointments/:id", staff.getAppointment)
	st.PATCH("/appointments/:id", staff.reschedule)
	st.POST("/appointments/:id/cancel", staff.cancel)

	return e
}

// httpError maps service errors onto HTTP statuses. A rejected booking is
// 422 and carries the full validation result.
func httpError(log zerolog.Logger, err error) error {
	var invalid *booking.ValidationError
	var rejected *booking.RejectedError
	switch {
	case errors.As(err, &invalid):
		return echo.NewHTTPError(http.StatusBadRequest, invalid.Error())
	case errors.As(err, &rejected):
		body := map[string]interface{}{
			"message":    rejected.Error(),
			"validation": rejected.Validation,
		}
		if !rejected.Date.IsZero() {
			body["date"] = rejected.Date.Format("2006-01-02")
		}
		return echo.NewHTTPError(http.StatusUnprocessableEntity, body)
	case errors.Is(err, booking.ErrSlotUnavailable):
		return echo.NewHTTPError(http.StatusConflict, "Selected time slot is no longer available. Pick a different slot.")
	case errors.Is(err, store.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "appointment not found")
	default:
		log.Error().Err(err).Msg("request failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}
