package httpapi

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
	"clinicsched/internal/service/booking"
	"clinicsched/internal/transport/params"
)

type handler struct {
	svc bookingService
	log zerolog.Logger

	defaultMode availability.Mode
	// lockMode ignores a client supplied mode.
	lockMode bool
}

func (h *handler) registerAvailability(g *echo.Group) {
	g.GET("/availability/dates", h.availableDates)
	g.GET("/availability/dates/:date/periods", h.periods)
	g.GET("/availability/dates/:date/periods/:period_id/slots", h.slots)
	g.GET("/availability/suggest", h.suggest)
}

func (h *handler) mode(raw string) (availability.Mode, error) {
	if h.lockMode {
		return h.defaultMode, nil
	}
	return params.Mode(raw, h.defaultMode)
}

func badRequest(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

type bookingBody struct {
	PatientName string `json:"patient_name"`
	Date        string `json:"date"`
	StartTime   string `json:"start_time"`
	ServiceID   string `json:"service_id"`
	PeriodID    string `json:"period_id"`
	Mode        string `json:"mode"`
	Notes       string `json:"notes"`
}

type rescheduleBody struct {
	Date      string `json:"date"`
	StartTime string `json:"start_time"`
	PeriodID  string `json:"period_id"`
	Mode      string `json:"mode"`
}

type seriesBody struct {
	PatientName string  `json:"patient_name"`
	StartTime   string  `json:"start_time"`
	ServiceID   string  `json:"service_id"`
	StartDate   string  `json:"start_date"`
	Interval    int     `json:"interval"`
	Weekdays    []int16 `json:"weekdays"`
	Until       string  `json:"until"`
	Count       *int    `json:"count"`
	Notes       string  `json:"notes"`
}

// GET /availability/dates?service_id=&days=&include_today=
func (h *handler) availableDates(c echo.Context) error {
	serviceID, err := params.OptionalUUID("service_id", c.QueryParam("service_id"))
	if err != nil {
		return badRequest(err)
	}
	mode, err := h.mode(c.QueryParam("mode"))
	if err != nil {
		return badRequest(err)
	}
	q := booking.AvailabilityQuery{ServiceID: serviceID, Mode: mode}
	if raw := c.QueryParam("days"); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "days must be an integer")
		}
		if days < 0 || days > booking.MaxRangeDays {
			return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("days must be between 0 and %d", booking.MaxRangeDays))
		}
		q.Days = days
	}
	if raw := c.QueryParam("include_today"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "include_today must be a boolean")
		}
		q.IncludeToday = &v
	}

	dates, err := h.svc.Availability(c.Request().Context(), q)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"dates": dates})
}

// GET /availability/dates/:date/periods?service_id=
func (h *handler) periods(c echo.Context) error {
	date, err := params.Date("date", c.Param("date"))
	if err != nil {
		return badRequest(err)
	}
	serviceID, err := params.OptionalUUID("service_id", c.QueryParam("service_id"))
	if err != nil {
		return badRequest(err)
	}
	mode, err := h.mode(c.QueryParam("mode"))
	if err != nil {
		return badRequest(err)
	}

	periods, err := h.svc.Periods(c.Request().Context(), date, serviceID, mode)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"periods": periods})
}

// GET /availability/dates/:date/periods/:period_id/slots?service_id=
func (h *handler) slots(c echo.Context) error {
	date, err := params.Date("date", c.Param("date"))
	if err != nil {
		return badRequest(err)
	}
	periodID, err := params.UUID("period_id", c.Param("period_id"))
	if err != nil {
		return badRequest(err)
	}
	serviceID, err := params.OptionalUUID("service_id", c.QueryParam("service_id"))
	if err != nil {
		return badRequest(err)
	}
	mode, err := h.mode(c.QueryParam("mode"))
	if err != nil {
		return badRequest(err)
	}

	slots, err := h.svc.Slots(c.Request().Context(), date, periodID, serviceID, mode)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"slots": slots})
}

// GET /availability/suggest?after=&service_id=
func (h *handler) suggest(c echo.Context) error {
	after, err := params.Date("after", c.QueryParam("after"))
	if err != nil {
		return badRequest(err)
	}
	serviceID, err := params.OptionalUUID("service_id", c.QueryParam("service_id"))
	if err != nil {
		return badRequest(err)
	}
	mode, err := h.mode(c.QueryParam("mode"))
	if err != nil {
		return badRequest(err)
	}

	next, ok, err := h.svc.SuggestNext(c.Request().Context(), after, serviceID, mode)
	if err != nil {
		return httpError(h.log, err)
	}
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"found": false})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"found": true, "date": next})
}

func (h *handler) bookInput(c echo.Context) (booking.BookInput, error) {
	var body bookingBody
	if err := c.Bind(&body); err != nil {
		return booking.BookInput{}, echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := params.Date("date", body.Date)
	if err != nil {
		return booking.BookInput{}, badRequest(err)
	}
	serviceID, err := params.OptionalUUID("service_id", body.ServiceID)
	if err != nil {
		return booking.BookInput{}, badRequest(err)
	}
	periodID, err := params.OptionalUUID("period_id", body.PeriodID)
	if err != nil {
		return booking.BookInput{}, badRequest(err)
	}
	mode, err := h.mode(body.Mode)
	if err != nil {
		return booking.BookInput{}, badRequest(err)
	}
	return booking.BookInput{
		PatientName: body.PatientName,
		Date:        date,
		StartTime:   body.StartTime,
		ServiceID:   serviceID,
		PeriodID:    periodID,
		Mode:        mode,
		Notes:       body.Notes,
	}, nil
}

// POST /bookings/validate
func (h *handler) validate(c echo.Context) error {
	in, err := h.bookInput(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Validate(c.Request().Context(), in)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, v)
}

// POST /bookings
func (h *handler) book(c echo.Context) error {
	in, err := h.bookInput(c)
	if err != nil {
		return err
	}
	in.IdempotencyKey = idempotencyKey(c)

	appt, err := h.svc.Book(c.Request().Context(), in)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusCreated, appt)
}

// POST /appointments/series
func (h *handler) bookSeries(c echo.Context) error {
	var body seriesBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	start, err := params.Date("start_date", body.StartDate)
	if err != nil {
		return badRequest(err)
	}
	until, err := params.OptionalDate("until", body.Until)
	if err != nil {
		return badRequest(err)
	}
	serviceID, err := params.OptionalUUID("service_id", body.ServiceID)
	if err != nil {
		return badRequest(err)
	}

	appts, err := h.svc.BookSeries(c.Request().Context(), booking.SeriesInput{
		PatientName: body.PatientName,
		StartTime:   body.StartTime,
		ServiceID:   serviceID,
		Rule: domain.WeeklyRule{
			Start:     start,
			Interval:  body.Interval,
			ByWeekday: body.Weekdays,
			Until:     until,
			Count:     body.Count,
		},
		Notes:          body.Notes,
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{"appointments": appts})
}

// GET /appointments?date=
func (h *handler) dayAppointments(c echo.Context) error {
	date, err := params.Date("date", c.QueryParam("date"))
	if err != nil {
		return badRequest(err)
	}
	appts, err := h.svc.DayAppointments(c.Request().Context(), date)
	if err != nil {
		return httpError(h.log, err)
	}
	if appts == nil {
		appts = []domain.Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"appointments": appts})
}

// GET /appointments/:id
func (h *handler) getAppointment(c echo.Context) error {
	id, err := params.UUID("id", c.Param("id"))
	if err != nil {
		return badRequest(err)
	}
	appt, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// PATCH /appointments/:id
func (h *handler) reschedule(c echo.Context) error {
	id, err := params.UUID("id", c.Param("id"))
	if err != nil {
		return badRequest(err)
	}
	var body rescheduleBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	date, err := params.Date("date", body.Date)
	if err != nil {
		return badRequest(err)
	}
	periodID, err := params.OptionalUUID("period_id", body.PeriodID)
	if err != nil {
		return badRequest(err)
	}
	mode, err := h.mode(body.Mode)
	if err != nil {
		return badRequest(err)
	}

	appt, err := h.svc.Reschedule(c.Request().Context(), id, booking.RescheduleInput{
		Date:      date,
		StartTime: body.StartTime,
		PeriodID:  periodID,
		Mode:      mode,
	})
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, appt)
}

// POST /appointments/:id/cancel
func (h *handler) cancel(c echo.Context) error {
	id, err := params.UUID("id", c.Param("id"))
	if err != nil {
		return badRequest(err)
	}
	appt, err := h.svc.Cancel(c.Request().Context(), id)
	if err != nil {
		return httpError(h.log, err)
	}
	return c.JSON(http.StatusOK, appt)
}

func idempotencyKey(c echo.Context) string {
	key := c.Request().Header.Get("Idempotency-Key")
	if key == "" {
		key = c.Request().Header.Get("X-Idempotency-Key")
	}
	return strings.TrimSpace(key)
}
