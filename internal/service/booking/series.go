package booking

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
	"clinicsched/internal/store"
)

// SeriesInput books the same time on every date of a weekly rule. Series are
// a staff tool and always validate in internal mode.
type SeriesInput struct {
	PatientName    string
	StartTime      string
	ServiceID      uuid.UUID
	Rule           domain.WeeklyRule
	Notes          string
	IdempotencyKey string
}

// BookSeries books every occurrence of in.Rule in one transaction. If any
// occurrence is rejected nothing is written.
func (s *Service) BookSeries(ctx context.Context, in SeriesInput) ([]domain.Appointment, error) {
	name := strings.TrimSpace(in.PatientName)
	if name == "" {
		return nil, validationError("patient_name is required")
	}
	rule := in.Rule
	rule.Start = s.engine.Day(rule.Start)
	dates, err := domain.GenerateWeeklyDates(rule)
	if err != nil {
		return nil, validationError(err.Error())
	}
	if len(dates) == 0 {
		return nil, validationError("recurrence rule produces no dates")
	}

	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > maxIdempotencyKeyLen {
		return nil, validationError("idempotency_key too long")
	}
	seriesID, err := seriesIdentity(key)
	if err != nil {
		return nil, err
	}

	snap, err := s.snapshot(ctx, dates[0], dates[len(dates)-1])
	if err != nil {
		return nil, err
	}

	reqs := make([]availability.BookingRequest, 0, len(dates))
	appts := make([]domain.Appointment, 0, len(dates))
	start := canonicalClock(in.StartTime)
	for _, d := range dates {
		id := occurrenceID(key, d)
		req, err := s.bookingRequest(BookInput{
			Date:      d,
			StartTime: in.StartTime,
			ServiceID: in.ServiceID,
			Mode:      availability.ModeInternal,
		}, snap.Services, id)
		if err != nil {
			return nil, err
		}
		if v := s.engine.ValidateBooking(req, snap); !v.IsValid {
			return nil, &RejectedError{Validation: v, Date: d}
		}
		sid := seriesID
		reqs = append(reqs, req)
		appts = append(appts, domain.Appointment{
			ID:              id,
			PatientName:     name,
			AppointmentDate: s.engine.Day(d),
			StartTime:       start,
			EndTime:         availability.CalculateEndTime(start, req.Duration),
			ServiceID:       in.ServiceID,
			Status:          domain.AppointmentStatusConfirmed,
			Notes:           strings.TrimSpace(in.Notes),
			SeriesID:        &sid,
		})
	}

	out := make([]domain.Appointment, 0, len(appts))
	err = s.appts.InDateTransaction(ctx, dates, func(ctx context.Context, tx store.BookingTx) error {
		for i, appt := range appts {
			confirmed, err := tx.ListConfirmedOn(ctx, appt.AppointmentDate)
			if err != nil {
				return err
			}
			snap.Appointments = confirmed
			if v := s.engine.ValidateBooking(reqs[i], snap); !v.IsValid {
				return &RejectedError{Validation: v, Date: appt.AppointmentDate}
			}
			created, err := tx.CreateAppointment(ctx, appt)
			if err != nil {
				return err
			}
			out = append(out, created)
		}
		return nil
	})
	if err != nil {
		return nil, s.writeError(err, "book_series")
	}

	s.log.Info().
		Str("series_id", seriesID.String()).
		Int("occurrences", len(out)).
		Str("first_date", sqlDate(dates[0])).
		Msg("appointment series booked")
	return out, nil
}

func seriesIdentity(key string) (uuid.UUID, error) {
	if key == "" {
		return uuid.NewV7()
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("clinicsched:series:"+key)), nil
}

func occurrenceID(key string, date time.Time) uuid.UUID {
	if key == "" {
		return uuid.Nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("clinicsched:series:"+key+":"+sqlDate(date)))
}
