// Package seed loads the clinic's reference data (services, working periods
// and holidays) from a YAML or JSON file and writes it through the schedule
// store.
package seed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"clinicsched/internal/availability"
	"clinicsched/internal/domain"
)

type File struct {
	Services       []Service       `mapstructure:"services"`
	WorkingPeriods []WorkingPeriod `mapstructure:"working_periods"`
	Holidays       []Holiday       `mapstructure:"holidays"`
}

// Ids are optional. Entries without one get a stable id derived from their
// content, so re-seeding the same file updates rows instead of duplicating
// them.
type Service struct {
	ID       string   `mapstructure:"id"`
	Name     string   `mapstructure:"name"`
	Duration int      `mapstructure:"duration"`
	Price    *float64 `mapstructure:"price"`
}

type WorkingPeriod struct {
	ID        string `mapstructure:"id"`
	Name      string `mapstructure:"name"`
	StartTime string `mapstructure:"start_time"`
	EndTime   string `mapstructure:"end_time"`
	// DayOfWeek is 0 (Sunday) through 6.
	DayOfWeek int `mapstructure:"day_of_week"`
}

type Holiday struct {
	ID                  string `mapstructure:"id"`
	Type                string `mapstructure:"type"`
	Note                string `mapstructure:"note"`
	Date                string `mapstructure:"date"`
	StartDate           string `mapstructure:"start_date"`
	EndDate             string `mapstructure:"end_date"`
	RecurringStartMonth *int   `mapstructure:"recurring_start_month"`
	RecurringStartDay   *int   `mapstructure:"recurring_start_day"`
	RecurringEndMonth   *int   `mapstructure:"recurring_end_month"`
	RecurringEndDay     *int   `mapstructure:"recurring_end_day"`
}

// Load reads a seed file. The format follows the extension.
func Load(path string) (File, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return File{}, fmt.Errorf("read seed file %s: %w", path, err)
	}
	var f File
	if err := v.Unmarshal(&f); err != nil {
		return File{}, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return f, nil
}

type Records struct {
	Services       []domain.Service
	WorkingPeriods []domain.WorkingPeriod
	Holidays       []domain.Holiday
}

// Records validates every entry and converts it to its domain model.
func (f File) Records() (Records, error) {
	var out Records
	for i, s := range f.Services {
		svc, err := s.record()
		if err != nil {
			return Records{}, fmt.Errorf("services[%d]: %w", i, err)
		}
		out.Services = append(out.Services, svc)
	}
	for i, p := range f.WorkingPeriods {
		period, err := p.record()
		if err != nil {
			return Records{}, fmt.Errorf("working_periods[%d]: %w", i, err)
		}
		out.WorkingPeriods = append(out.WorkingPeriods, period)
	}
	for i, h := range f.Holidays {
		holiday, err := h.record()
		if err != nil {
			return Records{}, fmt.Errorf("holidays[%d]: %w", i, err)
		}
		out.Holidays = append(out.Holidays, holiday)
	}
	return out, nil
}

func (s Service) record() (domain.Service, error) {
	name := strings.TrimSpace(s.Name)
	if name == "" {
		return domain.Service{}, fmt.Errorf("name is required")
	}
	if s.Duration <= 0 {
		return domain.Service{}, fmt.Errorf("duration must be positive")
	}
	id, err := seedID(s.ID, "service", name)
	if err != nil {
		return domain.Service{}, err
	}
	return domain.Service{ID: id, Name: name, Duration: s.Duration, Price: s.Price}, nil
}

func (p WorkingPeriod) record() (domain.WorkingPeriod, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return domain.WorkingPeriod{}, fmt.Errorf("name is required")
	}
	if p.DayOfWeek < 0 || p.DayOfWeek > 6 {
		return domain.WorkingPeriod{}, fmt.Errorf("day_of_week must be 0-6")
	}
	start, err := availability.ParseClock(p.StartTime)
	if err != nil {
		return domain.WorkingPeriod{}, fmt.Errorf("start_time: %w", err)
	}
	end, err := availability.ParseClock(p.EndTime)
	if err != nil {
		return domain.WorkingPeriod{}, fmt.Errorf("end_time: %w", err)
	}
	if end <= start {
		return domain.WorkingPeriod{}, fmt.Errorf("end_time must be after start_time")
	}
	id, err := seedID(p.ID, "period", fmt.Sprintf("%d:%s:%s", p.DayOfWeek, name, availability.MinutesToTime(start)))
	if err != nil {
		return domain.WorkingPeriod{}, err
	}
	return domain.WorkingPeriod{
		ID:        id,
		Name:      name,
		StartTime: availability.MinutesToTime(start),
		EndTime:   availability.MinutesToTime(end),
		DayOfWeek: p.DayOfWeek,
	}, nil
}

func (h Holiday) record() (domain.Holiday, error) {
	typ := domain.HolidayType(strings.TrimSpace(h.Type))
	if typ == "" {
		typ = domain.HolidayTypeSingle
	}
	out := domain.Holiday{Type: typ, Note: strings.TrimSpace(h.Note)}

	var err error
	switch typ {
	case domain.HolidayTypeSingle:
		if out.Date, err = date("date", h.Date); err != nil {
			return domain.Holiday{}, err
		}
	case domain.HolidayTypeRange:
		if out.StartDate, err = date("start_date", h.StartDate); err != nil {
			return domain.Holiday{}, err
		}
		if out.EndDate, err = date("end_date", h.EndDate); err != nil {
			return domain.Holiday{}, err
		}
		if out.EndDate.Before(*out.StartDate) {
			return domain.Holiday{}, fmt.Errorf("end_date must not be before start_date")
		}
	case domain.HolidayTypeRecurringAnnual:
		if err := monthDay("recurring_start", h.RecurringStartMonth, h.RecurringStartDay); err != nil {
			return domain.Holiday{}, err
		}
		if err := monthDay("recurring_end", h.RecurringEndMonth, h.RecurringEndDay); err != nil {
			return domain.Holiday{}, err
		}
		out.RecurringStartMonth = h.RecurringStartMonth
		out.RecurringStartDay = h.RecurringStartDay
		out.RecurringEndMonth = h.RecurringEndMonth
		out.RecurringEndDay = h.RecurringEndDay
	default:
		return domain.Holiday{}, fmt.Errorf("unknown holiday type %q", typ)
	}

	key := strings.Join([]string{string(typ), h.Date, h.StartDate, h.EndDate, out.Note}, ":")
	if typ == domain.HolidayTypeRecurringAnnual {
		key = fmt.Sprintf("%s:%d-%d:%d-%d:%s", typ, *h.RecurringStartMonth, *h.RecurringStartDay, *h.RecurringEndMonth, *h.RecurringEndDay, out.Note)
	}
	if out.ID, err = seedID(h.ID, "holiday", key); err != nil {
		return domain.Holiday{}, err
	}
	return out, nil
}

func seedID(explicit, kind, key string) (uuid.UUID, error) {
	if explicit = strings.TrimSpace(explicit); explicit != "" {
		id, err := uuid.Parse(explicit)
		if err != nil {
			return uuid.Nil, fmt.Errorf("id must be a UUID")
		}
		return id, nil
	}
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte("clinicsched:seed:"+kind+":"+key)), nil
}

func date(field, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%s is required", field)
	}
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, fmt.Errorf("%s must be a YYYY-MM-DD date", field)
	}
	return &d, nil
}

func monthDay(field string, month, day *int) error {
	if month == nil || day == nil {
		return fmt.Errorf("%s_month and %s_day are required", field, field)
	}
	if *month < 1 || *month > 12 || *day < 1 || *day > 31 {
		return fmt.Errorf("%s month/day out of range", field)
	}
	return nil
}

type Writer interface {
	SaveService(ctx context.Context, s domain.Service) (domain.Service, error)
	SaveWorkingPeriod(ctx context.Context, p domain.WorkingPeriod) (domain.WorkingPeriod, error)
	SaveHoliday(ctx context.Context, h domain.Holiday) (domain.Holiday, error)
}

// Apply writes every record. It stops at the first failure; records already
// written stay, and re-running the same file is safe.
func Apply(ctx context.Context, w Writer, recs Records, log zerolog.Logger) error {
	for _, s := range recs.Services {
		if _, err := w.SaveService(ctx, s); err != nil {
			return fmt.Errorf("save service %q: %w", s.Name, err)
		}
	}
	for _, p := range recs.WorkingPeriods {
		if _, err := w.SaveWorkingPeriod(ctx, p); err != nil {
			return fmt.Errorf("save working period %q: %w", p.Name, err)
		}
	}
	for _, h := range recs.Holidays {
		if _, err := w.SaveHoliday(ctx, h); err != nil {
			return fmt.Errorf("save holiday %q: %w", h.Note, err)
		}
	}
	log.Info().
		Int("services", len(recs.Services)).
		Int("working_periods", len(recs.WorkingPeriods)).
		Int("holidays", len(recs.Holidays)).
		Msg("reference data seeded")
	return nil
}
