// Package rediscache keeps the clinic's reference data (working periods,
// holidays, services) in Redis in front of a slower store.ScheduleReader.
// Appointments are never cached.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"clinicsched/internal/domain"
	"clinicsched/internal/store"
)

const (
	keyPrefix   = "clinicsched:schedule:"
	keyPeriods  = keyPrefix + "periods"
	keyHolidays = keyPrefix + "holidays"
	keyServices = keyPrefix + "services"

	DefaultTTL = 5 * time.Minute
)

// Client is the subset of *redis.Client the cache uses.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type Options struct {
	Addr     string
	Password string
	DB       int
}

// Dial connects to Redis and pings it once.
func Dial(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// Cache is a read-through store.ScheduleReader. Redis failures are logged
// and fall back to the underlying reader.
type Cache struct {
	next   store.ScheduleReader
	client Client
	ttl    time.Duration
	log    zerolog.Logger
}

func New(next store.ScheduleReader, client Client, ttl time.Duration, log zerolog.Logger) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		next:   next,
		client: client,
		ttl:    ttl,
		log:    log.With().Str("component", "rediscache").Logger(),
	}
}

func (c *Cache) ListWorkingPeriods(ctx context.Context) ([]domain.WorkingPeriod, error) {
	return readThrough(ctx, c, keyPeriods, c.next.ListWorkingPeriods)
}

func (c *Cache) ListHolidays(ctx context.Context) ([]domain.Holiday, error) {
	return readThrough(ctx, c, keyHolidays, c.next.ListHolidays)
}

func (c *Cache) ListServices(ctx context.Context) ([]domain.Service, error) {
	return readThrough(ctx, c, keyServices, c.next.ListServices)
}

// Invalidate drops every cached reference list.
func (c *Cache) Invalidate(ctx context.Context) error {
	return c.client.Del(ctx, keyPeriods, keyHolidays, keyServices).Err()
}

func readThrough[T any](ctx context.Context, c *Cache, key string, load func(context.Context) ([]T, error)) ([]T, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var out []T
		if err := json.Unmarshal(raw, &out); err == nil {
			return out, nil
		}
		c.log.Warn().Str("key", key).Msg("discarding undecodable cache entry")
	case errors.Is(err, redis.Nil):
	default:
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}

	out, err := load(ctx)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(out)
	if err != nil {
		return out, nil
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return out, nil
}
