// Package redis is the key-value persistence layer behind the analysis cache
// and the daily search quota.
//
// Every round trip goes through a CircuitBreaker. A missing key is reported
// as found=false and never counts as a failure.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"stockanalysis/internal/metrics"
)

// Config configures the Redis store.
type Config struct {
	Addr     string // Redis address, e.g. "localhost:6379"
	Password string
	DB       int

	MaxFailures  int           // consecutive failures before the breaker opens
	ResetTimeout time.Duration // open → half-open delay
}

// Store wraps a Redis client with a circuit breaker.
type Store struct {
	client *goredis.Client
	cb     *CircuitBreaker
}

// New connects to Redis and pings the server.
func New(cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	slog.Info("redis connected", "addr", cfg.Addr)
	return NewWithClient(client, cfg.MaxFailures, cfg.ResetTimeout), nil
}

// NewWithClient wraps an existing client. Used by tests against miniredis.
func NewWithClient(client *goredis.Client, maxFailures int, resetTimeout time.Duration) *Store {
	if maxFailures <= 0 {
		maxFailures = 5
	}
	if resetTimeout <= 0 {
		resetTimeout = 10 * time.Second
	}
	return &Store{
		client: client,
		cb:     NewCircuitBreaker(maxFailures, resetTimeout),
	}
}

// Client returns the underlying Redis client for health checks.
func (s *Store) Client() *goredis.Client { return s.client }

// Breaker returns the circuit breaker guarding the store.
func (s *Store) Breaker() *CircuitBreaker { return s.cb }

// Instrument exports breaker transitions to m and logs them.
func (s *Store) Instrument(m *metrics.Metrics) {
	s.cb.OnStateChange = func(from, to State) {
		slog.Warn("redis circuit breaker transition", "from", from.String(), "to", to.String())
		if m == nil {
			return
		}
		m.StoreCircuitBreakerState.Set(float64(to))
		if to == StateOpen {
			m.StoreCircuitBreakerTrips.Inc()
		}
	}
}

// Ping checks connectivity, bypassing the breaker.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the client.
func (s *Store) Close() error { return s.client.Close() }

// ── Cache primitives ──

// SetWithTTL writes value under key with the given expiry.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.cb.ExecuteContext(ctx, func() error {
		if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
			return fmt.Errorf("redis set %s: %w", key, err)
		}
		return nil
	})
}

// Get reads key. found is false when the key does not exist.
func (s *Store) Get(ctx context.Context, key string) (value []byte, found bool, err error) {
	err = s.cb.ExecuteContext(ctx, func() error {
		b, gerr := s.client.Get(ctx, key).Bytes()
		if errors.Is(gerr, goredis.Nil) {
			return nil
		}
		if gerr != nil {
			return fmt.Errorf("redis get %s: %w", key, gerr)
		}
		value, found = b, true
		return nil
	})
	return value, found, err
}

// AddIndexEntry sets field in the hash at key only if the field is absent and
// refreshes the hash expiry. added reports whether this call created the field.
func (s *Store) AddIndexEntry(ctx context.Context, key, field string, value []byte, ttl time.Duration) (added bool, err error) {
	err = s.cb.ExecuteContext(ctx, func() error {
		var setnx *goredis.BoolCmd
		_, perr := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			setnx = pipe.HSetNX(ctx, key, field, value)
			pipe.Expire(ctx, key, ttl)
			return nil
		})
		if perr != nil {
			return fmt.Errorf("redis index %s: %w", key, perr)
		}
		added = setnx.Val()
		return nil
	})
	return added, err
}

// IndexEntries returns every field of the hash at key. A missing key yields
// an empty map.
func (s *Store) IndexEntries(ctx context.Context, key string) (map[string]string, error) {
	var entries map[string]string
	err := s.cb.ExecuteContext(ctx, func() error {
		m, gerr := s.client.HGetAll(ctx, key).Result()
		if gerr != nil {
			return fmt.Errorf("redis hgetall %s: %w", key, gerr)
		}
		entries = m
		return nil
	})
	return entries, err
}

// Delete removes keys. Missing keys are ignored.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return s.cb.ExecuteContext(ctx, func() error {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("redis del: %w", err)
		}
		return nil
	})
}

// ── Quota primitives ──
//
// A quota record is a hash {date, count, limit}. Both scripts reset the
// record first when its date precedes today, so the record's date always
// equals today after any access.

var incrementQuotaScript = goredis.NewScript(`
local date = redis.call('HGET', KEYS[1], 'date')
if (not date) or date < ARGV[1] then
  redis.call('HSET', KEYS[1], 'date', ARGV[1], 'count', 0)
end
local count = tonumber(redis.call('HGET', KEYS[1], 'count')) or 0
local limit = tonumber(ARGV[2])
if count >= limit then
  return {0, count}
end
count = redis.call('HINCRBY', KEYS[1], 'count', 1)
redis.call('HSET', KEYS[1], 'limit', limit)
return {1, count}
`)

var quotaCountScript = goredis.NewScript(`
local date = redis.call('HGET', KEYS[1], 'date')
if (not date) or date < ARGV[1] then
  redis.call('HSET', KEYS[1], 'date', ARGV[1], 'count', 0)
  return 0
end
return tonumber(redis.call('HGET', KEYS[1], 'count')) or 0
`)

// IncrementQuota atomically applies the day reset and then increments the
// counter at key unless it already reached limit. count is the value after
// the call.
func (s *Store) IncrementQuota(ctx context.Context, key, day string, limit int) (allowed bool, count int, err error) {
	err = s.cb.ExecuteContext(ctx, func() error {
		res, rerr := incrementQuotaScript.Run(ctx, s.client, []string{key}, day, limit).Result()
		if rerr != nil {
			return fmt.Errorf("redis quota incr %s: %w", key, rerr)
		}
		vals, ok := res.([]interface{})
		if !ok || len(vals) != 2 {
			return fmt.Errorf("redis quota incr %s: unexpected reply %v", key, res)
		}
		a, _ := vals[0].(int64)
		c, _ := vals[1].(int64)
		allowed, count = a == 1, int(c)
		return nil
	})
	return allowed, count, err
}

// QuotaCount applies the day reset and returns the current count.
func (s *Store) QuotaCount(ctx context.Context, key, day string) (int, error) {
	var count int
	err := s.cb.ExecuteContext(ctx, func() error {
		n, rerr := quotaCountScript.Run(ctx, s.client, []string{key}, day).Int()
		if rerr != nil {
			return fmt.Errorf("redis quota read %s: %w", key, rerr)
		}
		count = n
		return nil
	})
	return count, err
}

// ResetQuota forces count=0 and date=day.
func (s *Store) ResetQuota(ctx context.Context, key, day string, limit int) error {
	return s.cb.ExecuteContext(ctx, func() error {
		if err := s.client.HSet(ctx, key, "date", day, "count", 0, "limit", strconv.Itoa(limit)).Err(); err != nil {
			return fmt.Errorf("redis quota reset %s: %w", key, err)
		}
		return nil
	})
}
