// Package cache stores computed analyses per user, symbol and UTC day.
//
// Entries and the per-day index expire at the next UTC midnight after the
// day they belong to. A backend failure never fails the caller: lookups
// degrade to a miss and writes are reported for logging only.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"stockanalysis/internal/logger"
	"stockanalysis/internal/metrics"
	"stockanalysis/internal/model"
)

// Store is the persistence the cache needs. *redis.Store satisfies it.
type Store interface {
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	AddIndexEntry(ctx context.Context, key, field string, value []byte, ttl time.Duration) (bool, error)
	IndexEntries(ctx context.Context, key string) (map[string]string, error)
	Delete(ctx context.Context, keys ...string) error
}

// Key identifies one cached analysis.
type Key struct {
	User   string
	Symbol string // uppercased
	Day    string // YYYY-MM-DD, UTC
}

// String returns the store key of the entry.
func (k Key) String() string {
	return fmt.Sprintf("analysis:user:%s:symbol:%s:date:%s", k.User, k.Symbol, k.Day)
}

// IndexKey returns the store key of userID's index for day.
func IndexKey(userID, day string) string {
	return fmt.Sprintf("analysis:index:user:%s:date:%s", userID, day)
}

// Cache is safe for concurrent use.
type Cache struct {
	store   Store
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option { return func(c *Cache) { c.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Cache) { c.log = l } }

// WithMetrics records lookup results.
func WithMetrics(m *metrics.Metrics) Option { return func(c *Cache) { c.metrics = m } }

// New creates a cache over store.
func New(store Store, opts ...Option) *Cache {
	c := &Cache{store: store, now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(c)
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	return c
}

// KeyFor returns today's key for userID and symbol.
func (c *Cache) KeyFor(userID, symbol string) Key {
	return Key{
		User:   userID,
		Symbol: strings.ToUpper(strings.TrimSpace(symbol)),
		Day:    model.UTCDay(c.now()),
	}
}

// Get returns the payload stored under key. Any backend or decode failure is
// logged and reported as a miss.
func (c *Cache) Get(ctx context.Context, key Key) (*model.Payload, bool) {
	data, found, err := c.store.Get(ctx, key.String())
	if err != nil {
		c.observe("error")
		c.log.Warn("cache lookup failed, treating as miss", append(logger.LogWithTrace(ctx), "key", key.String(), "error", err)...)
		return nil, false
	}
	if !found {
		c.observe("miss")
		return nil, false
	}

	p, err := model.DecodePayload(data)
	if err != nil {
		c.observe("error")
		c.log.Warn("cache entry unreadable, treating as miss", append(logger.LogWithTrace(ctx), "key", key.String(), "error", err)...)
		return nil, false
	}
	c.observe("hit")
	return p, true
}

// Store writes p under key and claims key's slot in the day index. Only the
// first store of a symbol on a day creates an index slot. Both expire at the
// UTC midnight ending key.Day.
func (c *Cache) Store(ctx context.Context, key Key, p *model.Payload) error {
	data, err := p.JSON()
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	now := c.now()
	ttl := c.ttlFor(key.Day, now)

	if err := c.store.SetWithTTL(ctx, key.String(), data, ttl); err != nil {
		return fmt.Errorf("cache store %s: %w", key, err)
	}

	entry, _ := json.Marshal(model.SearchEntry{Symbol: key.Symbol, Timestamp: now.UTC(), Key: key.String()})
	added, err := c.store.AddIndexEntry(ctx, IndexKey(key.User, key.Day), key.Symbol, entry, ttl)
	if err != nil {
		return fmt.Errorf("cache index %s: %w", key, err)
	}
	if added {
		c.log.Debug("cache slot created", append(logger.LogWithTrace(ctx), "key", key.String(), "ttl", ttl.String())...)
	}
	return nil
}

// ListToday returns userID's searches for the current UTC day, oldest first.
func (c *Cache) ListToday(ctx context.Context, userID string) ([]model.SearchEntry, error) {
	raw, err := c.store.IndexEntries(ctx, IndexKey(userID, model.UTCDay(c.now())))
	if err != nil {
		return nil, fmt.Errorf("list searches: %w", err)
	}

	entries := make([]model.SearchEntry, 0, len(raw))
	for field, v := range raw {
		var e model.SearchEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			c.log.Warn("skipping unreadable index entry", "user", userID, "symbol", field, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Timestamp.Equal(entries[j].Timestamp) {
			return entries[i].Timestamp.Before(entries[j].Timestamp)
		}
		return entries[i].Symbol < entries[j].Symbol
	})
	return entries, nil
}

// Clear deletes today's index for userID and every entry it references.
// It returns the number of entries referenced.
func (c *Cache) Clear(ctx context.Context, userID string) (int, error) {
	entries, err := c.ListToday(ctx, userID)
	if err != nil {
		return 0, err
	}
	keys := make([]string, 0, len(entries)+1)
	for _, e := range entries {
		keys = append(keys, e.Key)
	}
	keys = append(keys, IndexKey(userID, model.UTCDay(c.now())))

	if err := c.store.Delete(ctx, keys...); err != nil {
		return 0, fmt.Errorf("clear cache: %w", err)
	}
	c.log.Info("user cache cleared", append(logger.LogWithTrace(ctx), "user", userID, "entries", len(entries))...)
	return len(entries), nil
}

// ttlFor returns the time from now until the end of day. A day that already
// ended (the request crossed midnight) gets the one-second minimum.
func (c *Cache) ttlFor(day string, now time.Time) time.Duration {
	start, err := time.Parse(model.DayLayout, day)
	if err != nil {
		return model.UntilNextUTCMidnight(now)
	}
	ttl := start.AddDate(0, 0, 1).Sub(now)
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(result).Inc()
	}
}
