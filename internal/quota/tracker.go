// Package quota enforces the per-user daily search limit.
//
// A user's record resets lazily on the first access of each UTC day. The
// reset and the conditional increment run as one atomic step in the backing
// store, so concurrent requests from one user can never be over-admitted.
package quota

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockanalysis/internal/logger"
	"stockanalysis/internal/metrics"
	"stockanalysis/internal/model"
)

// DefaultDailyLimit is the number of non-cached searches per user per UTC day.
const DefaultDailyLimit = 10

// Store is the persistence the tracker needs. *redis.Store satisfies it.
type Store interface {
	IncrementQuota(ctx context.Context, key, day string, limit int) (allowed bool, count int, err error)
	QuotaCount(ctx context.Context, key, day string) (int, error)
	ResetQuota(ctx context.Context, key, day string, limit int) error
}

// Decision is the outcome of CheckAndIncrement.
type Decision struct {
	Allowed   bool
	Remaining int
	Status    model.QuotaStatus
	Message   string
}

// Tracker is safe for concurrent use.
type Tracker struct {
	store   Store
	limit   int
	now     func() time.Time
	log     *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source used to decide "today".
func WithClock(now func() time.Time) Option { return func(t *Tracker) { t.now = now } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(t *Tracker) { t.log = l } }

// WithMetrics records quota decisions.
func WithMetrics(m *metrics.Metrics) Option { return func(t *Tracker) { t.metrics = m } }

// New creates a tracker. A non-positive limit falls back to DefaultDailyLimit.
func New(store Store, limit int, opts ...Option) *Tracker {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	t := &Tracker{store: store, limit: limit, now: time.Now, log: slog.Default()}
	for _, o := range opts {
		o(t)
	}
	if t.log == nil {
		t.log = slog.Default()
	}
	return t
}

// Limit returns the configured daily limit.
func (t *Tracker) Limit() int { return t.limit }

// Key returns the store key of userID's quota record.
func Key(userID string) string { return "quota:user:" + userID }

// CheckAndIncrement consumes one search for userID if any remain today.
// A store failure is returned as ErrServiceUnavailable: a request cannot be
// admitted without a working counter.
func (t *Tracker) CheckAndIncrement(ctx context.Context, userID string) (Decision, error) {
	day := model.UTCDay(t.now())
	allowed, count, err := t.store.IncrementQuota(ctx, Key(userID), day, t.limit)
	if err != nil {
		t.observe("error")
		t.log.Error("quota check failed", append(logger.LogWithTrace(ctx), "user", userID, "error", err)...)
		return Decision{}, fmt.Errorf("%w: quota check: %w", model.ErrServiceUnavailable, err)
	}

	status := model.NewQuotaStatus(t.limit, count, day)
	if !allowed {
		t.observe("rejected")
		status.Remaining, status.CanSearch = 0, false
		t.log.Info("quota exhausted", append(logger.LogWithTrace(ctx), "user", userID, "used", count, "limit", t.limit)...)
		return Decision{Status: status, Message: ExceededMessage(t.limit)}, nil
	}

	t.observe("allowed")
	t.log.Debug("quota consumed", append(logger.LogWithTrace(ctx), "user", userID, "used", count, "remaining", status.Remaining)...)
	return Decision{
		Allowed:   true,
		Remaining: status.Remaining,
		Status:    status,
		Message:   SuccessMessage(status.Remaining),
	}, nil
}

// Status returns userID's quota for today without consuming anything.
func (t *Tracker) Status(ctx context.Context, userID string) (model.QuotaStatus, error) {
	day := model.UTCDay(t.now())
	used, err := t.store.QuotaCount(ctx, Key(userID), day)
	if err != nil {
		return model.QuotaStatus{}, fmt.Errorf("%w: quota status: %w", model.ErrServiceUnavailable, err)
	}
	return model.NewQuotaStatus(t.limit, used, day), nil
}

// AdminReset forces userID's count for today back to zero.
func (t *Tracker) AdminReset(ctx context.Context, userID string) error {
	day := model.UTCDay(t.now())
	if err := t.store.ResetQuota(ctx, Key(userID), day, t.limit); err != nil {
		return fmt.Errorf("%w: quota reset: %w", model.ErrServiceUnavailable, err)
	}
	t.log.Info("quota reset", append(logger.LogWithTrace(ctx), "user", userID, "date", day)...)
	return nil
}

func (t *Tracker) observe(decision string) {
	if t.metrics != nil {
		t.metrics.QuotaDecisions.WithLabelValues(decision).Inc()
	}
}

// ExceededMessage is shown when a search is rejected.
func ExceededMessage(limit int) string {
	return fmt.Sprintf("You have reached your daily limit of %d stock searches. Please try again tomorrow.", limit)
}

// SuccessMessage is shown when a search is admitted.
func SuccessMessage(remaining int) string {
	return fmt.Sprintf("Search successful! You have %d searches remaining today.", remaining)
}
