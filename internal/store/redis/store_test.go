package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"stockanalysis/internal/metrics"
	"stockanalysis/internal/model"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewWithClient(client, 3, time.Second), mr
}

func TestStore_SetGetExpire(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, found, err := s.Get(ctx, "k")
	if err != nil || !found || string(v) != "v" {
		t.Fatalf("get: got (%q, %v, %v)", v, found, err)
	}

	mr.FastForward(time.Minute + time.Second)
	_, found, err = s.Get(ctx, "k")
	if err != nil || found {
		t.Errorf("expected expired key to be a miss, got found=%v err=%v", found, err)
	}
}

func TestStore_MissDoesNotTripBreaker(t *testing.T) {
	s, _ := newTestStore(t)
	for i := 0; i < 10; i++ {
		if _, found, err := s.Get(context.Background(), "absent"); err != nil || found {
			t.Fatalf("expected clean miss, got found=%v err=%v", found, err)
		}
	}
	if s.Breaker().CurrentState() != StateClosed {
		t.Errorf("expected breaker Closed, got %v", s.Breaker().CurrentState())
	}
}

func TestStore_IndexFirstWriterWins(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	added, err := s.AddIndexEntry(ctx, "idx", "AAPL", []byte("first"), time.Hour)
	if err != nil || !added {
		t.Fatalf("first add: added=%v err=%v", added, err)
	}
	added, err = s.AddIndexEntry(ctx, "idx", "AAPL", []byte("second"), time.Hour)
	if err != nil || added {
		t.Fatalf("second add: added=%v err=%v", added, err)
	}

	entries, err := s.IndexEntries(ctx, "idx")
	if err != nil {
		t.Fatal(err)
	}
	if entries["AAPL"] != "first" {
		t.Errorf("expected first value to survive, got %q", entries["AAPL"])
	}
	if ttl := mr.TTL("idx"); ttl != time.Hour {
		t.Errorf("expected index TTL 1h, got %v", ttl)
	}

	if err := s.Delete(ctx, "idx"); err != nil {
		t.Fatal(err)
	}
	entries, _ = s.IndexEntries(ctx, "idx")
	if len(entries) != 0 {
		t.Errorf("expected empty index after delete, got %v", entries)
	}
}

func TestStore_IncrementQuota(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		allowed, count, err := s.IncrementQuota(ctx, "q", "2026-03-02", 3)
		if err != nil || !allowed || count != i {
			t.Fatalf("call %d: allowed=%v count=%d err=%v", i, allowed, count, err)
		}
	}

	allowed, count, err := s.IncrementQuota(ctx, "q", "2026-03-02", 3)
	if err != nil || allowed || count != 3 {
		t.Fatalf("4th call: allowed=%v count=%d err=%v", allowed, count, err)
	}
	if got := mr.HGet("q", "count"); got != "3" {
		t.Errorf("rejected call must not mutate count, got %q", got)
	}

	// Next day resets lazily.
	allowed, count, err = s.IncrementQuota(ctx, "q", "2026-03-03", 3)
	if err != nil || !allowed || count != 1 {
		t.Fatalf("next day: allowed=%v count=%d err=%v", allowed, count, err)
	}
	if got := mr.HGet("q", "date"); got != "2026-03-03" {
		t.Errorf("expected date rolled to 2026-03-03, got %q", got)
	}
}

func TestStore_QuotaCountAndReset(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()

	if n, err := s.QuotaCount(ctx, "q", "2026-03-02"); err != nil || n != 0 {
		t.Fatalf("fresh: n=%d err=%v", n, err)
	}

	s.IncrementQuota(ctx, "q", "2026-03-02", 10)
	s.IncrementQuota(ctx, "q", "2026-03-02", 10)
	if n, _ := s.QuotaCount(ctx, "q", "2026-03-02"); n != 2 {
		t.Errorf("expected 2, got %d", n)
	}

	// Reading on a later day resets the stored record.
	if n, _ := s.QuotaCount(ctx, "q", "2026-03-03"); n != 0 {
		t.Errorf("expected 0 after rollover, got %d", n)
	}
	if got := mr.HGet("q", "date"); got != "2026-03-03" {
		t.Errorf("expected date 2026-03-03, got %q", got)
	}

	s.IncrementQuota(ctx, "q", "2026-03-03", 10)
	if err := s.ResetQuota(ctx, "q", "2026-03-03", 10); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.QuotaCount(ctx, "q", "2026-03-03"); n != 0 {
		t.Errorf("expected 0 after reset, got %d", n)
	}
}

func TestStore_BreakerOpensOnOutage(t *testing.T) {
	s, mr := newTestStore(t)
	ctx := context.Background()
	mr.Close()

	for i := 0; i < 3; i++ {
		if _, _, err := s.Get(ctx, "k"); err == nil {
			t.Fatalf("call %d: expected error with server down", i)
		}
	}
	_, _, err := s.Get(ctx, "k")
	if !errors.Is(err, ErrCircuitOpen) || !errors.Is(err, model.ErrPersistenceUnavailable) {
		t.Errorf("expected open breaker, got %v", err)
	}
}

func TestStore_CancelledCallersDoNotTripBreaker(t *testing.T) {
	s, _ := newTestStore(t)
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	for i := 0; i < 5; i++ {
		if _, _, err := s.IncrementQuota(cancelled, "quota:user:alice", "2026-03-02", 10); err == nil {
			t.Fatalf("call %d: expected an error on a cancelled context", i)
		}
		if _, _, err := s.Get(cancelled, "k"); err == nil {
			t.Fatalf("call %d: expected an error on a cancelled context", i)
		}
	}
	if s.Breaker().CurrentState() != StateClosed {
		t.Fatalf("expected breaker Closed, got %v", s.Breaker().CurrentState())
	}

	allowed, count, err := s.IncrementQuota(context.Background(), "quota:user:bob", "2026-03-02", 10)
	if err != nil || !allowed || count != 1 {
		t.Errorf("healthy backend must admit bob: allowed=%v count=%d err=%v", allowed, count, err)
	}
}

func TestStore_InstrumentExportsTrips(t *testing.T) {
	s, mr := newTestStore(t)
	m := metrics.NewMetrics()
	s.Instrument(m)
	mr.Close()

	for i := 0; i < 3; i++ {
		s.Get(context.Background(), "k")
	}
	if got := testutil.ToFloat64(m.StoreCircuitBreakerTrips); got != 1 {
		t.Errorf("expected 1 trip, got %v", got)
	}
	if got := testutil.ToFloat64(m.StoreCircuitBreakerState); got != float64(StateOpen) {
		t.Errorf("expected state gauge %d, got %v", StateOpen, got)
	}
}
