// Package analysis orchestrates one analyze request: cache lookup, quota,
// market-data fetch, indicator computation, rule scoring, the optional AI
// narrative and the cache write.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"stockanalysis/internal/cache"
	"stockanalysis/internal/logger"
	"stockanalysis/internal/marketdata"
	"stockanalysis/internal/metrics"
	"stockanalysis/internal/model"
	"stockanalysis/internal/quota"
	"stockanalysis/internal/store/sqlite"
	"stockanalysis/internal/strategy"
)

// Deps are the collaborators of the Service. Narrator, Journal, Metrics and
// Logger are optional.
type Deps struct {
	Cache    *cache.Cache
	Quota    *quota.Tracker
	Market   model.MarketData
	Narrator model.Narrator
	Journal  model.Journal
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// Options tune the Service. Zero values take the defaults.
type Options struct {
	HistoryDays      int           // default 90
	RequestTimeout   time.Duration // default 30s
	NarrativeTimeout time.Duration // default 20s
	Now              func() time.Time
}

// Service is safe for concurrent use.
type Service struct {
	cache    *cache.Cache
	quota    *quota.Tracker
	market   model.MarketData
	narrator model.Narrator
	journal  model.Journal
	metrics  *metrics.Metrics
	log      *slog.Logger

	historyDays      int
	requestTimeout   time.Duration
	narrativeTimeout time.Duration
	now              func() time.Time

	inflight singleflight.Group
}

// New wires a Service.
func New(d Deps, o Options) *Service {
	s := &Service{
		cache:            d.Cache,
		quota:            d.Quota,
		market:           d.Market,
		narrator:         d.Narrator,
		journal:          d.Journal,
		metrics:          d.Metrics,
		log:              d.Logger,
		historyDays:      o.HistoryDays,
		requestTimeout:   o.RequestTimeout,
		narrativeTimeout: o.NarrativeTimeout,
		now:              o.Now,
	}
	if s.journal == nil {
		s.journal = sqlite.Nop{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	if s.historyDays <= 0 {
		s.historyDays = 90
	}
	if s.requestTimeout <= 0 {
		s.requestTimeout = 30 * time.Second
	}
	if s.narrativeTimeout <= 0 {
		s.narrativeTimeout = 20 * time.Second
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// computed is what one cache-miss computation hands to every waiting caller.
type computed struct {
	payload  *model.Payload
	fromHit  bool // another request stored it first
	decision quota.Decision
}

// Analyze serves one analyze request. The returned Result is never nil; on
// failure it carries the message for the caller and err classifies the
// failure (ErrInvalidSymbol, ErrInvalidAnalysisType, ErrQuotaExceeded,
// ErrDataUnavailable or ErrServiceUnavailable).
func (s *Service) Analyze(ctx context.Context, userID, symbol, analysisType string) (*model.Result, error) {
	if logger.TraceID(ctx) == "" {
		ctx = logger.WithTraceID(ctx, logger.NewTraceID(userID))
	}
	ctx, cancel := context.WithTimeout(ctx, s.requestTimeout)
	defer cancel()

	t, err := model.ParseAnalysisType(analysisType)
	if err != nil {
		s.outcome("invalid")
		return &model.Result{Error: err.Error()}, err
	}
	sym, err := marketdata.NormalizeSymbol(symbol)
	if err != nil {
		s.outcome("invalid")
		return &model.Result{Error: err.Error()}, err
	}

	key := s.cache.KeyFor(userID, sym)
	if p, ok := s.cache.Get(ctx, key); ok {
		s.outcome("cache_hit")
		s.log.Info("analysis served from cache", append(logger.LogWithTrace(ctx), "user", userID, "symbol", sym)...)
		return &model.Result{Success: true, Data: p.View(t, true), Quota: s.quotaForHit(ctx, userID)}, nil
	}

	// The flight ignores every caller's cancellation; each caller waits on its own ctx.
	flight := s.inflight.DoChan(key.String(), func() (any, error) {
		fctx, fcancel := context.WithTimeout(context.WithoutCancel(ctx), s.requestTimeout)
		defer fcancel()
		return s.compute(fctx, userID, key)
	})

	var (
		out    *computed
		shared bool
	)
	select {
	case r := <-flight:
		out, _ = r.Val.(*computed)
		err, shared = r.Err, r.Shared
	case <-ctx.Done():
		s.outcome("error")
		err = fmt.Errorf("%w: analysis of %s: %w", model.ErrServiceUnavailable, sym, ctx.Err())
		s.log.Warn("caller gave up on in-flight analysis", append(logger.LogWithTrace(ctx), "user", userID, "symbol", sym, "error", err)...)
		return &model.Result{Error: err.Error()}, err
	}

	switch {
	case errors.Is(err, model.ErrQuotaExceeded):
		s.outcome("quota_exceeded")
		res := &model.Result{Error: err.Error()}
		if out != nil {
			res.Message = out.decision.Message
			res.Quota = &out.decision.Status
		}
		return res, err

	case errors.Is(err, model.ErrDataUnavailable):
		s.outcome("data_unavailable")
		res := &model.Result{Error: err.Error()}
		if out != nil {
			res.Quota = &out.decision.Status
		}
		return res, err

	case err != nil:
		s.outcome("error")
		s.log.Error("analysis failed", append(logger.LogWithTrace(ctx), "user", userID, "symbol", sym, "error", err)...)
		if !errors.Is(err, model.ErrServiceUnavailable) {
			err = fmt.Errorf("%w: %w", model.ErrServiceUnavailable, err)
		}
		return &model.Result{Error: err.Error()}, err
	}

	if out.fromHit {
		s.outcome("cache_hit")
		return &model.Result{Success: true, Data: out.payload.View(t, true), Quota: s.quotaForHit(ctx, userID)}, nil
	}

	s.outcome("computed")
	if shared {
		s.log.Debug("joined in-flight analysis", append(logger.LogWithTrace(ctx), "user", userID, "symbol", sym)...)
	}
	status := out.decision.Status
	return &model.Result{
		Success: true,
		Data:    out.payload.View(t, false),
		Message: out.decision.Message,
		Quota:   &status,
	}, nil
}

// compute runs the cache-miss path once per key. Its result is shared by
// every concurrent caller for the same key.
func (s *Service) compute(ctx context.Context, userID string, key cache.Key) (*computed, error) {
	// Another flight for this key may have finished between our lookup and now.
	if p, ok := s.cache.Get(ctx, key); ok {
		return &computed{payload: p, fromHit: true}, nil
	}

	decision, err := s.quota.CheckAndIncrement(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		return &computed{decision: decision}, model.ErrQuotaExceeded
	}

	series, err := s.fetch(ctx, key.Symbol)
	if err != nil {
		return &computed{decision: decision}, err
	}

	start := time.Now()
	td := BuildTechnicalData(key.Symbol, series)
	rules := strategy.Evaluate(&td)
	if s.metrics != nil {
		s.metrics.IndicatorComputeDur.Observe(time.Since(start).Seconds())
	}

	payload := &model.Payload{
		Symbol:       key.Symbol,
		AnalysisType: model.AnalysisBoth,
		GeneratedAt:  s.now().UTC(),
		Technical:    td,
		RuleAnalysis: &rules,
		AIAnalysis:   s.narrate(ctx, &td),
	}

	if err := s.cache.Store(ctx, key, payload); err != nil {
		s.log.Warn("cache store failed", append(logger.LogWithTrace(ctx), "key", key.String(), "error", err)...)
	}
	s.record(ctx, userID, key, payload)

	s.log.Info("analysis computed", append(logger.LogWithTrace(ctx),
		"user", userID, "symbol", key.Symbol, "variant", td.Variant,
		"recommendation", rules.Recommendation, "remaining", decision.Remaining)...)
	return &computed{payload: payload, decision: decision}, nil
}

// fetch tries every symbol variant in order and returns the first non-empty
// series.
func (s *Service) fetch(ctx context.Context, symbol string) (*model.Series, error) {
	start := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.FetchDuration.Observe(time.Since(start).Seconds())
		}
	}()

	for _, variant := range marketdata.SymbolVariants(symbol) {
		if s.metrics != nil {
			s.metrics.FetchVariantAttempts.Inc()
		}
		series, err := s.market.FetchOHLCV(ctx, variant, s.historyDays)
		if err != nil {
			s.log.Debug("variant fetch failed", append(logger.LogWithTrace(ctx), "variant", variant, "error", err)...)
			if ctx.Err() != nil {
				return nil, fmt.Errorf("%w: fetch %s: %w", model.ErrServiceUnavailable, symbol, ctx.Err())
			}
			continue
		}
		if series.Empty() {
			continue
		}
		series.Symbol = symbol
		series.Variant = variant
		return series, nil
	}
	if ctx.Err() != nil {
		return nil, fmt.Errorf("%w: fetch %s: %w", model.ErrServiceUnavailable, symbol, ctx.Err())
	}
	return nil, fmt.Errorf("%w: no data found for %s", model.ErrDataUnavailable, symbol)
}

// narrate returns the AI narrative, or the unavailable marker on any failure.
func (s *Service) narrate(ctx context.Context, td *model.TechnicalData) *model.AINarrative {
	if s.narrator == nil {
		s.narrativeResult("disabled")
		return model.UnavailableNarrative()
	}

	nctx, cancel := context.WithTimeout(ctx, s.narrativeTimeout)
	defer cancel()

	text, err := s.narrator.Narrate(nctx, td)
	if err != nil {
		s.narrativeResult("error")
		s.log.Warn("AI narrative unavailable", append(logger.LogWithTrace(ctx), "symbol", td.Symbol, "error", err)...)
		return model.UnavailableNarrative()
	}
	s.narrativeResult("ok")
	return &model.AINarrative{Available: true, Text: text}
}

func (s *Service) record(ctx context.Context, userID string, key cache.Key, p *model.Payload) {
	e := model.JournalEntry{
		UserID:    userID,
		Symbol:    key.Symbol,
		Variant:   p.Technical.Variant,
		Day:       key.Day,
		Exchange:  p.Technical.Exchange,
		Currency:  p.Technical.Currency,
		Price:     p.Technical.CurrentPrice,
		CreatedAt: p.GeneratedAt,
	}
	if p.RuleAnalysis != nil {
		e.Recommendation = p.RuleAnalysis.Recommendation
		e.Confidence = p.RuleAnalysis.Confidence
		e.Summary = p.RuleAnalysis.Summary
	}
	if err := s.journal.Record(ctx, e); err != nil {
		s.log.Warn("journal write failed", append(logger.LogWithTrace(ctx), "symbol", key.Symbol, "error", err)...)
	}
}

// quotaForHit reads the quota for a cache-hit response. A failure only drops
// the status from the response; a hit never depends on the quota store.
func (s *Service) quotaForHit(ctx context.Context, userID string) *model.QuotaStatus {
	st, err := s.quota.Status(ctx, userID)
	if err != nil {
		s.log.Warn("quota status unavailable for cache hit", append(logger.LogWithTrace(ctx), "user", userID, "error", err)...)
		return nil
	}
	return &st
}

// QuotaStatus returns userID's quota for today.
func (s *Service) QuotaStatus(ctx context.Context, userID string) (model.QuotaStatus, error) {
	return s.quota.Status(ctx, userID)
}

// ListTodaysSearches returns today's searches with the stored summary,
// oldest first. Entries whose payload already expired are skipped.
func (s *Service) ListTodaysSearches(ctx context.Context, userID string) ([]model.SearchSummary, error) {
	entries, err := s.cache.ListToday(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", model.ErrServiceUnavailable, err)
	}

	out := make([]model.SearchSummary, 0, len(entries))
	for _, e := range entries {
		p, ok := s.cache.Get(ctx, s.cache.KeyFor(userID, e.Symbol))
		if !ok {
			continue
		}
		row := model.SearchSummary{Symbol: e.Symbol, Timestamp: e.Timestamp}
		if p.RuleAnalysis != nil {
			row.Summary = p.RuleAnalysis.Summary
			row.Recommendation = p.RuleAnalysis.Recommendation
			row.Confidence = p.RuleAnalysis.Confidence
		}
		out = append(out, row)
	}
	return out, nil
}

// ClearUserCache deletes userID's analyses for today. Administrative.
func (s *Service) ClearUserCache(ctx context.Context, userID string) (int, error) {
	n, err := s.cache.Clear(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", model.ErrServiceUnavailable, err)
	}
	return n, nil
}

// AdminResetQuota gives userID a fresh quota for today. Administrative.
func (s *Service) AdminResetQuota(ctx context.Context, userID string) error {
	return s.quota.AdminReset(ctx, userID)
}

// History returns up to limit journaled analyses for userID, newest first.
func (s *Service) History(ctx context.Context, userID string, limit int) ([]model.JournalEntry, error) {
	return s.journal.History(ctx, userID, limit)
}

func (s *Service) outcome(o string) {
	if s.metrics != nil {
		s.metrics.AnalysesTotal.WithLabelValues(o).Inc()
	}
}

func (s *Service) narrativeResult(r string) {
	if s.metrics != nil {
		s.metrics.NarrativeTotal.WithLabelValues(r).Inc()
	}
}
