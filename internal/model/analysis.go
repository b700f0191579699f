package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// AnalysisType selects which parts of a stored analysis the caller receives.
type AnalysisType string

const (
	AnalysisTechnical AnalysisType = "technical"
	AnalysisAI        AnalysisType = "ai"
	AnalysisBoth      AnalysisType = "both"
)

// ParseAnalysisType validates a caller-supplied type. Blank means technical.
func ParseAnalysisType(s string) (AnalysisType, error) {
	switch t := AnalysisType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return AnalysisTechnical, nil
	case AnalysisTechnical, AnalysisAI, AnalysisBoth:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAnalysisType, s)
	}
}

// WantsRules reports whether the rule-based recommendation belongs in the view.
func (t AnalysisType) WantsRules() bool { return t == AnalysisTechnical || t == AnalysisBoth }

// WantsAI reports whether the AI narrative belongs in the view.
func (t AnalysisType) WantsAI() bool { return t == AnalysisAI || t == AnalysisBoth }

// Recommendation is the rule-based verdict.
type Recommendation string

const (
	Buy  Recommendation = "BUY"
	Sell Recommendation = "SELL"
	Hold Recommendation = "HOLD"
)

// Confidence grades a Recommendation.
type Confidence string

const (
	ConfidenceLow    Confidence = "LOW"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceHigh   Confidence = "HIGH"
)

// TechnicalData is the numeric part of an analysis.
type TechnicalData struct {
	Symbol       string            `json:"symbol"`
	Variant      string            `json:"variant"`
	Exchange     string            `json:"exchange,omitempty"`
	Currency     string            `json:"currency,omitempty"`
	CurrentPrice float64           `json:"current_price"`
	PriceDisplay string            `json:"price_display"`
	Volume       int64             `json:"volume"`
	VolumeSMA20  float64           `json:"volume_sma_20"`
	VolumeRatio  float64           `json:"volume_ratio"`
	Bars         int               `json:"bars"`
	Indicators   IndicatorSnapshot `json:"indicators"`
}

// RuleRecommendation is derived deterministically from TechnicalData.
type RuleRecommendation struct {
	Recommendation Recommendation `json:"recommendation"`
	Confidence     Confidence     `json:"confidence"`
	Summary        string         `json:"summary"`
	KeyPoints      []string       `json:"key_points"`
	BuySignals     float64        `json:"buy_signals"`
	SellSignals    float64        `json:"sell_signals"`
	TotalSignals   float64        `json:"total_signals"`
}

// NarrativeUnavailableMessage marks an analysis whose AI narrative could not be produced.
const NarrativeUnavailableMessage = "AI analysis unavailable"

// AINarrative is the optional free-text analysis.
type AINarrative struct {
	Available bool   `json:"available"`
	Text      string `json:"text,omitempty"`
	Message   string `json:"message,omitempty"`
}

// UnavailableNarrative returns the explicit marker stored when narration fails.
func UnavailableNarrative() *AINarrative {
	return &AINarrative{Message: NarrativeUnavailableMessage}
}

// Payload is the cached value for one (user, symbol, day). It always holds
// the full analysis regardless of the type originally requested.
type Payload struct {
	Symbol       string              `json:"symbol"`
	AnalysisType AnalysisType        `json:"analysis_type"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Technical    TechnicalData       `json:"technical_data"`
	RuleAnalysis *RuleRecommendation `json:"rule_analysis,omitempty"`
	AIAnalysis   *AINarrative        `json:"ai_analysis,omitempty"`
}

// JSON returns the JSON-encoded payload.
func (p *Payload) JSON() ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload parses a cached payload.
func DecodePayload(data []byte) (*Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return &p, nil
}

// View filters the payload down to what t asks for. The rule analysis is
// kept as a fallback whenever the AI narrative is not available.
func (p *Payload) View(t AnalysisType, cached bool) *AnalysisView {
	v := &AnalysisView{
		Symbol:       p.Symbol,
		AnalysisType: t,
		GeneratedAt:  p.GeneratedAt,
		Cached:       cached,
		Technical:    p.Technical,
	}
	aiOK := p.AIAnalysis != nil && p.AIAnalysis.Available
	if t.WantsAI() {
		v.AIAnalysis = p.AIAnalysis
		if v.AIAnalysis == nil {
			v.AIAnalysis = UnavailableNarrative()
		}
	}
	if t.WantsRules() || !aiOK {
		v.RuleAnalysis = p.RuleAnalysis
	}
	return v
}

// AnalysisView is what the caller receives for an analyze request.
type AnalysisView struct {
	Symbol       string              `json:"symbol"`
	AnalysisType AnalysisType        `json:"analysis_type"`
	GeneratedAt  time.Time           `json:"generated_at"`
	Cached       bool                `json:"cached"`
	Technical    TechnicalData       `json:"technical_data"`
	RuleAnalysis *RuleRecommendation `json:"rule_analysis,omitempty"`
	AIAnalysis   *AINarrative        `json:"ai_analysis,omitempty"`
}

// QuotaStatus is the read-only view of a user's daily search quota.
type QuotaStatus struct {
	Limit     int    `json:"daily_limit"`
	Used      int    `json:"used_today"`
	Remaining int    `json:"remaining_today"`
	CanSearch bool   `json:"can_search"`
	Date      string `json:"date"`
}

// NewQuotaStatus derives remaining/canSearch from used and limit.
func NewQuotaStatus(limit, used int, day string) QuotaStatus {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaStatus{Limit: limit, Used: used, Remaining: remaining, CanSearch: remaining > 0, Date: day}
}

// Result is the response of an analyze request.
type Result struct {
	Success bool          `json:"success"`
	Data    *AnalysisView `json:"data,omitempty"`
	Error   string        `json:"error,omitempty"`
	Message string        `json:"message,omitempty"`
	Quota   *QuotaStatus  `json:"quota_status,omitempty"`
}

// SearchEntry is one slot in a user's daily index.
type SearchEntry struct {
	Symbol    string    `json:"symbol"`
	Timestamp time.Time `json:"timestamp"`
	Key       string    `json:"cache_key"`
}

// SearchSummary is a listing row for today's searches.
type SearchSummary struct {
	Symbol         string         `json:"symbol"`
	Timestamp      time.Time      `json:"timestamp"`
	Summary        string         `json:"summary"`
	Recommendation Recommendation `json:"recommendation,omitempty"`
	Confidence     Confidence     `json:"confidence,omitempty"`
}

// JournalEntry is one durable record of a freshly computed analysis.
type JournalEntry struct {
	UserID         string         `json:"user_id"`
	Symbol         string         `json:"symbol"`
	Variant        string         `json:"variant"`
	Day            string         `json:"day"`
	Exchange       string         `json:"exchange"`
	Currency       string         `json:"currency"`
	Price          float64        `json:"price"`
	Recommendation Recommendation `json:"recommendation"`
	Confidence     Confidence     `json:"confidence"`
	Summary        string         `json:"summary"`
	CreatedAt      time.Time      `json:"created_at"`
}
