package strategy

import (
	"strings"
	"testing"

	"stockanalysis/internal/model"
)

func techData(rsi, macd, signal, price, sma20, sma50, volRatio, ch1, ch5 float64) *model.TechnicalData {
	return &model.TechnicalData{
		Symbol:       "TEST",
		Currency:     "USD",
		CurrentPrice: price,
		VolumeRatio:  volRatio,
		Indicators: model.IndicatorSnapshot{
			RSI:           rsi,
			MACD:          macd,
			MACDSignal:    signal,
			SMA20:         sma20,
			SMA50:         sma50,
			PriceChange1D: ch1,
			PriceChange5D: ch5,
		},
	}
}

func assertVotes(t *testing.T, r model.RuleRecommendation, buy, sell, total float64) {
	t.Helper()
	if r.BuySignals != buy || r.SellSignals != sell || r.TotalSignals != total {
		t.Errorf("votes: got buy=%.1f sell=%.1f total=%.1f, want buy=%.1f sell=%.1f total=%.1f",
			r.BuySignals, r.SellSignals, r.TotalSignals, buy, sell, total)
	}
}

func TestEvaluate_StrongBuy(t *testing.T) {
	// RSI oversold +1, MACD above signal and positive +1, price>sma20>sma50 +1,
	// high volume reinforces the leading buy side +0.5 → 3.5/4 = 0.875
	r := Evaluate(techData(25, 2, 1, 110, 105, 100, 2.0, 0, 0))
	if r.Recommendation != model.Buy || r.Confidence != model.ConfidenceHigh {
		t.Errorf("got %s/%s, want BUY/HIGH", r.Recommendation, r.Confidence)
	}
	assertVotes(t, r, 3.5, 0, 4)
}

func TestEvaluate_MediumBuyWithMomentum(t *testing.T) {
	// Previous case plus +3% today and +6% over 5 days → 4.5/6 = 0.75
	r := Evaluate(techData(25, 2, 1, 110, 105, 100, 2.0, 3, 6))
	if r.Recommendation != model.Buy || r.Confidence != model.ConfidenceMedium {
		t.Errorf("got %s/%s, want BUY/MEDIUM", r.Recommendation, r.Confidence)
	}
	assertVotes(t, r, 4.5, 0, 6)
}

func TestEvaluate_StrongSell(t *testing.T) {
	r := Evaluate(techData(75, -1, 0, 90, 95, 100, 0.3, 0, 0))
	if r.Recommendation != model.Sell || r.Confidence != model.ConfidenceHigh {
		t.Errorf("got %s/%s, want SELL/HIGH", r.Recommendation, r.Confidence)
	}
	// Low volume is noted but casts no vote.
	assertVotes(t, r, 0, 3, 3)
	if len(r.KeyPoints) != 4 {
		t.Errorf("expected 4 key points, got %v", r.KeyPoints)
	}
	if !strings.Contains(r.KeyPoints[3], "weak interest") {
		t.Errorf("expected low-volume note, got %q", r.KeyPoints[3])
	}
}

func TestEvaluate_NeutralRSICountsTowardTotal(t *testing.T) {
	// RSI neutral (total only), MACD bullish +1, price>sma20 but sma20<sma50 +0.5
	// → buy 1.5/3 = 0.5, sell 0 → HOLD/MEDIUM
	r := Evaluate(techData(50, 0.5, 0.2, 101, 100, 102, 1.0, 0, 0))
	if r.Recommendation != model.Hold || r.Confidence != model.ConfidenceMedium {
		t.Errorf("got %s/%s, want HOLD/MEDIUM", r.Recommendation, r.Confidence)
	}
	assertVotes(t, r, 1.5, 0, 3)
}

func TestEvaluate_SplitHoldIsLowConfidence(t *testing.T) {
	// RSI neutral, MACD bearish and negative sell+1, partial trend buy+0.5,
	// +3% today buy+0.5 → 1 vs 1 across 4
	r := Evaluate(techData(50, -0.5, 0, 101, 100, 102, 1.0, 3, 0))
	if r.Recommendation != model.Hold || r.Confidence != model.ConfidenceLow {
		t.Errorf("got %s/%s, want HOLD/LOW", r.Recommendation, r.Confidence)
	}
	assertVotes(t, r, 1, 1, 4)
}

func TestEvaluate_HighVolumeTieIsNotedOnly(t *testing.T) {
	// MACD sell+1, trend buy+1 → tie when volume is scored
	r := Evaluate(techData(50, -0.3, 0.1, 110, 105, 100, 2.0, 0, 0))
	assertVotes(t, r, 1, 1, 3)
	found := false
	for _, p := range r.KeyPoints {
		if strings.Contains(p, "strong interest") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a high-interest note, got %v", r.KeyPoints)
	}
}

func TestEvaluate_WeakMACDVotes(t *testing.T) {
	// MACD above signal but negative → buy +0.5
	r := Evaluate(techData(50, -0.2, -0.5, 100, 100, 100, 1.0, 0, 0))
	// trend: price == sma20 → sell +0.5
	assertVotes(t, r, 0.5, 0.5, 3)

	// MACD below signal but positive → sell +0.5
	r = Evaluate(techData(50, 0.2, 0.5, 101, 100, 100, 1.0, 0, 0))
	assertVotes(t, r, 0.5, 0.5, 3)
}

func TestEvaluate_RSIBands(t *testing.T) {
	tests := []struct {
		rsi       float64
		buy, sell float64
	}{
		{65, 0.5, 0},
		{60, 0.5, 0},
		{70, 0.5, 0},
		{35, 0, 0.5},
		{30, 0, 0.5},
		{45, 0, 0},
	}
	for _, tt := range tests {
		// MACD == signal == 0 → sell +0.5; trend price == sma → sell +0.5
		r := Evaluate(techData(tt.rsi, 0, 0, 100, 100, 100, 1.0, 0, 0))
		if r.BuySignals != tt.buy || r.SellSignals != tt.sell+1 || r.TotalSignals != 3 {
			t.Errorf("RSI %.0f: got buy=%.1f sell=%.1f total=%.1f", tt.rsi, r.BuySignals, r.SellSignals, r.TotalSignals)
		}
	}
}

func TestEvaluate_SummaryUsesCurrency(t *testing.T) {
	td := techData(25, 2, 1, 1234.5, 105, 100, 1.0, 0, 0)
	td.Symbol = "RELIANCE"
	td.Currency = "INR"
	r := Evaluate(td)
	if !strings.Contains(r.Summary, "RELIANCE") || !strings.Contains(r.Summary, "₹1,234.50") {
		t.Errorf("unexpected summary %q", r.Summary)
	}
}

func TestEvaluate_Nil(t *testing.T) {
	r := Evaluate(nil)
	if r.Recommendation != model.Hold || r.Confidence != model.ConfidenceLow {
		t.Errorf("got %s/%s, want HOLD/LOW", r.Recommendation, r.Confidence)
	}
}
