package indicator

import (
	"testing"
	"time"

	"stockanalysis/internal/model"
)

func seriesFrom(closes []float64) *model.Series {
	s := &model.Series{Symbol: "TEST", Currency: "USD"}
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Bars = append(s.Bars, model.Bar{
			Date:   day.AddDate(0, 0, i),
			Open:   c,
			High:   c + 2,
			Low:    c - 1,
			Close:  c,
			Volume: 1000,
		})
	}
	return s
}

func TestCompute_EmptySeriesIsNeutral(t *testing.T) {
	snap := Compute(&model.Series{})

	if snap.RSI != 50 {
		t.Errorf("RSI = %v, want 50", snap.RSI)
	}
	if snap.Stochastic.K != 50 || snap.Stochastic.D != 50 {
		t.Errorf("Stochastic = %+v, want 50/50", snap.Stochastic)
	}
	if snap.MACD != 0 || snap.MACDSignal != 0 || snap.ATR != 0 || snap.SMA20 != 0 {
		t.Errorf("expected zero MACD/ATR/SMA, got %+v", snap)
	}
	if snap.SupportLevels == nil || snap.ResistanceLevels == nil {
		t.Error("levels must be empty slices, not nil")
	}
	if snap.PivotPoints != (model.PivotPoints{}) {
		t.Errorf("pivots = %+v, want zero", snap.PivotPoints)
	}
}

func TestCompute_MatchesIndividualIndicators(t *testing.T) {
	closes := ramp(60, 100, 0.5)
	for i := range closes {
		if i%4 == 0 {
			closes[i] -= 1.5
		}
	}
	s := seriesFrom(closes)
	snap := Compute(s)

	highs, lows := s.Highs(), s.Lows()
	macd, signal := MACD(closes, MACDFast, MACDSlow, MACDSignalPeriod)

	assertClose(t, "RSI", snap.RSI, RSI(closes, RSIPeriod), 1e-12)
	assertClose(t, "MACD", snap.MACD, macd, 1e-12)
	assertClose(t, "MACDSignal", snap.MACDSignal, signal, 1e-12)
	assertClose(t, "SMA20", snap.SMA20, SMA(closes, 20), 1e-12)
	assertClose(t, "SMA50", snap.SMA50, SMA(closes, 50), 1e-12)
	assertClose(t, "EMA12", snap.EMA12, EMA(closes, 12), 1e-12)
	assertClose(t, "EMA26", snap.EMA26, EMA(closes, 26), 1e-12)
	assertClose(t, "ATR", snap.ATR, ATR(highs, lows, closes, ATRPeriod), 1e-12)

	bb := BollingerBands(closes, BollingerPeriod, BollingerK)
	if snap.Bollinger != bb {
		t.Errorf("Bollinger = %+v, want %+v", snap.Bollinger, bb)
	}

	n := len(closes) - 1
	want := PivotPoints(highs[n], lows[n], closes[n])
	if snap.PivotPoints != want {
		t.Errorf("pivots = %+v, want %+v", snap.PivotPoints, want)
	}

	assertClose(t, "PriceChange1D", snap.PriceChange1D, (closes[n]-closes[n-1])/closes[n-1]*100, 1e-9)
	assertClose(t, "PriceChange5D", snap.PriceChange5D, (closes[n]-closes[n-5])/closes[n-5]*100, 1e-9)

	if len(snap.ResistanceLevels) > MaxLevels || len(snap.SupportLevels) > MaxLevels {
		t.Errorf("too many levels: %v / %v", snap.SupportLevels, snap.ResistanceLevels)
	}
}

func TestCompute_ShortSeriesFallbacks(t *testing.T) {
	closes := []float64{10, 11, 12, 13, 14}
	snap := Compute(seriesFrom(closes))

	if snap.RSI != 50 {
		t.Errorf("RSI with 5 closes = %v, want 50", snap.RSI)
	}
	assertClose(t, "SMA20 falls back to mean", snap.SMA20, 12, 1e-12)
	if snap.ATR != 0 {
		t.Errorf("ATR with 5 bars = %v, want 0", snap.ATR)
	}
	if snap.MACD != 0 {
		t.Errorf("MACD with 5 closes = %v, want 0", snap.MACD)
	}
	if snap.PriceChange5D != 0 {
		t.Errorf("5-day change with 5 closes = %v, want 0", snap.PriceChange5D)
	}
}
