package indicator

import "stockanalysis/internal/model"

// PercentChange returns the percent move of the last close versus the close
// lookback bars earlier. Returns 0 when the series is too short or the
// reference close is zero.
func PercentChange(closes []float64, lookback int) float64 {
	n := len(closes)
	if lookback <= 0 || n <= lookback {
		return 0
	}
	ref := closes[n-1-lookback]
	if ref == 0 {
		return 0
	}
	return (closes[n-1] - ref) / ref * 100
}

// Compute runs every indicator over the series with the default periods.
// An empty series yields the neutral snapshot (RSI 50, stochastic 50/50,
// everything else zero).
func Compute(s *model.Series) model.IndicatorSnapshot {
	closes, highs, lows := s.Closes(), s.Highs(), s.Lows()

	macd, signal := MACD(closes, MACDFast, MACDSlow, MACDSignalPeriod)
	support, resistance, pivots := SupportResistance(highs, lows, closes, LevelsWindow)

	return model.IndicatorSnapshot{
		RSI:              RSI(closes, RSIPeriod),
		MACD:             macd,
		MACDSignal:       signal,
		SMA20:            SMA(closes, 20),
		SMA50:            SMA(closes, 50),
		EMA12:            EMA(closes, 12),
		EMA26:            EMA(closes, 26),
		Bollinger:        BollingerBands(closes, BollingerPeriod, BollingerK),
		Stochastic:       Stochastic(highs, lows, closes, StochKPeriod, StochDPeriod),
		ATR:              ATR(highs, lows, closes, ATRPeriod),
		SupportLevels:    support,
		ResistanceLevels: resistance,
		PivotPoints:      pivots,
		PriceChange1D:    PercentChange(closes, 1),
		PriceChange5D:    PercentChange(closes, 5),
	}
}
