// Package indicator provides technical indicator calculations over daily
// price series.
//
// Every function is pure and total: it never panics and never returns an
// error. When the input is shorter than an indicator needs, the function
// returns a documented fallback value instead (neutral RSI, mean of the
// available values, zero ATR and so on).
package indicator

// Default periods used by Compute.
const (
	RSIPeriod        = 14
	MACDFast         = 12
	MACDSlow         = 26
	MACDSignalPeriod = 9
	BollingerPeriod  = 20
	BollingerK       = 2.0
	StochKPeriod     = 14
	StochDPeriod     = 3
	ATRPeriod        = 14
	LevelsWindow     = 20
	MaxLevels        = 3
)

// mean returns the arithmetic mean, or 0 for an empty slice.
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// last returns the trailing n values (all of them if fewer are available).
func last(values []float64, n int) []float64 {
	if n <= 0 || n >= len(values) {
		return values
	}
	return values[len(values)-n:]
}

// alignTail trims highs, lows and closes to their common trailing length so
// index i refers to the same bar in all three.
func alignTail(highs, lows, closes []float64) ([]float64, []float64, []float64) {
	n := min(len(highs), len(lows), len(closes))
	return highs[len(highs)-n:], lows[len(lows)-n:], closes[len(closes)-n:]
}
