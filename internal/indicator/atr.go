package indicator

import "math"

// ATR calculates the Average True Range as the simple mean of the last
// period true ranges (no Wilder smoothing). Returns 0 when fewer than
// period+1 bars are available.
func ATR(highs, lows, closes []float64, period int) float64 {
	highs, lows, closes = alignTail(highs, lows, closes)
	if period <= 0 || len(closes) < period+1 {
		return 0.0
	}

	tr := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		tr = append(tr, TrueRange(highs[i], lows[i], closes[i-1]))
	}
	return mean(last(tr, period))
}

// TrueRange is max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(high, low, prevClose float64) float64 {
	return math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
}
