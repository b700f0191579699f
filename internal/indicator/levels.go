package indicator

import (
	"slices"

	"stockanalysis/internal/model"
)

// SupportResistance finds swing levels in the last window bars and the
// classical pivots of the most recent bar.
//
// Resistance levels are distinct local maxima of the highs (strictly above
// both neighbours), highest first, at most three. Support levels are distinct
// local minima of the lows, lowest first, at most three.
func SupportResistance(highs, lows, closes []float64, window int) (support, resistance []float64, pivots model.PivotPoints) {
	highs, lows, closes = alignTail(highs, lows, closes)
	if len(closes) == 0 {
		return []float64{}, []float64{}, model.PivotPoints{}
	}

	recentHighs := last(highs, window)
	recentLows := last(lows, window)

	var peaks, troughs []float64
	for i := 1; i < len(recentHighs)-1; i++ {
		if recentHighs[i] > recentHighs[i-1] && recentHighs[i] > recentHighs[i+1] {
			peaks = append(peaks, recentHighs[i])
		}
	}
	for i := 1; i < len(recentLows)-1; i++ {
		if recentLows[i] < recentLows[i-1] && recentLows[i] < recentLows[i+1] {
			troughs = append(troughs, recentLows[i])
		}
	}

	resistance = topDistinct(peaks, true)
	support = topDistinct(troughs, false)

	n := len(closes) - 1
	pivots = PivotPoints(highs[n], lows[n], closes[n])
	return support, resistance, pivots
}

// PivotPoints computes floor-trader pivots from one bar.
func PivotPoints(high, low, lastClose float64) model.PivotPoints {
	pivot := (high + low + lastClose) / 3
	return model.PivotPoints{
		Pivot: pivot,
		R1:    2*pivot - low,
		R2:    pivot + (high - low),
		S1:    2*pivot - high,
		S2:    pivot - (high - low),
	}
}

// topDistinct de-duplicates levels, sorts them and keeps MaxLevels.
func topDistinct(levels []float64, descending bool) []float64 {
	out := slices.Clone(levels)
	slices.Sort(out)
	out = slices.Compact(out)
	if descending {
		slices.Reverse(out)
	}
	if len(out) > MaxLevels {
		out = out[:MaxLevels]
	}
	if out == nil {
		out = []float64{}
	}
	return out
}
