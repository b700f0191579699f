package indicator

import (
	"slices"

	"stockanalysis/internal/model"
)

// Stochastic calculates the Stochastic Oscillator.
//
// %K compares the last close with the high/low range of the last kPeriod
// bars; a flat range gives 50. %D is the mean of the trailing dPeriod
// historical %K values, where %K[i] measures close[i-1] against the window
// [i-kPeriod, i). If fewer than dPeriod historical values exist, %D = %K.
// Returns (50, 50) when fewer than kPeriod closes are available.
func Stochastic(highs, lows, closes []float64, kPeriod, dPeriod int) model.Stochastic {
	highs, lows, closes = alignTail(highs, lows, closes)
	if kPeriod <= 0 || len(closes) < kPeriod {
		return model.Stochastic{K: 50, D: 50}
	}

	n := len(closes)
	k := percentK(closes[n-1], lows[n-kPeriod:], highs[n-kPeriod:])

	history := make([]float64, 0, n-kPeriod)
	for i := kPeriod; i < n; i++ {
		history = append(history, percentK(closes[i-1], lows[i-kPeriod:i], highs[i-kPeriod:i]))
	}

	d := k
	if dPeriod > 0 && len(history) >= dPeriod {
		d = mean(history[len(history)-dPeriod:])
	}
	return model.Stochastic{K: k, D: d}
}

func percentK(c float64, lows, highs []float64) float64 {
	lo, hi := slices.Min(lows), slices.Max(highs)
	if hi == lo {
		return 50.0
	}
	return (c - lo) / (hi - lo) * 100
}
