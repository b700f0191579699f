package indicator

import (
	"math"

	"stockanalysis/internal/model"
)

// SMA calculates the Simple Moving Average of the last period values.
// With fewer values available it averages all of them.
func SMA(values []float64, period int) float64 {
	return mean(last(values, period))
}

// BollingerBands returns SMA(period) ± k population standard deviations of
// the last period closes. With insufficient data all three bands equal the
// mean of the available closes.
func BollingerBands(closes []float64, period int, k float64) model.Bollinger {
	if period <= 0 || len(closes) < period {
		m := mean(closes)
		return model.Bollinger{Upper: m, Mid: m, Lower: m}
	}

	mid := SMA(closes, period)
	std := stdDev(last(closes, period), mid)
	return model.Bollinger{
		Upper: mid + k*std,
		Mid:   mid,
		Lower: mid - k*std,
	}
}

// stdDev is the population standard deviation (divide by N) around m.
func stdDev(values []float64, m float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}
