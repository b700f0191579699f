package indicator

// EMA calculates the Exponential Moving Average of values.
//
// The EMA is seeded with the simple mean of the first period values and then
// follows EMA = price*k + EMA_prev*(1-k) with k = 2/(period+1).
// With fewer than period values it returns their plain mean.
func EMA(values []float64, period int) float64 {
	if period <= 0 || len(values) < period {
		return mean(values)
	}

	multiplier := 2.0 / float64(period+1)
	ema := mean(values[:period])
	for _, v := range values[period:] {
		ema = (v * multiplier) + (ema * (1 - multiplier))
	}
	return ema
}

// MACD returns the MACD line and its signal line.
//
// The line is EMA(fast) - EMA(slow) over the whole series. The signal line is
// the EMA(signal) of the MACD value recomputed from scratch at every prefix
// closes[:i+1]; prefixes shorter than slow contribute 0. Quadratic in the
// series length. Returns (0, 0) when fewer than slow+signal closes exist.
func MACD(closes []float64, fast, slow, signal int) (macd, signalLine float64) {
	if len(closes) < slow+signal {
		return 0, 0
	}

	macd = EMA(closes, fast) - EMA(closes, slow)

	history := make([]float64, len(closes))
	for i := range closes {
		if i >= slow-1 {
			prefix := closes[:i+1]
			history[i] = EMA(prefix, fast) - EMA(prefix, slow)
		}
	}

	return macd, EMA(history, signal)
}
