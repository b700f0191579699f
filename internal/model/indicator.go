package model

// Bollinger holds the volatility envelope around the 20-period SMA.
type Bollinger struct {
	Upper float64 `json:"upper"`
	Mid   float64 `json:"mid"`
	Lower float64 `json:"lower"`
}

// Stochastic holds the %K and %D oscillator values.
type Stochastic struct {
	K float64 `json:"k"`
	D float64 `json:"d"`
}

// PivotPoints are the classical floor pivots derived from the latest bar.
type PivotPoints struct {
	Pivot float64 `json:"pivot"`
	R1    float64 `json:"r1"`
	R2    float64 `json:"r2"`
	S1    float64 `json:"s1"`
	S2    float64 `json:"s2"`
}

// IndicatorSnapshot is the full set of indicator values computed for one
// series. It is treated as immutable once produced.
type IndicatorSnapshot struct {
	RSI              float64     `json:"rsi"`
	MACD             float64     `json:"macd"`
	MACDSignal       float64     `json:"macd_signal"`
	SMA20            float64     `json:"sma_20"`
	SMA50            float64     `json:"sma_50"`
	EMA12            float64     `json:"ema_12"`
	EMA26            float64     `json:"ema_26"`
	Bollinger        Bollinger   `json:"bollinger"`
	Stochastic       Stochastic  `json:"stochastic"`
	ATR              float64     `json:"atr"`
	SupportLevels    []float64   `json:"support_levels"`    // ≤3, ascending
	ResistanceLevels []float64   `json:"resistance_levels"` // ≤3, descending
	PivotPoints      PivotPoints `json:"pivot_points"`
	PriceChange1D    float64     `json:"price_change_1d"` // percent
	PriceChange5D    float64     `json:"price_change_5d"` // percent
}
