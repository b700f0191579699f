package model

import (
	"sort"
	"time"
)

// Bar represents one daily OHLCV bar for a security.
// Prices are in the listing currency of the exchange that served the series.
type Bar struct {
	Date   time.Time `json:"date"` // session date (UTC, day-aligned)
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// Series is an ordered daily bar history plus the metadata the market-data
// source reported for it. Bars are strictly ascending by date once Normalize
// has run.
type Series struct {
	Symbol   string `json:"symbol"`   // symbol as requested by the caller
	Variant  string `json:"variant"`  // symbol format that actually returned data
	Exchange string `json:"exchange"` // e.g. "NSI", "NMS"
	Currency string `json:"currency"` // ISO code, e.g. "INR", "USD"
	Bars     []Bar  `json:"bars"`
}

// Len returns the number of bars.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Bars)
}

// Empty reports whether the series carries no bars.
func (s *Series) Empty() bool { return s.Len() == 0 }

// Normalize sorts bars by date and drops duplicate dates, keeping the last
// bar seen for a date (sources re-emit the live session as a trailing bar).
func (s *Series) Normalize() {
	if s.Len() < 2 {
		return
	}
	sort.SliceStable(s.Bars, func(i, j int) bool { return s.Bars[i].Date.Before(s.Bars[j].Date) })

	out := s.Bars[:1]
	for _, b := range s.Bars[1:] {
		last := &out[len(out)-1]
		if sameDay(last.Date, b.Date) {
			*last = b
			continue
		}
		out = append(out, b)
	}
	s.Bars = out
}

// Closes returns the close prices in bar order.
func (s *Series) Closes() []float64 {
	return s.column(func(b Bar) float64 { return b.Close })
}

// Highs returns the high prices in bar order.
func (s *Series) Highs() []float64 {
	return s.column(func(b Bar) float64 { return b.High })
}

// Lows returns the low prices in bar order.
func (s *Series) Lows() []float64 {
	return s.column(func(b Bar) float64 { return b.Low })
}

// Volumes returns the volumes in bar order as float64 for indicator math.
func (s *Series) Volumes() []float64 {
	return s.column(func(b Bar) float64 { return float64(b.Volume) })
}

func (s *Series) column(pick func(Bar) float64) []float64 {
	out := make([]float64, s.Len())
	for i := 0; i < s.Len(); i++ {
		out[i] = pick(s.Bars[i])
	}
	return out
}

// Last returns the most recent bar. ok is false for an empty series.
func (s *Series) Last() (Bar, bool) {
	if s.Empty() {
		return Bar{}, false
	}
	return s.Bars[len(s.Bars)-1], true
}

func sameDay(a, b time.Time) bool {
	a, b = a.UTC(), b.UTC()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}
