// Package strategy turns computed technical data into a rule-based
// recommendation.
//
// Each rule casts a weighted vote for the buy or sell side. The final call
// depends on what share of the counted signals each side collected.
package strategy

import (
	"fmt"
	"math"

	"stockanalysis/internal/format"
	"stockanalysis/internal/model"
)

// Thresholds used by Evaluate.
const (
	RSIOverbought   = 70.0
	RSIOversold     = 30.0
	RSIBullishFloor = 60.0
	RSIBearishCeil  = 40.0

	HighVolumeRatio = 1.5
	LowVolumeRatio  = 0.5

	Momentum1D = 2.0 // percent
	Momentum5D = 5.0 // percent

	DecisiveRatio = 0.6
	StrongRatio   = 0.8
	SplitMargin   = 0.2
)

// tally accumulates weighted votes and the notes explaining them.
type tally struct {
	buy, sell, total float64
	points           []string
}

func (t *tally) voteBuy(w float64, note string) {
	t.buy += w
	t.total++
	t.points = append(t.points, note)
}

func (t *tally) voteSell(w float64, note string) {
	t.sell += w
	t.total++
	t.points = append(t.points, note)
}

func (t *tally) note(s string) { t.points = append(t.points, s) }

// Evaluate scores td and returns the recommendation. It is deterministic and
// never fails; a nil td yields a low-confidence HOLD.
func Evaluate(td *model.TechnicalData) model.RuleRecommendation {
	if td == nil {
		return model.RuleRecommendation{
			Recommendation: model.Hold,
			Confidence:     model.ConfidenceLow,
			Summary:        "No technical data available",
			KeyPoints:      []string{},
		}
	}

	var t tally
	ind := td.Indicators

	scoreRSI(&t, ind.RSI)
	scoreMACD(&t, ind.MACD, ind.MACDSignal)
	scoreTrend(&t, td.CurrentPrice, ind.SMA20, ind.SMA50)
	scoreVolume(&t, td.VolumeRatio)
	scoreMomentum(&t, ind.PriceChange1D, ind.PriceChange5D)

	rec, conf := decide(t.buy, t.sell, t.total)

	if t.points == nil {
		t.points = []string{}
	}
	return model.RuleRecommendation{
		Recommendation: rec,
		Confidence:     conf,
		Summary: fmt.Sprintf("%s at %s: %s with %s confidence (%.1f buy vs %.1f sell across %.0f signals)",
			td.Symbol, format.Price(td.CurrentPrice, td.Currency), rec, conf, t.buy, t.sell, t.total),
		KeyPoints:    t.points,
		BuySignals:   t.buy,
		SellSignals:  t.sell,
		TotalSignals: t.total,
	}
}

func scoreRSI(t *tally, rsi float64) {
	switch {
	case rsi > RSIOverbought:
		t.voteSell(1, fmt.Sprintf("RSI %.1f indicates overbought conditions", rsi))
	case rsi < RSIOversold:
		t.voteBuy(1, fmt.Sprintf("RSI %.1f indicates oversold conditions", rsi))
	case rsi >= RSIBullishFloor:
		t.voteBuy(0.5, fmt.Sprintf("RSI %.1f shows bullish momentum", rsi))
	case rsi <= RSIBearishCeil:
		t.voteSell(0.5, fmt.Sprintf("RSI %.1f shows bearish momentum", rsi))
	default:
		// Neutral still counts toward the total.
		t.total++
		t.note(fmt.Sprintf("RSI %.1f is neutral", rsi))
	}
}

func scoreMACD(t *tally, macd, signal float64) {
	if macd > signal {
		w := 0.5
		if macd > 0 {
			w = 1
		}
		t.voteBuy(w, "MACD is bullish (above signal line)")
		return
	}
	w := 0.5
	if macd < 0 {
		w = 1
	}
	t.voteSell(w, "MACD is bearish (below signal line)")
}

func scoreTrend(t *tally, price, sma20, sma50 float64) {
	switch {
	case price > sma20 && sma20 > sma50:
		t.voteBuy(1, "Price above both moving averages - bullish trend")
	case price < sma20 && sma20 < sma50:
		t.voteSell(1, "Price below both moving averages - bearish trend")
	case price > sma20:
		t.voteBuy(0.5, "Price above SMA20 - short-term strength")
	default:
		t.voteSell(0.5, "Price below SMA20 - short-term weakness")
	}
}

// scoreVolume reinforces whichever side leads so far. It runs after the
// price rules and before momentum.
func scoreVolume(t *tally, ratio float64) {
	switch {
	case ratio > HighVolumeRatio:
		note := fmt.Sprintf("High volume (%.1fx average)", ratio)
		switch {
		case t.buy > t.sell:
			t.voteBuy(0.5, note+" confirms buying pressure")
		case t.sell > t.buy:
			t.voteSell(0.5, note+" confirms selling pressure")
		default:
			t.note(note + " indicates strong interest")
		}
	case ratio < LowVolumeRatio:
		t.note(fmt.Sprintf("Low volume (%.1fx average) indicates weak interest", ratio))
	}
}

func scoreMomentum(t *tally, change1d, change5d float64) {
	switch {
	case change1d > Momentum1D:
		t.voteBuy(0.5, fmt.Sprintf("Strong positive momentum (%s today)", format.Percent(change1d)))
	case change1d < -Momentum1D:
		t.voteSell(0.5, fmt.Sprintf("Strong negative momentum (%s today)", format.Percent(change1d)))
	}
	switch {
	case change5d > Momentum5D:
		t.voteBuy(0.5, fmt.Sprintf("5-day uptrend (%s)", format.Percent(change5d)))
	case change5d < -Momentum5D:
		t.voteSell(0.5, fmt.Sprintf("5-day downtrend (%s)", format.Percent(change5d)))
	}
}

func decide(buy, sell, total float64) (model.Recommendation, model.Confidence) {
	if total == 0 {
		return model.Hold, model.ConfidenceLow
	}
	buyRatio, sellRatio := buy/total, sell/total

	switch {
	case buyRatio > DecisiveRatio:
		if buyRatio > StrongRatio {
			return model.Buy, model.ConfidenceHigh
		}
		return model.Buy, model.ConfidenceMedium
	case sellRatio > DecisiveRatio:
		if sellRatio > StrongRatio {
			return model.Sell, model.ConfidenceHigh
		}
		return model.Sell, model.ConfidenceMedium
	case math.Abs(buyRatio-sellRatio) < SplitMargin:
		return model.Hold, model.ConfidenceLow
	default:
		return model.Hold, model.ConfidenceMedium
	}
}
