package narrative

import (
	"fmt"
	"strings"

	"stockanalysis/internal/format"
	"stockanalysis/internal/model"
)

// SystemPrompt sets the assistant's role for every request.
const SystemPrompt = "You are a professional stock analyst. Provide clear, actionable analysis."

// BuildPrompt renders the user prompt for td. Prices are shown in the
// listing currency.
func BuildPrompt(td *model.TechnicalData) string {
	ind := td.Indicators
	price := func(v float64) string { return format.Price(v, td.Currency) }

	var b strings.Builder
	fmt.Fprintf(&b, "Analyze the following stock data for %s", td.Symbol)
	if td.Exchange != "" {
		fmt.Fprintf(&b, " (%s)", td.Exchange)
	}
	b.WriteString(":\n\n")

	fmt.Fprintf(&b, "Current Price: %s\n", price(td.CurrentPrice))
	fmt.Fprintf(&b, "RSI: %.2f\n", ind.RSI)
	fmt.Fprintf(&b, "MACD: %.2f\n", ind.MACD)
	fmt.Fprintf(&b, "MACD Signal: %.2f\n", ind.MACDSignal)
	fmt.Fprintf(&b, "20-day SMA: %s\n", price(ind.SMA20))
	fmt.Fprintf(&b, "50-day SMA: %s\n", price(ind.SMA50))
	fmt.Fprintf(&b, "1-day Change: %.2f%%\n", ind.PriceChange1D)
	fmt.Fprintf(&b, "5-day Change: %.2f%%\n", ind.PriceChange5D)
	fmt.Fprintf(&b, "Volume Ratio: %.2f\n\n", td.VolumeRatio)

	fmt.Fprintf(&b, "Support Levels: %s\n", levels(ind.SupportLevels, price))
	fmt.Fprintf(&b, "Resistance Levels: %s\n", levels(ind.ResistanceLevels, price))
	p := ind.PivotPoints
	fmt.Fprintf(&b, "Pivot Points: pivot %s, R1 %s, R2 %s, S1 %s, S2 %s\n\n",
		price(p.Pivot), price(p.R1), price(p.R2), price(p.S1), price(p.S2))

	b.WriteString("Please provide:\n")
	b.WriteString("1. Technical analysis summary\n")
	b.WriteString("2. Buy/Sell/Hold recommendation\n")
	b.WriteString("3. Key support and resistance levels\n")
	b.WriteString("4. Risk assessment\n")
	b.WriteString("5. Short-term price targets\n")
	return b.String()
}

func levels(vals []float64, price func(float64) string) string {
	if len(vals) == 0 {
		return "none"
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = price(v)
	}
	return strings.Join(parts, ", ")
}
