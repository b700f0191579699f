// Package format renders prices and percentages for display.
//
// Values are rounded half away from zero through shopspring/decimal so that
// what the caller sees matches the stored two-decimal figures exactly.
package format

import (
	"strings"

	"github.com/shopspring/decimal"
)

var currencySymbols = map[string]string{
	"USD": "$",
	"INR": "₹",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Round rounds v to places decimal places.
func Round(v float64, places int32) float64 {
	f, _ := decimal.NewFromFloat(v).Round(places).Float64()
	return f
}

// Price formats v with thousands separators and two decimals, prefixed by the
// currency symbol (₹1,234.50). Unknown currencies use the ISO code followed by
// a space; an empty currency yields the bare number.
func Price(v float64, currency string) string {
	num := grouped(decimal.NewFromFloat(v).StringFixed(2))
	code := strings.ToUpper(strings.TrimSpace(currency))
	if sym, ok := currencySymbols[code]; ok {
		if strings.HasPrefix(num, "-") {
			return "-" + sym + num[1:]
		}
		return sym + num
	}
	if code == "" {
		return num
	}
	return code + " " + num
}

// Percent formats v as a signed two-decimal percentage, e.g. "+2.35%".
func Percent(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	s := d.StringFixed(2)
	if d.IsPositive() {
		s = "+" + s
	}
	return s + "%"
}

// grouped inserts thousands separators into a fixed-point number string.
func grouped(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return sign + b.String()
}
