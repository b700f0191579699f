// Package marketdata resolves user-entered tickers into the symbol formats
// the market-data source understands.
package marketdata

import (
	"fmt"
	"strings"

	"stockanalysis/internal/model"
)

// Exchange suffixes tried after the bare symbol, in priority order.
var variantSuffixes = []string{".NS", ".BO", ".NSE"}

// maxSymbolLen bounds user input before it reaches cache keys and URLs.
const maxSymbolLen = 32

// NormalizeSymbol trims and uppercases s and rejects anything that is not a
// plausible ticker (letters, digits and . - & ^ only).
func NormalizeSymbol(s string) (string, error) {
	sym := strings.ToUpper(strings.TrimSpace(s))
	if sym == "" || len(sym) > maxSymbolLen {
		return "", fmt.Errorf("%w: %q", model.ErrInvalidSymbol, s)
	}
	for _, r := range sym {
		switch {
		case r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.', r == '-', r == '&', r == '^':
		default:
			return "", fmt.Errorf("%w: %q", model.ErrInvalidSymbol, s)
		}
	}
	return sym, nil
}

// SymbolVariants returns the formats to try for symbol, in order:
// SYM, SYM.NS, SYM.BO, SYM.NSE. A symbol that already carries an exchange
// suffix or is an index (^NSEI) is tried as given only.
func SymbolVariants(symbol string) []string {
	if strings.Contains(symbol, ".") || strings.HasPrefix(symbol, "^") {
		return []string{symbol}
	}
	out := make([]string, 0, len(variantSuffixes)+1)
	out = append(out, symbol)
	for _, suf := range variantSuffixes {
		out = append(out, symbol+suf)
	}
	return out
}
