package marketdata

import (
	"errors"
	"slices"
	"testing"

	"stockanalysis/internal/model"
)

func TestSymbolVariants(t *testing.T) {
	got := SymbolVariants("RELIANCE")
	want := []string{"RELIANCE", "RELIANCE.NS", "RELIANCE.BO", "RELIANCE.NSE"}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if got := SymbolVariants("TCS.NS"); !slices.Equal(got, []string{"TCS.NS"}) {
		t.Errorf("suffixed symbol: got %v", got)
	}
	if got := SymbolVariants("^NSEI"); !slices.Equal(got, []string{"^NSEI"}) {
		t.Errorf("index symbol: got %v", got)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	valid := map[string]string{
		" aapl ":     "AAPL",
		"m&m":        "M&M",
		"bajaj-auto": "BAJAJ-AUTO",
		"^nsei":      "^NSEI",
		"tcs.ns":     "TCS.NS",
	}
	for in, want := range valid {
		got, err := NormalizeSymbol(in)
		if err != nil || got != want {
			t.Errorf("NormalizeSymbol(%q) = %q, %v; want %q", in, got, err, want)
		}
	}

	for _, in := range []string{"", "   ", "AA PL", "AAPL:US", "A/B", "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"} {
		if _, err := NormalizeSymbol(in); !errors.Is(err, model.ErrInvalidSymbol) {
			t.Errorf("NormalizeSymbol(%q): expected ErrInvalidSymbol, got %v", in, err)
		}
	}
}
