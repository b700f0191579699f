package format

import "testing"

func TestPrice(t *testing.T) {
	tests := []struct {
		v        float64
		currency string
		want     string
	}{
		{1234.5, "INR", "₹1,234.50"},
		{189.2, "usd", "$189.20"},
		{0.005, "USD", "$0.01"},
		{1234567.891, "EUR", "€1,234,567.89"},
		{999.999, "GBP", "£1,000.00"},
		{-1500, "USD", "-$1,500.00"},
		{42, "CHF", "CHF 42.00"},
		{12.3, "", "12.30"},
		{100, "JPY", "¥100.00"},
	}
	for _, tt := range tests {
		if got := Price(tt.v, tt.currency); got != tt.want {
			t.Errorf("Price(%v, %q) = %q, want %q", tt.v, tt.currency, got, tt.want)
		}
	}
}

func TestPercent(t *testing.T) {
	tests := map[float64]string{
		2.345:  "+2.35",
		-1.2:   "-1.20",
		0:      "0.00",
		10.004: "+10.00",
	}
	for v, want := range tests {
		if got := Percent(v); got != want+"%" {
			t.Errorf("Percent(%v) = %q, want %q", v, got, want+"%")
		}
	}
}

func TestRound(t *testing.T) {
	if got := Round(1.005, 2); got != 1.01 {
		t.Errorf("Round(1.005, 2) = %v, want 1.01", got)
	}
	if got := Round(-2.675, 2); got != -2.68 {
		t.Errorf("Round(-2.675, 2) = %v, want -2.68", got)
	}
	if got := Round(3.14159, 0); got != 3 {
		t.Errorf("Round(3.14159, 0) = %v, want 3", got)
	}
}
