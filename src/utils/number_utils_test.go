package utils

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestNormalizeMetric_Missing(t *testing.T) {
	inputs := []any{
		nil, "", "   ", "N/A", "n/a", "-", "—", "–", "null", "NULL", "Null",
		"abc", "(", "()", "%", "$", "$-", "1.2.3",
		"1e400", "(1e400)", "1e100000000", "-1e2147483647",
		decimal.New(1, 100000000),
		math.NaN(), math.Inf(1), math.Inf(-1),
		struct{}{}, []string{"1"},
	}
	for _, in := range inputs {
		if got := NormalizeMetric(in); got != nil {
			t.Errorf("NormalizeMetric(%#v) = %v, want nil", in, *got)
		}
	}
}

func TestNormalizeMetric_Values(t *testing.T) {
	f := 3.5
	var nilFloat *float64
	tests := []struct {
		name string
		in   any
		want float64
	}{
		{"accounting negative percent", "(12.5%)", -12.5},
		{"thousands separator", "1,234.50", 1234.50},
		{"percent", "10%", 10},
		{"currency", "$1,000", 1000},
		{"plain negative", "-0.75", -0.75},
		{"padded", "  42 ", 42},
		{"parenthesised currency", "($3.25)", -3.25},
		{"float passthrough", 5.25, 5.25},
		{"int passthrough", 7, 7},
		{"int64", int64(-3), -3},
		{"uint8", uint8(9), 9},
		{"float32", float32(0.5), 0.5},
		{"json number", json.Number("1.25"), 1.25},
		{"decimal", decimal.RequireFromString("2.75"), 2.75},
		{"pointer", &f, 3.5},
		{"scientific", "1.5e3", 1500},
		{"underflow", "-1e-100000000", 0},
		{"zero with huge exponent", "0e100000000", 0},
		{"decimal underflow", decimal.New(1, -100000000), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeMetric(tt.in)
			if got == nil {
				t.Fatalf("NormalizeMetric(%#v) = nil, want %v", tt.in, tt.want)
			}
			if math.Abs(*got-tt.want) > 1e-9 {
				t.Errorf("NormalizeMetric(%#v) = %v, want %v", tt.in, *got, tt.want)
			}
		})
	}

	if got := NormalizeMetric(nilFloat); got != nil {
		t.Errorf("NormalizeMetric(nil *float64) = %v, want nil", *got)
	}
}

func TestNormalizeMetric_HugeExponentsStayCheap(t *testing.T) {
	inputs := []any{
		"1e100000000", "-1e-100000000", "1e2000000000", "(1e-2000000000%)",
		json.Number("9e2147483647"), decimal.New(7, 2000000000), decimal.New(7, -2000000000),
	}
	start := time.Now()
	for _, in := range inputs {
		NormalizeMetric(in)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("NormalizeMetric over huge exponents took %v, want well under a second", elapsed)
	}
}
