package utils

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// missingSentinels are cell values that deliberately mean "no value".
var missingSentinels = map[string]bool{
	"n/a":  true,
	"-":    true,
	"—":    true, // em dash
	"–":    true, // en dash
	"null": true,
}

// NormalizeMetric converts a raw metric cell into a float, or nil when the cell
// is empty, a missing-value sentinel, or not a number once currency, percent
// and thousands decoration is removed. Accounting negatives "(12.5)" are honoured.
// It never panics.
func NormalizeMetric(raw any) *float64 {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		return normalizeText(v)
	case json.Number:
		return normalizeText(string(v))
	case decimal.Decimal:
		return decimalFloat(v, false)
	case *float64:
		if v == nil {
			return nil
		}
		return finite(*v)
	case float64:
		return finite(v)
	case float32:
		return finite(float64(v))
	case int:
		return finite(float64(v))
	case int8:
		return finite(float64(v))
	case int16:
		return finite(float64(v))
	case int32:
		return finite(float64(v))
	case int64:
		return finite(float64(v))
	case uint:
		return finite(float64(v))
	case uint8:
		return finite(float64(v))
	case uint16:
		return finite(float64(v))
	case uint32:
		return finite(float64(v))
	case uint64:
		return finite(float64(v))
	default:
		return nil
	}
}

func normalizeText(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if missingSentinels[strings.ToLower(s)] {
		return nil
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.NewReplacer("%", "", "$", "", ",", "").Replace(s)
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return decimalFloat(d, negative)
}

// Decimal magnitudes outside these bounds overflow or underflow float64.
const (
	maxDecimalMagnitude = 310
	minDecimalMagnitude = -330
)

func decimalFloat(d decimal.Decimal, negative bool) *float64 {
	if d.IsZero() {
		f := 0.0
		return &f
	}
	magnitude := int64(d.NumDigits()) + int64(d.Exponent())
	if magnitude > maxDecimalMagnitude {
		return nil
	}
	if magnitude < minDecimalMagnitude {
		f := 0.0
		return &f
	}
	f, _ := d.Float64()
	if negative {
		f = -f
	}
	return finite(f)
}

func finite(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}
