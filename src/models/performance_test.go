package models

import (
	"encoding/json"
	"testing"
)

func TestNewPerformanceRow(t *testing.T) {
	row := NewPerformanceRow(map[string]any{
		"Ticker":        "aaa",
		" DATE ":        "2025-07-31",
		"Kind":          "benchmark",
		"ytd_return":    "5%",
		"Expense_Ratio": json.Number("0.45"),
		"comment":       "ignored",
	})
	if row.Ticker != "aaa" || row.Date != "2025-07-31" || row.Kind != "benchmark" {
		t.Errorf("NewPerformanceRow() = %+v", row)
	}
	if len(row.Values) != 2 {
		t.Errorf("Values = %v, want ytd_return and expense_ratio only", row.Values)
	}
	if _, ok := row.Values["expense_ratio"]; !ok {
		t.Errorf("Values = %v, want expense_ratio", row.Values)
	}
}

func TestMetrics_CloneIsDeep(t *testing.T) {
	var m Metrics
	m.Set("sharpe_ratio_3y", Float(1.2))
	c := m.Clone()
	*c.SharpeRatio3Y = 9
	if *m.SharpeRatio3Y != 1.2 {
		t.Errorf("Clone() shares storage: original = %v", *m.SharpeRatio3Y)
	}
	if c.AllNull() || !(&Metrics{}).AllNull() {
		t.Error("AllNull() mismatch")
	}
}

func TestMetrics_GetSet(t *testing.T) {
	var m Metrics
	if m.Set("nope", Float(1)) {
		t.Error("Set() accepted an unknown metric")
	}
	for i, name := range MetricNames {
		if !m.Set(name, Float(float64(i))) {
			t.Fatalf("Set(%q) = false", name)
		}
	}
	for i, v := range m.Values() {
		if v == nil || *v != float64(i) {
			t.Errorf("Values()[%d] = %v, want %d", i, v, i)
		}
	}
	if v, ok := m.Get("manager_tenure"); !ok || v == nil {
		t.Errorf("Get(manager_tenure) = %v, %v", v, ok)
	}
}

func TestParseDestination(t *testing.T) {
	if d, ok := ParseDestination(" Benchmark "); !ok || d != Benchmark {
		t.Errorf("ParseDestination(Benchmark) = %q, %v", d, ok)
	}
	if _, ok := ParseDestination("index"); ok {
		t.Error("ParseDestination(index) ok = true, want false")
	}
}
