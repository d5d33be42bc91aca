// src/models/performance.go
package models

import (
	"strings"
	"time"
)

// Destination names the table a performance row is routed to.
type Destination string

const (
	Fund      Destination = "fund"
	Benchmark Destination = "benchmark"
)

// Destinations lists every destination table in a stable order.
var Destinations = []Destination{Fund, Benchmark}

func (d Destination) String() string { return string(d) }

// ParseDestination accepts "fund" or "benchmark" (any case).
func ParseDestination(s string) (Destination, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fund":
		return Fund, true
	case "benchmark":
		return Benchmark, true
	}
	return "", false
}

// DateLayout is the canonical snapshot date format.
const DateLayout = "2006-01-02"

// PerformanceRow is one input row as handed over by the file/UI layer.
// Values holds raw metric cells keyed by canonical metric name; anything
// not in MetricNames is ignored downstream.
type PerformanceRow struct {
	Ticker string         `json:"ticker"`
	Date   any            `json:"date"`
	Kind   string         `json:"kind,omitempty"`
	Values map[string]any `json:"values,omitempty"`
}

// NewPerformanceRow builds a row from a loosely typed field bag such as a
// decoded JSON object or a CSV record keyed by header.
func NewPerformanceRow(fields map[string]any) PerformanceRow {
	row := PerformanceRow{Values: make(map[string]any)}
	for key, value := range fields {
		switch k := strings.ToLower(strings.TrimSpace(key)); k {
		case "ticker":
			row.Ticker = stringValue(value)
		case "date":
			row.Date = value
		case "kind":
			row.Kind = stringValue(value)
		default:
			if IsMetric(k) {
				row.Values[k] = value
			}
		}
	}
	return row
}

func stringValue(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case interface{ String() string }:
		return s.String()
	default:
		return ""
	}
}

// PerformanceRecord is a row in either destination table. ID, CreatedAt and
// UpdatedAt are assigned by the store.
type PerformanceRecord struct {
	ID          int64       `json:"id,omitempty"`
	Destination Destination `json:"kind"`
	Ticker      string      `json:"ticker"`
	Date        string      `json:"date"`
	Metrics     Metrics     `json:"metrics"`
	CreatedAt   time.Time   `json:"created_at,omitempty"`
	UpdatedAt   time.Time   `json:"updated_at,omitempty"`
}

// NaturalKey is the business key of a record within its table.
type NaturalKey struct {
	Ticker string
	Date   string
}

func (r PerformanceRecord) Key() NaturalKey { return NaturalKey{Ticker: r.Ticker, Date: r.Date} }

// WithoutIdentity returns a copy stripped of store-assigned fields.
func (r PerformanceRecord) WithoutIdentity() PerformanceRecord {
	r.ID = 0
	r.CreatedAt = time.Time{}
	r.UpdatedAt = time.Time{}
	r.Metrics = r.Metrics.Clone()
	return r
}

// IsRowField reports whether name is a field PerformanceRow understands.
func IsRowField(name string) bool {
	switch name {
	case "ticker", "date", "kind":
		return true
	}
	return IsMetric(name)
}
