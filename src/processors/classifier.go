// src/processors/classifier.go
package processors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/utils"
)

var (
	ErrMissingTicker = errors.New("ticker is empty after normalization")
	ErrInvalidDate   = errors.New("date could not be resolved")
)

// ClassifiedRow is a row after routing, key derivation and metric normalization.
type ClassifiedRow struct {
	Index       int
	Destination models.Destination
	Key         models.NaturalKey
	Metrics     models.Metrics
	// Err is set when the row cannot be persisted; Key then has an empty part.
	Err error
}

// Valid reports whether the row carries a complete natural key.
func (r ClassifiedRow) Valid() bool { return r.Key.Ticker != "" && r.Key.Date != "" }

type RowClassifier struct{}

func NewRowClassifier() *RowClassifier { return &RowClassifier{} }

// Classify trusts the caller-supplied kind: only "benchmark" routes to the
// benchmark table, everything else (including no kind at all) is a fund.
func (c *RowClassifier) Classify(row models.PerformanceRow) ClassifiedRow {
	out := ClassifiedRow{
		Destination: DestinationForKind(row.Kind),
		Key:         models.NaturalKey{Ticker: NormalizeTicker(row.Ticker)},
	}

	date, err := utils.NormalizeDate(row.Date)
	if err != nil {
		out.Err = fmt.Errorf("%w: %v", ErrInvalidDate, err)
	} else {
		out.Key.Date = date
	}
	if out.Key.Ticker == "" && out.Err == nil {
		out.Err = ErrMissingTicker
	}

	for name, raw := range row.Values {
		out.Metrics.Set(name, utils.NormalizeMetric(raw))
	}
	return out
}

// ClassifyAll classifies rows in order and groups them by destination.
func (c *RowClassifier) ClassifyAll(rows []models.PerformanceRow) map[models.Destination][]ClassifiedRow {
	grouped := make(map[models.Destination][]ClassifiedRow, len(models.Destinations))
	for i, row := range rows {
		cr := c.Classify(row)
		cr.Index = i
		grouped[cr.Destination] = append(grouped[cr.Destination], cr)
	}
	return grouped
}

// DestinationForKind maps a row's kind field to its table.
func DestinationForKind(kind string) models.Destination {
	if strings.EqualFold(strings.TrimSpace(kind), string(models.Benchmark)) {
		return models.Benchmark
	}
	return models.Fund
}

// NormalizeTicker upper-cases s and keeps only A-Z and 0-9.
func NormalizeTicker(s string) string {
	s = strings.ToUpper(s)
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			b.WriteByte(ch)
		}
	}
	return b.String()
}
