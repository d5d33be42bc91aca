package processors

import (
	"github.com/username/perfsnap/src/models"
)

// DedupResult is the persistable form of a batch bound for one table.
type DedupResult struct {
	Records []models.PerformanceRecord
	// Dropped counts rows without a usable ticker or date.
	Dropped int
	// Duplicates counts rows superseded by a later row with the same key.
	Duplicates int
}

type Deduplicator struct{}

func NewDeduplicator() *Deduplicator { return &Deduplicator{} }

// Reconcile drops rows with an incomplete key and keeps, per natural key, the
// last row in input order. Records come back in order of first appearance.
func (d *Deduplicator) Reconcile(rows []ClassifiedRow) DedupResult {
	var result DedupResult
	positions := make(map[models.NaturalKey]int, len(rows))

	for _, row := range rows {
		if !row.Valid() {
			result.Dropped++
			continue
		}
		rec := models.PerformanceRecord{
			Destination: row.Destination,
			Ticker:      row.Key.Ticker,
			Date:        row.Key.Date,
			Metrics:     row.Metrics,
		}
		if pos, seen := positions[row.Key]; seen {
			result.Records[pos] = rec
			result.Duplicates++
			continue
		}
		positions[row.Key] = len(result.Records)
		result.Records = append(result.Records, rec)
	}
	return result
}
