package processors

import (
	"testing"

	"github.com/username/perfsnap/src/models"
)

func classified(ticker, date string, ytd float64) ClassifiedRow {
	var m models.Metrics
	m.YTDReturn = models.Float(ytd)
	return ClassifiedRow{
		Destination: models.Fund,
		Key:         models.NaturalKey{Ticker: ticker, Date: date},
		Metrics:     m,
	}
}

func TestDeduplicator_LastWriteWins(t *testing.T) {
	rows := []ClassifiedRow{
		classified("AAA", "2025-07-31", 1),
		classified("BBB", "2025-07-31", 2),
		classified("AAA", "2025-07-31", 3),
		classified("AAA", "2025-06-30", 4),
	}
	got := NewDeduplicator().Reconcile(rows)

	if len(got.Records) != 3 {
		t.Fatalf("Reconcile() kept %d records, want 3", len(got.Records))
	}
	if got.Duplicates != 1 || got.Dropped != 0 {
		t.Errorf("Reconcile() duplicates = %d, dropped = %d, want 1 and 0", got.Duplicates, got.Dropped)
	}

	count := 0
	for _, rec := range got.Records {
		if rec.Ticker == "AAA" && rec.Date == "2025-07-31" {
			count++
			if *rec.Metrics.YTDReturn != 3 {
				t.Errorf("AAA@2025-07-31 ytd_return = %v, want 3", *rec.Metrics.YTDReturn)
			}
		}
	}
	if count != 1 {
		t.Errorf("AAA@2025-07-31 appears %d times, want 1", count)
	}
}

func TestDeduplicator_DropsIncompleteKeys(t *testing.T) {
	rows := []ClassifiedRow{
		classified("", "2025-07-31", 1),
		classified("AAA", "", 2),
		classified("AAA", "2025-07-31", 3),
	}
	got := NewDeduplicator().Reconcile(rows)
	if got.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", got.Dropped)
	}
	if len(got.Records) != 1 || got.Records[0].Destination != models.Fund {
		t.Errorf("Records = %+v, want one fund record", got.Records)
	}
}

func TestDeduplicator_Empty(t *testing.T) {
	got := NewDeduplicator().Reconcile(nil)
	if len(got.Records) != 0 || got.Dropped != 0 || got.Duplicates != 0 {
		t.Errorf("Reconcile(nil) = %+v, want zero result", got)
	}
}
