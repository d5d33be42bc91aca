package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/models"
)

// unreachableStore is a MemoryStore whose Ping always fails.
type unreachableStore struct {
	*database.MemoryStore
}

func (unreachableStore) Ping(context.Context) error { return errors.New("connection refused") }

func testConfig(chunkSize int) *config.AppConfig {
	cfg := config.Default()
	cfg.ChunkSize = chunkSize
	return cfg
}

// newTestServices wires both services over store the way the server does.
func newTestServices(t *testing.T, store database.Store, chunkSize int) (*importServiceImpl, *snapshotServiceImpl) {
	t.Helper()
	imports, snapshots := NewServices(store, testConfig(chunkSize), config.ColumnAliases{})
	return imports.(*importServiceImpl), snapshots.(*snapshotServiceImpl)
}

func fundRecords(n int, date string) []models.PerformanceRecord {
	recs := make([]models.PerformanceRecord, n)
	for i := range recs {
		recs[i] = models.PerformanceRecord{Ticker: fmt.Sprintf("T%03d", i), Date: date}
		recs[i].Metrics.YTDReturn = models.Float(float64(i))
	}
	return recs
}

func seed(t *testing.T, store database.Store, dest models.Destination, recs ...models.PerformanceRecord) {
	t.Helper()
	if err := store.Upsert(context.Background(), dest, recs); err != nil {
		t.Fatalf("seeding %s: %v", dest, err)
	}
}

func rec(ticker, date string, ytd float64) models.PerformanceRecord {
	r := models.PerformanceRecord{Ticker: ticker, Date: date}
	r.Metrics.YTDReturn = models.Float(ytd)
	return r
}

func selectAll(t *testing.T, store database.Store, dest models.Destination, date string) []models.PerformanceRecord {
	t.Helper()
	got, err := store.SelectByDate(context.Background(), dest, date, 0)
	if err != nil {
		t.Fatalf("SelectByDate(%s, %s) error = %v", dest, date, err)
	}
	return got
}
