package database

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sort"
	"testing"

	"github.com/username/perfsnap/src/models"
)

func record(ticker, date string, ytd *float64) models.PerformanceRecord {
	rec := models.PerformanceRecord{Ticker: ticker, Date: date}
	rec.Metrics.YTDReturn = ytd
	return rec
}

// storeFactories lets every behavioural test run against each local backend.
var storeFactories = map[string]func(t *testing.T) Store{
	"memory": func(*testing.T) Store { return NewMemoryStore() },
	"sqlite": func(t *testing.T) Store {
		s, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "perf.db"))
		if err != nil {
			t.Fatalf("OpenSQLite() error = %v", err)
		}
		t.Cleanup(func() { s.Close() })
		return s
	},
}

func TestStore_UpsertReplacesByNaturalKey(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			first := record("AAA", "2025-07-31", models.Float(1))
			first.Metrics.ExpenseRatio = models.Float(0.5)
			if err := s.Upsert(ctx, models.Fund, []models.PerformanceRecord{first, record("BBB", "2025-07-31", nil)}); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}
			if err := s.Upsert(ctx, models.Fund, []models.PerformanceRecord{record("AAA", "2025-07-31", models.Float(2))}); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}

			got, err := s.SelectByDate(ctx, models.Fund, "2025-07-31", 0)
			if err != nil {
				t.Fatalf("SelectByDate() error = %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("SelectByDate() returned %d rows, want 2", len(got))
			}
			if got[0].Ticker != "AAA" || got[1].Ticker != "BBB" {
				t.Errorf("SelectByDate() order = %s, %s; want AAA, BBB", got[0].Ticker, got[1].Ticker)
			}
			if got[0].Metrics.YTDReturn == nil || *got[0].Metrics.YTDReturn != 2 {
				t.Errorf("AAA ytd_return = %v, want 2", got[0].Metrics.YTDReturn)
			}
			if got[0].Metrics.ExpenseRatio != nil {
				t.Errorf("AAA expense_ratio = %v, want nil after full replace", *got[0].Metrics.ExpenseRatio)
			}
			if got[0].ID == 0 || got[0].CreatedAt.IsZero() || got[0].Destination != models.Fund {
				t.Errorf("store-assigned fields missing: %+v", got[0])
			}

			other, err := s.SelectByDate(ctx, models.Benchmark, "2025-07-31", 0)
			if err != nil {
				t.Fatalf("SelectByDate(benchmark) error = %v", err)
			}
			if len(other) != 0 {
				t.Errorf("benchmark table has %d rows, want 0", len(other))
			}
		})
	}
}

func TestStore_DateOperations(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			recs := []models.PerformanceRecord{
				record("AAA", "2025-07-15", nil),
				record("BBB", "2025-07-15", nil),
				record("CCC", "2025-07-15", nil),
				record("AAA", "2025-06-30", nil),
			}
			if err := s.Upsert(ctx, models.Benchmark, recs); err != nil {
				t.Fatalf("Upsert() error = %v", err)
			}

			limited, err := s.SelectByDate(ctx, models.Benchmark, "2025-07-15", 2)
			if err != nil {
				t.Fatalf("SelectByDate() error = %v", err)
			}
			if len(limited) != 2 {
				t.Errorf("SelectByDate(limit 2) returned %d rows", len(limited))
			}

			exists, err := s.ExistsAtDate(ctx, models.Benchmark, "2025-06-30")
			if err != nil || !exists {
				t.Errorf("ExistsAtDate(2025-06-30) = %v, %v; want true", exists, err)
			}
			exists, err = s.ExistsAtDate(ctx, models.Fund, "2025-06-30")
			if err != nil || exists {
				t.Errorf("ExistsAtDate(fund) = %v, %v; want false", exists, err)
			}

			dates, err := s.ListDates(ctx, models.Benchmark)
			if err != nil {
				t.Fatalf("ListDates() error = %v", err)
			}
			sort.Strings(dates)
			want := []string{"2025-06-30", "2025-07-15", "2025-07-15", "2025-07-15"}
			if !reflect.DeepEqual(dates, want) {
				t.Errorf("ListDates() = %v, want %v", dates, want)
			}

			counter, ok := s.(DateCounter)
			if !ok {
				t.Fatalf("%s store does not implement DateCounter", name)
			}
			counts, err := counter.CountByDate(ctx, models.Benchmark)
			if err != nil {
				t.Fatalf("CountByDate() error = %v", err)
			}
			if !reflect.DeepEqual(counts, map[string]int{"2025-06-30": 1, "2025-07-15": 3}) {
				t.Errorf("CountByDate() = %v", counts)
			}

			n, err := s.DeleteByDate(ctx, models.Benchmark, "2025-07-15")
			if err != nil || n != 3 {
				t.Errorf("DeleteByDate() = %d, %v; want 3", n, err)
			}
			rest, _ := s.SelectByDate(ctx, models.Benchmark, "2025-07-15", 0)
			if len(rest) != 0 {
				t.Errorf("rows left after delete: %d", len(rest))
			}
		})
	}
}

func TestStore_UnknownDestination(t *testing.T) {
	ctx := context.Background()
	for name, open := range storeFactories {
		t.Run(name, func(t *testing.T) {
			err := open(t).Upsert(ctx, models.Destination("portfolio"), []models.PerformanceRecord{record("AAA", "2025-07-31", nil)})
			if !errors.Is(err, ErrUnknownTable) {
				t.Errorf("Upsert(unknown) error = %v, want ErrUnknownTable", err)
			}
		})
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()
	if _, err := Open(ctx, "mysql", "", ""); !errors.Is(err, ErrUnknownDriver) {
		t.Errorf("Open(mysql) error = %v, want ErrUnknownDriver", err)
	}
	s, err := Open(ctx, "memory", "", "")
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	if _, ok := s.(*MemoryStore); !ok {
		t.Errorf("Open(memory) = %T, want *MemoryStore", s)
	}
	if _, err := Open(ctx, "postgres", "", ""); err == nil {
		t.Error("Open(postgres) without a DSN should fail")
	}
}
