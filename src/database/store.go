package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/username/perfsnap/src/models"
)

var (
	// ErrGroupingUnsupported is returned by CountByDate when the backend cannot
	// aggregate server side; callers fall back to ListDates.
	ErrGroupingUnsupported = errors.New("server-side grouping unsupported")
	ErrUnknownDriver       = errors.New("unknown database driver")
	ErrUnknownTable        = errors.New("unknown destination table")
)

// Store is the persistence boundary for both performance tables. Every
// method is scoped to one destination table.
type Store interface {
	// Upsert writes records keyed on (ticker, date); an existing row with the
	// same key is fully replaced. A batch is applied atomically.
	Upsert(ctx context.Context, dest models.Destination, records []models.PerformanceRecord) error
	// SelectByDate returns rows at date ordered by ticker. limit <= 0 means all.
	SelectByDate(ctx context.Context, dest models.Destination, date string, limit int) ([]models.PerformanceRecord, error)
	ExistsAtDate(ctx context.Context, dest models.Destination, date string) (bool, error)
	DeleteByDate(ctx context.Context, dest models.Destination, date string) (int64, error)
	// ListDates returns the date of every row, one entry per row.
	ListDates(ctx context.Context, dest models.Destination) ([]string, error)
	Ping(ctx context.Context) error
	Close() error
}

// DateCounter is implemented by stores that can count rows per date themselves.
type DateCounter interface {
	CountByDate(ctx context.Context, dest models.Destination) (map[string]int, error)
}

// table describes the physical layout of one destination.
type table struct {
	name         string
	tickerColumn string
}

var tables = map[models.Destination]table{
	models.Fund:      {name: "fund_performance", tickerColumn: "fund_ticker"},
	models.Benchmark: {name: "benchmark_performance", tickerColumn: "benchmark_ticker"},
}

func tableFor(dest models.Destination) (table, error) {
	t, ok := tables[dest]
	if !ok {
		return table{}, fmt.Errorf("%w: %q", ErrUnknownTable, dest)
	}
	return t, nil
}

// selectColumns is the column list shared by every SELECT, in scan order.
// dateExpr renders the date column as YYYY-MM-DD text for the dialect.
func (t table) selectColumns(dateExpr string) string {
	cols := append([]string{"id", t.tickerColumn, dateExpr}, models.MetricNames...)
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

// upsertSQL builds an INSERT ... ON CONFLICT statement. placeholder renders
// the n-th (1-based) bind parameter for the target dialect.
func (t table) upsertSQL(placeholder func(n int) string) string {
	cols := append([]string{t.tickerColumn, "date"}, models.MetricNames...)
	cols = append(cols, "created_at", "updated_at")

	params := make([]string, len(cols))
	for i := range cols {
		params[i] = placeholder(i + 1)
	}

	updates := make([]string, 0, len(models.MetricNames)+1)
	for _, m := range models.MetricNames {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", m, m))
	}
	updates = append(updates, "updated_at = excluded.updated_at")

	return fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s) ON CONFLICT(%s, date) DO UPDATE SET %s`,
		t.name, strings.Join(cols, ", "), strings.Join(params, ", "),
		t.tickerColumn, strings.Join(updates, ", "),
	)
}

// metricArgs flattens metrics into bind values, NULL for missing ones.
func metricArgs(m *models.Metrics) []any {
	vals := m.Values()
	out := make([]any, len(vals))
	for i, v := range vals {
		if v != nil {
			out[i] = *v
		}
	}
	return out
}

// Open returns the store selected by driver.
func Open(ctx context.Context, driver, path, url string) (Store, error) {
	switch strings.ToLower(driver) {
	case "", "sqlite":
		return OpenSQLite(ctx, path)
	case "postgres", "postgresql":
		return OpenPostgres(ctx, url)
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, driver)
	}
}
