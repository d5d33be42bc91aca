package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
)

// PostgresStore backs both tables with a hosted Postgres database.
type PostgresStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// OpenPostgres connects with dsn and ensures the tables exist.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres: empty DATABASE_URL")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	s := &PostgresStore{pool: pool, now: func() time.Time { return time.Now().UTC() }}
	if err := s.ensureTables(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	logger.L.Info("Postgres tables ensured/created.")
	return s, nil
}

func (s *PostgresStore) ensureTables(ctx context.Context) error {
	for _, dest := range models.Destinations {
		t := tables[dest]
		cols := make([]string, 0, len(models.MetricNames))
		for _, m := range models.MetricNames {
			cols = append(cols, fmt.Sprintf("%s DOUBLE PRECISION", m))
		}
		ddl := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %[1]s (
  id BIGSERIAL PRIMARY KEY,
  %[2]s TEXT NOT NULL,
  date DATE NOT NULL,
  %[3]s,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (%[2]s, date)
)`, t.name, t.tickerColumn, strings.Join(cols, ",\n  "))
		if _, err := s.pool.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("ensure %s: %w", t.name, err)
		}
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[1]s(date)`, t.name)
		if _, err := s.pool.Exec(ctx, idx); err != nil {
			return fmt.Errorf("ensure index on %s: %w", t.name, err)
		}
		for _, m := range models.MetricNames {
			alter := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s DOUBLE PRECISION`, t.name, m)
			if _, err := s.pool.Exec(ctx, alter); err != nil {
				return fmt.Errorf("ensure column %s.%s: %w", t.name, m, err)
			}
		}
	}
	return nil
}

func pgPlaceholder(n int) string { return fmt.Sprintf("$%d", n) }

func (s *PostgresStore) Upsert(ctx context.Context, dest models.Destination, records []models.PerformanceRecord) error {
	t, err := tableFor(dest)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback(ctx)

	query := t.upsertSQL(pgPlaceholder)
	now := s.now()
	batch := &pgx.Batch{}
	for _, rec := range records {
		args := append([]any{rec.Ticker, rec.Date}, metricArgs(&rec.Metrics)...)
		args = append(args, now, now)
		batch.Queue(query, args...)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert %s: %w", t.name, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit upsert %s: %w", t.name, err)
	}
	return nil
}

func (s *PostgresStore) SelectByDate(ctx context.Context, dest models.Destination, date string, limit int) ([]models.PerformanceRecord, error) {
	t, err := tableFor(dest)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE date = $1 ORDER BY %s ASC",
		t.selectColumns("to_char(date, 'YYYY-MM-DD')"), t.name, t.tickerColumn)
	args := []any{date}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s for date %s: %w", t.name, date, err)
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		rec := models.PerformanceRecord{Destination: dest}
		scanDest := []any{&rec.ID, &rec.Ticker, &rec.Date}
		for _, p := range rec.Metrics.Pointers() {
			scanDest = append(scanDest, p)
		}
		scanDest = append(scanDest, &rec.CreatedAt, &rec.UpdatedAt)
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", t.name, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *PostgresStore) ExistsAtDate(ctx context.Context, dest models.Destination, date string) (bool, error) {
	t, err := tableFor(dest)
	if err != nil {
		return false, err
	}
	var exists bool
	err = s.pool.QueryRow(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE date = $1)", t.name), date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check %s for date %s: %w", t.name, date, err)
	}
	return exists, nil
}

func (s *PostgresStore) DeleteByDate(ctx context.Context, dest models.Destination, date string) (int64, error) {
	t, err := tableFor(dest)
	if err != nil {
		return 0, err
	}
	tag, err := s.pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s WHERE date = $1", t.name), date)
	if err != nil {
		return 0, fmt.Errorf("delete %s rows for date %s: %w", t.name, date, err)
	}
	return tag.RowsAffected(), nil
}

func (s *PostgresStore) ListDates(ctx context.Context, dest models.Destination) ([]string, error) {
	t, err := tableFor(dest)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT to_char(date, 'YYYY-MM-DD') FROM %s", t.name))
	if err != nil {
		return nil, fmt.Errorf("list dates in %s: %w", t.name, err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *PostgresStore) CountByDate(ctx context.Context, dest models.Destination) (map[string]int, error) {
	t, err := tableFor(dest)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, fmt.Sprintf("SELECT to_char(date, 'YYYY-MM-DD'), COUNT(*) FROM %s GROUP BY date", t.name))
	if err != nil {
		return nil, fmt.Errorf("count dates in %s: %w", t.name, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var d string
		var n int64
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("scan date count in %s: %w", t.name, err)
		}
		counts[d] = int(n)
	}
	return counts, rows.Err()
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
