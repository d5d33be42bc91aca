package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps both performance tables in one SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenSQLite opens (creating if needed) the database at databasePath and
// ensures the schema exists.
func OpenSQLite(ctx context.Context, databasePath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", databasePath, err)
	}
	// A single connection keeps pragmas and in-memory databases consistent and
	// serializes writers, which SQLite requires anyway.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode = WAL", "PRAGMA busy_timeout = 5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}
	logger.L.Info("Checking database schema", "databasePath", databasePath)
	if err := s.ensureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	logger.L.Info("Database tables ensured/created.", "databasePath", databasePath)
	return s, nil
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	for _, dest := range models.Destinations {
		t := tables[dest]
		var metricCols strings.Builder
		for _, m := range models.MetricNames {
			fmt.Fprintf(&metricCols, "\t\t%s REAL,\n", m)
		}
		stmt := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %[1]s (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		%[2]s TEXT NOT NULL,
		date TEXT NOT NULL,
%[3]s		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE(%[2]s, date)
	);
	CREATE INDEX IF NOT EXISTS idx_%[1]s_date ON %[1]s(date);`, t.name, t.tickerColumn, metricCols.String())
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			logger.L.Error("failed to create table", "table", t.name, "error", err)
			return fmt.Errorf("failed to create table %s: %w", t.name, err)
		}
		if err := s.migrateMetricColumns(ctx, t); err != nil {
			return err
		}
	}
	return nil
}

// migrateMetricColumns adds metric columns introduced after a table was created.
func (s *SQLiteStore) migrateMetricColumns(ctx context.Context, t table) error {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", t.name))
	if err != nil {
		return fmt.Errorf("error querying table schema for %s: %w", t.name, err)
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			return fmt.Errorf("error scanning column info for %s: %w", t.name, err)
		}
		columnExists[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating over column info for %s: %w", t.name, err)
	}
	rows.Close()

	for _, m := range models.MetricNames {
		if columnExists[m] {
			continue
		}
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s REAL", t.name, m)); err != nil {
			return fmt.Errorf("error adding %s column to %s: %w", m, t.name, err)
		}
		logger.L.Info("Added metric column", "table", t.name, "column", m)
	}
	return nil
}

func sqlitePlaceholder(int) string { return "?" }

func (s *SQLiteStore) Upsert(ctx context.Context, dest models.Destination, records []models.PerformanceRecord) error {
	t, err := tableFor(dest)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	stmt, err := dbTx.PrepareContext(ctx, t.upsertSQL(sqlitePlaceholder))
	if err != nil {
		return fmt.Errorf("error preparing upsert statement: %w", err)
	}
	defer stmt.Close()

	now := s.now().Format(time.RFC3339Nano)
	for _, rec := range records {
		args := append([]any{rec.Ticker, rec.Date}, metricArgs(&rec.Metrics)...)
		args = append(args, now, now)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("error upserting %s %s@%s: %w", t.name, rec.Ticker, rec.Date, err)
		}
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("error committing upsert: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SelectByDate(ctx context.Context, dest models.Destination, date string, limit int) ([]models.PerformanceRecord, error) {
	t, err := tableFor(dest)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf("SELECT %s FROM %s WHERE date = ? ORDER BY %s ASC", t.selectColumns("date"), t.name, t.tickerColumn)
	args := []any{date}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying %s for date %s: %w", t.name, date, err)
	}
	defer rows.Close()

	var records []models.PerformanceRecord
	for rows.Next() {
		rec := models.PerformanceRecord{Destination: dest}
		var createdAt, updatedAt string
		scanDest := []any{&rec.ID, &rec.Ticker, &rec.Date}
		for _, p := range rec.Metrics.Pointers() {
			scanDest = append(scanDest, p)
		}
		scanDest = append(scanDest, &createdAt, &updatedAt)
		if err := rows.Scan(scanDest...); err != nil {
			return nil, fmt.Errorf("error scanning %s row: %w", t.name, err)
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		rec.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over %s rows: %w", t.name, err)
	}
	return records, nil
}

func (s *SQLiteStore) ExistsAtDate(ctx context.Context, dest models.Destination, date string) (bool, error) {
	t, err := tableFor(dest)
	if err != nil {
		return false, err
	}
	var exists int
	err = s.db.QueryRowContext(ctx, fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE date = ?)", t.name), date).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("error checking %s for date %s: %w", t.name, date, err)
	}
	return exists == 1, nil
}

func (s *SQLiteStore) DeleteByDate(ctx context.Context, dest models.Destination, date string) (int64, error) {
	t, err := tableFor(dest)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE date = ?", t.name), date)
	if err != nil {
		return 0, fmt.Errorf("error deleting %s rows for date %s: %w", t.name, date, err)
	}
	return res.RowsAffected()
}

func (s *SQLiteStore) ListDates(ctx context.Context, dest models.Destination) ([]string, error) {
	t, err := tableFor(dest)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT date FROM %s", t.name))
	if err != nil {
		return nil, fmt.Errorf("error listing dates in %s: %w", t.name, err)
	}
	defer rows.Close()

	var dates []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("error scanning date in %s: %w", t.name, err)
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

func (s *SQLiteStore) CountByDate(ctx context.Context, dest models.Destination) (map[string]int, error) {
	t, err := tableFor(dest)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf("SELECT date, COUNT(*) FROM %s GROUP BY date", t.name))
	if err != nil {
		return nil, fmt.Errorf("error counting dates in %s: %w", t.name, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var d string
		var n int
		if err := rows.Scan(&d, &n); err != nil {
			return nil, fmt.Errorf("error scanning date count in %s: %w", t.name, err)
		}
		counts[d] = n
	}
	return counts, rows.Err()
}

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() error { return s.db.Close() }

// DB exposes the underlying handle, mainly for tests that need to tamper with rows.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// sqliteCode renders a modernc sqlite error code.
func sqliteCode(code int) string { return "SQLITE_" + strconv.Itoa(code) }
