package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/username/perfsnap/src/models"
)

// MemoryStore is an in-process Store. It backs the "memory" driver and is
// the fake used throughout the test suites; the hook fields let callers
// inject storage failures.
type MemoryStore struct {
	mu     sync.Mutex
	rows   map[models.Destination]map[models.NaturalKey]models.PerformanceRecord
	nextID int64
	now    func() time.Time

	// DisableGrouping makes CountByDate report ErrGroupingUnsupported.
	DisableGrouping bool
	// FailUpsert, when set and returning non-nil, rejects the whole batch.
	FailUpsert func(dest models.Destination, records []models.PerformanceRecord) error
	// FailSelect, when set and returning non-nil, fails SelectByDate.
	FailSelect func(dest models.Destination, date string) error
	// FailDelete, when set and returning non-nil, fails DeleteByDate.
	FailDelete func(dest models.Destination, date string) error
	// FailExists, when set and returning non-nil, fails ExistsAtDate.
	FailExists func(dest models.Destination, date string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		rows: map[models.Destination]map[models.NaturalKey]models.PerformanceRecord{
			models.Fund:      {},
			models.Benchmark: {},
		},
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *MemoryStore) Upsert(ctx context.Context, dest models.Destination, records []models.PerformanceRecord) error {
	if _, err := tableFor(dest); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailUpsert != nil {
		if err := s.FailUpsert(dest, records); err != nil {
			return err
		}
	}

	now := s.now()
	for _, rec := range records {
		key := rec.Key()
		stored := rec.WithoutIdentity()
		stored.Destination = dest
		stored.UpdatedAt = now
		if prev, ok := s.rows[dest][key]; ok {
			stored.ID = prev.ID
			stored.CreatedAt = prev.CreatedAt
		} else {
			s.nextID++
			stored.ID = s.nextID
			stored.CreatedAt = now
		}
		s.rows[dest][key] = stored
	}
	return nil
}

func (s *MemoryStore) SelectByDate(ctx context.Context, dest models.Destination, date string, limit int) ([]models.PerformanceRecord, error) {
	if _, err := tableFor(dest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailSelect != nil {
		if err := s.FailSelect(dest, date); err != nil {
			return nil, err
		}
	}

	var out []models.PerformanceRecord
	for key, rec := range s.rows[dest] {
		if key.Date == date {
			rec.Metrics = rec.Metrics.Clone()
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) ExistsAtDate(ctx context.Context, dest models.Destination, date string) (bool, error) {
	if _, err := tableFor(dest); err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailExists != nil {
		if err := s.FailExists(dest, date); err != nil {
			return false, err
		}
	}
	for key := range s.rows[dest] {
		if key.Date == date {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) DeleteByDate(ctx context.Context, dest models.Destination, date string) (int64, error) {
	if _, err := tableFor(dest); err != nil {
		return 0, err
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		if err := s.FailDelete(dest, date); err != nil {
			return 0, err
		}
	}
	var n int64
	for key := range s.rows[dest] {
		if key.Date == date {
			delete(s.rows[dest], key)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ListDates(ctx context.Context, dest models.Destination) ([]string, error) {
	if _, err := tableFor(dest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dates := make([]string, 0, len(s.rows[dest]))
	for key := range s.rows[dest] {
		dates = append(dates, key.Date)
	}
	return dates, nil
}

func (s *MemoryStore) CountByDate(ctx context.Context, dest models.Destination) (map[string]int, error) {
	if s.DisableGrouping {
		return nil, ErrGroupingUnsupported
	}
	if _, err := tableFor(dest); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[string]int)
	for key := range s.rows[dest] {
		counts[key.Date]++
	}
	return counts, nil
}

// Len returns the number of rows held for dest.
func (s *MemoryStore) Len(dest models.Destination) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rows[dest])
}

func (s *MemoryStore) Ping(ctx context.Context) error { return ctx.Err() }

func (s *MemoryStore) Close() error { return nil }
