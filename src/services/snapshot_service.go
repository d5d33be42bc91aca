// src/services/snapshot_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/utils"
)

const (
	ckSnapshotInventory = "snapshot_inventory"

	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

type snapshotServiceImpl struct {
	store     database.Store
	writer    *ChunkedWriter
	cache     *cache.Cache
	chunkSize int

	// generation counts invalidations; a listing computed across one is not cached.
	mu         sync.Mutex
	generation uint64
}

// NewSnapshotService returns the inventory and reconciliation service. A nil
// cache gets a private one with the default expiration.
func NewSnapshotService(store database.Store, writer *ChunkedWriter, inventoryCache *cache.Cache, chunkSize int) SnapshotService {
	if inventoryCache == nil {
		inventoryCache = cache.New(DefaultCacheExpiration, CacheCleanupInterval)
	}
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	return &snapshotServiceImpl{store: store, writer: writer, cache: inventoryCache, chunkSize: chunkSize}
}

func (s *snapshotServiceImpl) InvalidateCache() {
	s.mu.Lock()
	s.generation++
	s.cache.Delete(ckSnapshotInventory)
	s.mu.Unlock()
	logger.L.Debug("Snapshot inventory cache invalidated")
}

// ListSnapshots returns one entry per distinct date across both tables,
// newest first.
func (s *snapshotServiceImpl) ListSnapshots(ctx context.Context) ([]models.SnapshotSummary, error) {
	if cached, found := s.cache.Get(ckSnapshotInventory); found {
		if list, ok := cached.([]models.SnapshotSummary); ok {
			logger.L.Debug("Cache HIT for snapshot inventory")
			return slices.Clone(list), nil
		}
	}

	s.mu.Lock()
	startGeneration := s.generation
	s.mu.Unlock()

	list, err := s.inventory(ctx, true)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generation == startGeneration {
		s.cache.Set(ckSnapshotInventory, list, cache.DefaultExpiration)
	} else {
		logger.L.Debug("Snapshot inventory changed while listing, not caching")
	}
	s.mu.Unlock()
	return slices.Clone(list), nil
}

// inventory builds the summary list. With grouped set, stores implementing
// database.DateCounter count server side; otherwise every row's date is
// scanned and reduced here.
func (s *snapshotServiceImpl) inventory(ctx context.Context, grouped bool) ([]models.SnapshotSummary, error) {
	byDate := make(map[string]*models.SnapshotSummary)
	for _, dest := range models.Destinations {
		counts, err := s.countDates(ctx, dest, grouped)
		if err != nil {
			return nil, fmt.Errorf("counting %s snapshots: %w", dest, err)
		}
		for date, n := range counts {
			sum, ok := byDate[date]
			if !ok {
				sum = &models.SnapshotSummary{Date: date, Canonical: isCanonical(date)}
				byDate[date] = sum
			}
			sum.RowCount += n
			if dest == models.Fund {
				sum.FundRows += n
			} else {
				sum.BenchmarkRows += n
			}
		}
	}

	list := make([]models.SnapshotSummary, 0, len(byDate))
	for _, sum := range byDate {
		list = append(list, *sum)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date > list[j].Date })
	return list, nil
}

func (s *snapshotServiceImpl) countDates(ctx context.Context, dest models.Destination, grouped bool) (map[string]int, error) {
	if counter, ok := s.store.(database.DateCounter); ok && grouped {
		counts, err := counter.CountByDate(ctx, dest)
		if err == nil {
			return counts, nil
		}
		if !errors.Is(err, database.ErrGroupingUnsupported) {
			return nil, err
		}
		logger.FromContext(ctx).Debug("Grouped count unavailable, scanning dates", "table", dest)
	}

	dates, err := s.store.ListDates(ctx, dest)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, d := range dates {
		counts[d]++
	}
	return counts, nil
}

func isCanonical(date string) bool {
	t, err := time.Parse(models.DateLayout, date)
	return err == nil && utils.IsEndOfMonth(t)
}

// GetSnapshot returns the rows stored at date. An empty dest returns fund
// rows followed by benchmark rows.
func (s *snapshotServiceImpl) GetSnapshot(ctx context.Context, date string, dest models.Destination) ([]models.PerformanceRecord, error) {
	day, err := utils.NormalizeDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	dests := models.Destinations
	if dest != "" {
		dests = []models.Destination{dest}
	}

	var out []models.PerformanceRecord
	for _, d := range dests {
		recs, err := s.store.SelectByDate(ctx, d, day, 0)
		if err != nil {
			return nil, fmt.Errorf("loading %s rows at %s: %w", d, day, err)
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ConvertToEOM moves every row at sourceDate to the last day of its month,
// overwriting same-ticker rows already there. Source rows are only deleted
// once all of them have been copied.
func (s *snapshotServiceImpl) ConvertToEOM(ctx context.Context, sourceDate string) (*models.ConvertResult, error) {
	source, err := utils.NormalizeDate(sourceDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	target, err := utils.EndOfMonthString(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	result := &models.ConvertResult{SourceDate: source, TargetDate: target}
	log := logger.FromContext(ctx).With("sourceDate", source, "targetDate", target)

	if target == source {
		result.Status = models.ConversionCanonical
		return result, nil
	}

	for _, dest := range models.Destinations {
		exists, err := s.store.ExistsAtDate(ctx, dest, target)
		if err != nil {
			return nil, fmt.Errorf("%w: checking %s rows at %s: %w", ErrConversionAborted, dest, target, err)
		}
		result.Merged = result.Merged || exists
	}

	moving := make(map[models.Destination][]models.PerformanceRecord, len(models.Destinations))
	for _, dest := range models.Destinations {
		recs, err := s.store.SelectByDate(ctx, dest, source, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: loading %s rows at %s: %w", ErrConversionAborted, dest, source, err)
		}
		for i := range recs {
			recs[i] = recs[i].WithoutIdentity()
			recs[i].Date = target
		}
		moving[dest] = recs
		result.Moved += len(recs)
	}
	if result.Moved == 0 {
		result.Status = models.ConversionEmpty
		return result, nil
	}

	for _, dest := range models.Destinations {
		if len(moving[dest]) == 0 {
			continue
		}
		res := s.writer.Write(ctx, dest, moving[dest], s.chunkSize)
		if res.Success > 0 {
			s.InvalidateCache()
		}
		if err := res.Err(); err != nil {
			log.Error("Copy to month end failed, source rows kept", "table", dest, "error", err)
			return nil, fmt.Errorf("%w: %w", ErrConversionAborted, err)
		}
	}

	for _, dest := range models.Destinations {
		if len(moving[dest]) == 0 {
			continue
		}
		if _, err := s.store.DeleteByDate(ctx, dest, source); err != nil {
			result.Status = models.ConversionPartial
			s.InvalidateCache()
			log.Error("Rows copied but source date not cleared", "table", dest, "error", err)
			return result, fmt.Errorf("%w: deleting %s rows at %s: %w", ErrPartialConversion, dest, source, err)
		}
	}

	result.Status = models.ConversionMoved
	if result.Merged {
		result.Status = models.ConversionMerged
	}
	s.InvalidateCache()
	log.Info("Snapshot converted to month end", "moved", result.Moved, "merged", result.Merged)
	return result, nil
}

func (s *snapshotServiceImpl) ReconcileAll(ctx context.Context) ([]models.ConvertResult, error) {
	list, err := s.inventory(ctx, true)
	if err != nil {
		return nil, err
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Date < list[j].Date })

	var results []models.ConvertResult
	for _, snap := range list {
		if snap.Canonical {
			continue
		}
		if _, err := time.Parse(models.DateLayout, snap.Date); err != nil {
			logger.FromContext(ctx).Warn("Skipping unparseable snapshot date", "date", snap.Date)
			continue
		}
		res, err := s.ConvertToEOM(ctx, snap.Date)
		if res != nil {
			results = append(results, *res)
		}
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// DeleteSnapshot removes every row at date from both tables.
func (s *snapshotServiceImpl) DeleteSnapshot(ctx context.Context, date string) (int64, error) {
	day, err := utils.NormalizeDate(date)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	var total int64
	for _, dest := range models.Destinations {
		n, err := s.store.DeleteByDate(ctx, dest, day)
		total += n
		if err != nil {
			if total > 0 {
				s.InvalidateCache()
			}
			return total, fmt.Errorf("deleting %s rows at %s: %w", dest, day, err)
		}
	}
	if total > 0 {
		s.InvalidateCache()
	}
	logger.FromContext(ctx).Info("Snapshot deleted", "date", day, "rows", total)
	return total, nil
}
