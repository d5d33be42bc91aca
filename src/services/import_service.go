// src/services/import_service.go
package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/parsers"
	"github.com/username/perfsnap/src/processors"
)

type importServiceImpl struct {
	store      database.Store
	classifier processors.Classifier
	reconciler processors.RowReconciler
	writer     *ChunkedWriter
	prober     *SanityProber
	snapshots  SnapshotService
	aliases    config.ColumnAliases
	chunkSize  int
}

// NewImportService wires the ingestion pipeline. snapshots may be nil; when
// set, its inventory cache is invalidated after every import that wrote rows.
func NewImportService(
	store database.Store,
	classifier processors.Classifier,
	reconciler processors.RowReconciler,
	writer *ChunkedWriter,
	prober *SanityProber,
	snapshots SnapshotService,
	aliases config.ColumnAliases,
	chunkSize int,
) ImportService {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	return &importServiceImpl{
		store:      store,
		classifier: classifier,
		reconciler: reconciler,
		writer:     writer,
		prober:     prober,
		snapshots:  snapshots,
		aliases:    aliases,
		chunkSize:  chunkSize,
	}
}

func (s *importServiceImpl) ImportFile(ctx context.Context, r io.Reader, format string) (*models.ImportOutcome, error) {
	parser, err := parsers.GetParser(format, s.aliases)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	rows, err := parser.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParsingFailed, err)
	}
	return s.Import(ctx, rows)
}

// Import persists rows and always returns counts once the store is reachable.
// A non-nil error alongside the outcome is a *ChunkWriteError: the outcome
// still carries the rows that landed.
func (s *importServiceImpl) Import(ctx context.Context, rows []models.PerformanceRow) (*models.ImportOutcome, error) {
	startTime := time.Now()
	outcome := &models.ImportOutcome{ImportID: uuid.NewString()}
	log := logger.FromContext(ctx).With("importID", outcome.ImportID)
	ctx = logger.WithContext(ctx, log)
	log.Info("Import START", "rows", len(rows))

	if s.store == nil {
		return nil, ErrStoreUnavailable
	}
	if err := s.store.Ping(ctx); err != nil {
		log.Error("Destination store unreachable", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	grouped := s.classifier.ClassifyAll(rows)
	for _, dest := range models.Destinations {
		for _, cr := range grouped[dest] {
			if cr.Err != nil {
				log.Debug("Row will be dropped", "index", cr.Index, "table", dest, "error", cr.Err)
			}
		}
	}

	var fundRecords []models.PerformanceRecord
	var fundResult WriteResult
	for _, dest := range models.Destinations {
		batch := s.reconciler.Reconcile(grouped[dest])
		outcome.Dropped += batch.Dropped
		outcome.Duplicates += batch.Duplicates
		if len(batch.Records) == 0 {
			continue
		}

		res := s.writer.Write(ctx, dest, batch.Records, s.chunkSize)
		outcome.Success += res.Success
		outcome.Failed += res.Failed
		outcome.Errors = append(outcome.Errors, res.Errors...)
		log.Info("Destination written", "table", dest, "records", len(batch.Records), "success", res.Success, "failed", res.Failed)

		if dest == models.Fund {
			fundRecords, fundResult = batch.Records, res
		}
	}

	if outcome.Success > 0 && s.snapshots != nil {
		s.snapshots.InvalidateCache()
	}
	outcome.Warning = s.probe(ctx, fundRecords, fundResult)

	log.Info("Import END",
		"success", outcome.Success, "failed", outcome.Failed,
		"dropped", outcome.Dropped, "duplicates", outcome.Duplicates,
		"duration", time.Since(startTime))
	return outcome, newChunkWriteError(outcome.Failed, outcome.Errors)
}

// probe runs the sanity check for every fund date whose rows all landed.
// Probe failures are logged and never fail the import.
func (s *importServiceImpl) probe(ctx context.Context, records []models.PerformanceRecord, res WriteResult) string {
	if s.prober == nil || len(records) == 0 || ctx.Err() != nil {
		return ""
	}
	log := logger.FromContext(ctx)

	failed := make([]bool, len(records))
	for _, d := range res.Errors {
		for i := d.ChunkStartIndex; i < d.ChunkStartIndex+d.ChunkSize && i < len(records); i++ {
			failed[i] = true
		}
	}
	clean := make(map[string]bool)
	for i, rec := range records {
		ok, seen := clean[rec.Date]
		clean[rec.Date] = (ok || !seen) && !failed[i]
	}

	dates := make([]string, 0, len(clean))
	for date, ok := range clean {
		if ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	var warnings []string
	for _, date := range dates {
		warning, err := s.prober.Probe(ctx, date)
		if err != nil {
			log.Warn("Sanity probe failed", "date", date, "error", err)
			continue
		}
		if warning != "" {
			warnings = append(warnings, warning)
		}
	}
	return strings.Join(warnings, "; ")
}
