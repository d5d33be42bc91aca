// src/services/interfaces.go
package services

import (
	"context"
	"errors"
	"io"

	"github.com/username/perfsnap/src/models"
)

var (
	ErrParsingFailed     = errors.New("failed to parse import file")
	ErrStoreUnavailable  = errors.New("destination store unavailable")
	ErrChunkWriteFailed  = errors.New("one or more chunks failed to write")
	ErrWriteCancelled    = errors.New("write cancelled before all chunks were attempted")
	ErrInvalidSnapshot   = errors.New("invalid snapshot date")
	ErrConversionAborted = errors.New("conversion aborted before source rows were removed")
	ErrPartialConversion = errors.New("rows copied to month end but source date could not be cleared")
)

// ImportService runs rows through classification, dedup, chunked writes and
// the post-write sanity probe.
type ImportService interface {
	Import(ctx context.Context, rows []models.PerformanceRow) (*models.ImportOutcome, error)
	// ImportFile parses r as format ("csv" or "json") and imports the rows.
	ImportFile(ctx context.Context, r io.Reader, format string) (*models.ImportOutcome, error)
}

// SnapshotService works over persisted data: inventory, lookup and month-end
// reconciliation.
type SnapshotService interface {
	ListSnapshots(ctx context.Context) ([]models.SnapshotSummary, error)
	GetSnapshot(ctx context.Context, date string, dest models.Destination) ([]models.PerformanceRecord, error)
	ConvertToEOM(ctx context.Context, sourceDate string) (*models.ConvertResult, error)
	// ReconcileAll converts every non-canonical date, oldest first, and stops
	// at the first failure.
	ReconcileAll(ctx context.Context) ([]models.ConvertResult, error)
	DeleteSnapshot(ctx context.Context, date string) (int64, error)
	InvalidateCache()
}
