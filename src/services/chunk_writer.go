// src/services/chunk_writer.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	"golang.org/x/sync/errgroup"
)

// WriteResult accumulates the per-chunk outcomes of one Write call.
type WriteResult struct {
	Success int
	Failed  int
	Errors  []models.ErrorDetail
}

// Err returns the aggregate error for the result, or nil when every chunk landed.
func (r WriteResult) Err() error {
	return newChunkWriteError(r.Failed, r.Errors)
}

// ChunkWriteError summarizes failed chunks while the caller keeps the partial
// success count from the accompanying result.
type ChunkWriteError struct {
	Failed  int
	First   models.ErrorDetail
	Details []models.ErrorDetail
}

func newChunkWriteError(failed int, details []models.ErrorDetail) error {
	if len(details) == 0 {
		return nil
	}
	return &ChunkWriteError{Failed: failed, First: details[0], Details: details}
}

func (e *ChunkWriteError) Error() string {
	return fmt.Sprintf("%d row(s) failed in %d chunk(s); first failure: %s chunk at row %d: %s (code %s)",
		e.Failed, len(e.Details), e.First.Table, e.First.ChunkStartIndex, e.First.Message, e.First.Code)
}

func (e *ChunkWriteError) Unwrap() []error {
	errs := []error{ErrChunkWriteFailed}
	for _, d := range e.Details {
		if d.Code == database.CodeCancelled {
			errs = append(errs, ErrWriteCancelled)
			break
		}
	}
	return errs
}

// ChunkedWriter upserts records in bounded chunks so one bad chunk cannot
// sink the rest of a batch.
type ChunkedWriter struct {
	store       database.Store
	concurrency int
	timeout     time.Duration
}

// NewChunkedWriter returns a writer running up to concurrency chunks at once,
// each bounded by timeout (0 disables the per-chunk timeout).
func NewChunkedWriter(store database.Store, concurrency int, timeout time.Duration) *ChunkedWriter {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ChunkedWriter{store: store, concurrency: concurrency, timeout: timeout}
}

type chunkOutcome struct {
	written int
	failed  int
	detail  *models.ErrorDetail
}

// Write persists records into dest. Failures are recorded per chunk and never
// stop the remaining chunks; once ctx is done, chunks not yet started are
// reported as cancelled.
func (w *ChunkedWriter) Write(ctx context.Context, dest models.Destination, records []models.PerformanceRecord, chunkSize int) WriteResult {
	if chunkSize <= 0 {
		chunkSize = config.DefaultChunkSize
	}
	chunks := Partition(records, chunkSize)
	outcomes := make([]chunkOutcome, len(chunks))

	var g errgroup.Group
	g.SetLimit(w.concurrency)
	for i, chunk := range chunks {
		start := i * chunkSize
		if ctx.Err() != nil {
			outcomes[i] = cancelledOutcome(ctx, dest, start, len(chunk))
			continue
		}
		g.Go(func() error {
			outcomes[i] = w.writeChunk(ctx, dest, start, chunk)
			return nil
		})
	}
	g.Wait()

	var res WriteResult
	for _, o := range outcomes {
		res.Success += o.written
		res.Failed += o.failed
		if o.detail != nil {
			res.Errors = append(res.Errors, *o.detail)
		}
	}
	return res
}

func (w *ChunkedWriter) writeChunk(ctx context.Context, dest models.Destination, start int, chunk []models.PerformanceRecord) chunkOutcome {
	if ctx.Err() != nil {
		return cancelledOutcome(ctx, dest, start, len(chunk))
	}
	log := logger.FromContext(ctx)

	cctx := ctx
	if w.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	if err := w.store.Upsert(cctx, dest, chunk); err != nil {
		log.Warn("Chunk write failed", "table", dest, "chunkStart", start, "chunkSize", len(chunk), "error", err)
		return chunkOutcome{
			failed: len(chunk),
			detail: &models.ErrorDetail{
				Table:           dest,
				ChunkStartIndex: start,
				ChunkSize:       len(chunk),
				Message:         err.Error(),
				Code:            database.ErrorCode(err),
			},
		}
	}
	log.Debug("Chunk written", "table", dest, "chunkStart", start, "chunkSize", len(chunk))
	return chunkOutcome{written: len(chunk)}
}

func cancelledOutcome(ctx context.Context, dest models.Destination, start, size int) chunkOutcome {
	return chunkOutcome{
		failed: size,
		detail: &models.ErrorDetail{
			Table:           dest,
			ChunkStartIndex: start,
			ChunkSize:       size,
			Message:         fmt.Sprintf("chunk not attempted: %v", context.Cause(ctx)),
			Code:            database.CodeCancelled,
		},
	}
}

// Partition splits records into consecutive slices of at most size elements.
func Partition(records []models.PerformanceRecord, size int) [][]models.PerformanceRecord {
	if size <= 0 {
		size = config.DefaultChunkSize
	}
	var chunks [][]models.PerformanceRecord
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
