// src/services/sanity_prober.go
package services

import (
	"context"
	"fmt"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
)

// SanityProber samples freshly written fund rows and flags a date whose rows
// carry no metric at all, which usually means the source columns were not mapped.
type SanityProber struct {
	store      database.Store
	sampleSize int
}

func NewSanityProber(store database.Store, sampleSize int) *SanityProber {
	if sampleSize <= 0 {
		sampleSize = config.DefaultSanitySampleSize
	}
	return &SanityProber{store: store, sampleSize: sampleSize}
}

// Probe returns a warning naming asOfDate when every metric of every sampled
// fund row is null. An empty sample yields no warning.
func (p *SanityProber) Probe(ctx context.Context, asOfDate string) (string, error) {
	sample, err := p.store.SelectByDate(ctx, models.Fund, asOfDate, p.sampleSize)
	if err != nil {
		return "", fmt.Errorf("sampling fund rows for %s: %w", asOfDate, err)
	}
	if len(sample) == 0 {
		return "", nil
	}
	for _, rec := range sample {
		if !rec.Metrics.AllNull() {
			return "", nil
		}
	}
	logger.FromContext(ctx).Warn("All sampled metrics are null", "date", asOfDate, "sampled", len(sample))
	return fmt.Sprintf("all metrics are null in the %d sampled fund row(s) for %s; check the source column mapping", len(sample), asOfDate), nil
}
