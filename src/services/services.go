// src/services/services.go
package services

import (
	"github.com/patrickmn/go-cache"
	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/database"
	"github.com/username/perfsnap/src/processors"
)

// NewServices wires the import pipeline and the snapshot service over one
// store, sharing the chunked writer and the inventory cache.
func NewServices(store database.Store, cfg *config.AppConfig, aliases config.ColumnAliases) (ImportService, SnapshotService) {
	writer := NewChunkedWriter(store, cfg.WriteConcurrency, cfg.WriteTimeout)
	inventoryCache := cache.New(cfg.InventoryCacheTTL, CacheCleanupInterval)
	snapshots := NewSnapshotService(store, writer, inventoryCache, cfg.ChunkSize)
	imports := NewImportService(
		store,
		processors.NewRowClassifier(),
		processors.NewDeduplicator(),
		writer,
		NewSanityProber(store, cfg.SanitySampleSize),
		snapshots,
		aliases,
		cfg.ChunkSize,
	)
	return imports, snapshots
}
