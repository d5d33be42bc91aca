package handlers

import "net/http"

// RegisterRoutes mounts the API on mux.
func RegisterRoutes(mux *http.ServeMux, imports *ImportHandler, snapshots *SnapshotHandler, health *HealthHandler) {
	mux.HandleFunc("POST /api/imports", imports.HandleImport)
	mux.HandleFunc("GET /api/snapshots", snapshots.HandleListSnapshots)
	mux.HandleFunc("POST /api/snapshots/reconcile", snapshots.HandleReconcile)
	mux.HandleFunc("GET /api/snapshots/{date}", snapshots.HandleGetSnapshot)
	mux.HandleFunc("POST /api/snapshots/{date}/convert-eom", snapshots.HandleConvertToEOM)
	mux.HandleFunc("DELETE /api/snapshots/{date}", snapshots.HandleDeleteSnapshot)
	mux.HandleFunc("GET /healthz", health.HandleHealth)
}
