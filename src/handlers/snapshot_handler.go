// src/handlers/snapshot_handler.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/services"
	"github.com/username/perfsnap/src/utils"
)

type SnapshotHandler struct {
	snapshotService services.SnapshotService
}

func NewSnapshotHandler(service services.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{snapshotService: service}
}

func (h *SnapshotHandler) HandleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.snapshotService.ListSnapshots(r.Context())
	if err != nil {
		logger.L.Error("Error listing snapshots", "error", err)
		utils.SendJSONError(w, "Error listing snapshots", http.StatusInternalServerError)
		return
	}
	if snapshots == nil {
		snapshots = []models.SnapshotSummary{}
	}

	etag, err := utils.GenerateETag(snapshots)
	if err != nil {
		logger.L.Error("Error generating ETag for snapshots", "error", err)
		utils.SendJSON(w, http.StatusOK, snapshots)
		return
	}
	w.Header().Set("ETag", `"`+etag+`"`)
	if match := r.Header.Get("If-None-Match"); match == `"`+etag+`"` {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	utils.SendJSON(w, http.StatusOK, snapshots)
}

func (h *SnapshotHandler) HandleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	var dest models.Destination
	if kind := r.URL.Query().Get("kind"); kind != "" {
		d, ok := models.ParseDestination(kind)
		if !ok {
			utils.SendJSONError(w, "kind must be 'fund' or 'benchmark'", http.StatusBadRequest)
			return
		}
		dest = d
	}

	records, err := h.snapshotService.GetSnapshot(r.Context(), r.PathValue("date"), dest)
	if err != nil {
		if errors.Is(err, services.ErrInvalidSnapshot) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error loading snapshot", "date", r.PathValue("date"), "error", err)
		utils.SendJSONError(w, "Error loading snapshot", http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []models.PerformanceRecord{}
	}
	utils.SendJSON(w, http.StatusOK, records)
}

type convertResponse struct {
	*models.ConvertResult
	Error string `json:"error,omitempty"`
}

func (h *SnapshotHandler) HandleConvertToEOM(w http.ResponseWriter, r *http.Request) {
	result, err := h.snapshotService.ConvertToEOM(r.Context(), r.PathValue("date"))
	switch {
	case err == nil:
		utils.SendJSON(w, http.StatusOK, convertResponse{ConvertResult: result})
	case errors.Is(err, services.ErrInvalidSnapshot):
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, services.ErrPartialConversion) && result != nil:
		logger.L.Error("Snapshot conversion left rows at both dates", "source", result.SourceDate, "target", result.TargetDate, "error", err)
		utils.SendJSON(w, http.StatusMultiStatus, convertResponse{ConvertResult: result, Error: err.Error()})
	default:
		logger.L.Error("Snapshot conversion failed", "date", r.PathValue("date"), "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusInternalServerError)
	}
}

type reconcileResponse struct {
	Results []models.ConvertResult `json:"results"`
	Error   string                 `json:"error,omitempty"`
}

func (h *SnapshotHandler) HandleReconcile(w http.ResponseWriter, r *http.Request) {
	results, err := h.snapshotService.ReconcileAll(r.Context())
	if results == nil {
		results = []models.ConvertResult{}
	}
	if err != nil {
		logger.L.Error("Reconciliation stopped", "converted", len(results), "error", err)
		status := http.StatusInternalServerError
		if len(results) > 0 {
			status = http.StatusMultiStatus
		}
		utils.SendJSON(w, status, reconcileResponse{Results: results, Error: err.Error()})
		return
	}
	utils.SendJSON(w, http.StatusOK, reconcileResponse{Results: results})
}

func (h *SnapshotHandler) HandleDeleteSnapshot(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.snapshotService.DeleteSnapshot(r.Context(), r.PathValue("date"))
	if err != nil {
		if errors.Is(err, services.ErrInvalidSnapshot) {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
		logger.L.Error("Error deleting snapshot", "date", r.PathValue("date"), "deleted", deleted, "error", err)
		utils.SendJSONError(w, "Error deleting snapshot", http.StatusInternalServerError)
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}
