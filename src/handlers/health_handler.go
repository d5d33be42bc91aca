package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/utils"
)

// Pinger is satisfied by database.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	store Pinger
}

func NewHealthHandler(store Pinger) *HealthHandler {
	return &HealthHandler{store: store}
}

func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		logger.L.Warn("Health check failed", "error", err)
		utils.SendJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	utils.SendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
