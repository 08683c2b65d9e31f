package app

import (
	"context"
	"net/http"
	"time"

	"github.com/munitrack/munitrack/internal/rest"
	log "github.com/sirupsen/logrus"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type HealthDTO struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

type HealthHandler struct {
	db pinger
}

func NewHealthHandler(db pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

// Health godoc
// @Summary Service health
// @Tags Health
// @Produce json
// @Success 200 {object} HealthDTO
// @Failure 503 {object} HealthDTO
// @Router /api/health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		log.Warnf("health check failed: %v", err)
		rest.WriteJSON(w, http.StatusServiceUnavailable, HealthDTO{Status: "degraded", Database: "unreachable"})
		return
	}
	rest.WriteJSON(w, http.StatusOK, HealthDTO{Status: "ok", Database: "ok"})
}
