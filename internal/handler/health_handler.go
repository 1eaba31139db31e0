package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const healthTimeout = 2 * time.Second

// Pinger checks that a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// BackupStatus reports the most recent scheduled backup
type BackupStatus interface {
	LastRun() *service.BackupRunStatus
}

// HealthHandler reports liveness of the API and its database
type HealthHandler struct {
	db      Pinger
	backups BackupStatus
}

// HealthResponse is the body of a successful health check
type HealthResponse struct {
	Status     string                   `json:"status"`
	LastBackup *service.BackupRunStatus `json:"lastBackup,omitempty"`
}

// NewHealthHandler creates a new HealthHandler. backups is nil when scheduled backups are off.
func NewHealthHandler(db Pinger, backups BackupStatus) *HealthHandler {
	return &HealthHandler{db: db, backups: backups}
}

// Health returns 200 when the database answers, 503 otherwise
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Health check failed")
		return NewUnavailableError(c, "Database unavailable")
	}
	resp := HealthResponse{Status: "ok"}
	if h.backups != nil {
		resp.LastBackup = h.backups.LastRun()
	}
	return c.JSON(http.StatusOK, resp)
}
