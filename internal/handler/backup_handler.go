package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// BackupHandler triggers database backups on demand
type BackupHandler struct {
	backupService *service.BackupService
}

// NewBackupHandler creates a new BackupHandler
func NewBackupHandler(backupService *service.BackupService) *BackupHandler {
	return &BackupHandler{backupService: backupService}
}

// CreateBackup exports every table to object storage and returns the manifest
func (h *BackupHandler) CreateBackup(c echo.Context) error {
	result, err := h.backupService.Run(c.Request().Context())
	if err != nil {
		if errors.Is(err, service.ErrBackupNotConfigured) {
			return NewUnavailableError(c, "Backups are not configured")
		}
		log.Error().Err(err).Msg("Backup failed")
		return NewInternalError(c, "Failed to create backup")
	}
	return c.JSON(http.StatusCreated, result)
}
