package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBackupPrefix  = "backups"
	BackupDownloadExpiry = 24 * time.Hour
	backupContentType    = "application/gzip"
)

var ErrBackupNotConfigured = errors.New("backup storage not configured")

// BackupService exports ledger tables as gzipped CSV to object storage
type BackupService struct {
	exporter domain.BackupExporter
	storage  domain.BackupStorage
	prefix   string
	now      func() time.Time
	logger   zerolog.Logger
	slot     chan struct{} // one run at a time
}

// NewBackupService creates a new BackupService. A nil storage disables backups.
func NewBackupService(exporter domain.BackupExporter, storage domain.BackupStorage, prefix string) *BackupService {
	if prefix == "" {
		prefix = DefaultBackupPrefix
	}
	return &BackupService{
		exporter: exporter,
		storage:  storage,
		prefix:   prefix,
		now:      time.Now,
		logger:   log.With().Str("component", "backup_service").Logger(),
		slot:     make(chan struct{}, 1),
	}
}

// IsEnabled indicates whether backups can run (storage configured)
func (s *BackupService) IsEnabled() bool {
	return s != nil && s.storage != nil
}

// Run exports every ledger table and uploads it under a fresh run directory.
// Concurrent calls wait for the running backup to finish.
func (s *BackupService) Run(ctx context.Context) (*domain.BackupResult, error) {
	if !s.IsEnabled() {
		return nil, ErrBackupNotConfigured
	}

	select {
	case s.slot <- struct{}{}:
		defer func() { <-s.slot }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	result := &domain.BackupResult{
		RunID:     uuid.New().String(),
		StartedAt: s.now().UTC(),
		Objects:   make([]domain.BackupObject, 0, len(domain.BackupTables)),
	}

	exports := make(map[string]*tableExport, len(domain.BackupTables))
	rows, err := s.exporter.ExportAll(ctx, func(table string) io.Writer {
		e := &tableExport{}
		e.zw = gzip.NewWriter(&e.buf)
		exports[table] = e
		return e.zw
	})
	if err != nil {
		s.logger.Error().Err(err).Str("run_id", result.RunID).Msg("Backup export failed")
		return nil, fmt.Errorf("export: %w", err)
	}

	for _, table := range domain.BackupTables {
		e, ok := exports[table]
		if !ok {
			return nil, fmt.Errorf("export %s: table missing from snapshot", table)
		}
		obj, err := s.uploadTable(ctx, result, table, e, rows[table])
		if err != nil {
			s.logger.Error().Err(err).Str("run_id", result.RunID).Str("table", table).Msg("Backup failed")
			return nil, err
		}
		result.Objects = append(result.Objects, *obj)
	}

	result.FinishedAt = s.now().UTC()
	s.logger.Info().
		Str("run_id", result.RunID).
		Int("tables", len(result.Objects)).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("Backup completed")
	return result, nil
}

// tableExport is one table's gzipped CSV as it is written by the exporter
type tableExport struct {
	buf bytes.Buffer
	zw  *gzip.Writer
}

func (s *BackupService) uploadTable(ctx context.Context, result *domain.BackupResult, table string, e *tableExport, rows int64) (*domain.BackupObject, error) {
	if err := e.zw.Close(); err != nil {
		return nil, fmt.Errorf("compress %s: %w", table, err)
	}

	key := domain.BackupObjectKey(s.prefix, result.StartedAt, result.RunID, table)
	buf := &e.buf
	size := int64(buf.Len())
	if _, err := s.storage.Upload(ctx, key, buf, backupContentType, size); err != nil {
		return nil, fmt.Errorf("upload %s: %w", table, err)
	}

	obj := &domain.BackupObject{Table: table, Key: key, Rows: rows, Bytes: size}
	url, err := s.storage.PresignDownload(ctx, key, BackupDownloadExpiry)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("Failed to presign backup download")
	} else {
		obj.DownloadURL = url
	}
	return obj, nil
}
