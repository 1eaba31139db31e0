package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// BackupWorker is a background worker that periodically runs backups
type BackupWorker struct {
	backupService *BackupService
	logger        zerolog.Logger
	interval      time.Duration
	runOnStart    bool
	stopCh        chan struct{}
	stopOnce      sync.Once
	doneCh        chan struct{}
	mu            sync.Mutex
	running       bool
	lastResult    *BackupRunStatus
}

// BackupWorkerConfig holds configuration for the backup worker
type BackupWorkerConfig struct {
	Interval   time.Duration // How often to run a backup
	RunOnStart bool          // Back up immediately instead of waiting one interval
}

// BackupRunStatus is the outcome of the worker's most recent run
type BackupRunStatus struct {
	At    time.Time `json:"at"`
	RunID string    `json:"runId,omitempty"`
	Error string    `json:"error,omitempty"`
}

// DefaultBackupWorkerConfig returns sensible defaults
func DefaultBackupWorkerConfig() BackupWorkerConfig {
	return BackupWorkerConfig{
		Interval:   24 * time.Hour,
		RunOnStart: false,
	}
}

// NewBackupWorker creates a new backup worker
func NewBackupWorker(backupService *BackupService, logger zerolog.Logger, config BackupWorkerConfig) *BackupWorker {
	if config.Interval <= 0 {
		config.Interval = DefaultBackupWorkerConfig().Interval
	}

	return &BackupWorker{
		backupService: backupService,
		logger:        logger.With().Str("component", "backup_worker").Logger(),
		interval:      config.Interval,
		runOnStart:    config.RunOnStart,
		stopCh:        make(chan struct{}),
		doneCh:        make(chan struct{}),
	}
}

// Start begins the periodic backups
func (w *BackupWorker) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info().
		Dur("interval", w.interval).
		Bool("run_on_start", w.runOnStart).
		Msg("Starting backup worker")

	go w.run(ctx)
}

// Stop gracefully stops the worker, waiting for a backup in progress.
// It is safe to call from several goroutines.
func (w *BackupWorker) Stop() {
	w.mu.Lock()
	running := w.running
	w.mu.Unlock()
	if !running {
		return
	}

	w.stopOnce.Do(func() {
		w.logger.Info().Msg("Stopping backup worker")
		close(w.stopCh)
	})
	<-w.doneCh
	w.logger.Info().Msg("Backup worker stopped")
}

func (w *BackupWorker) run(ctx context.Context) {
	defer close(w.doneCh)
	defer func() {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
	}()

	if w.runOnStart {
		w.backup(ctx)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.backup(ctx)
		}
	}
}

func (w *BackupWorker) backup(ctx context.Context) {
	status := &BackupRunStatus{At: time.Now().UTC()}
	result, err := w.backupService.Run(ctx)
	if err != nil {
		w.logger.Error().Err(err).Msg("Scheduled backup failed")
		status.Error = err.Error()
	} else {
		status.RunID = result.RunID
	}

	w.mu.Lock()
	w.lastResult = status
	w.mu.Unlock()
}

// LastRun returns the outcome of the most recent scheduled backup, nil before the first
func (w *BackupWorker) LastRun() *BackupRunStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastResult
}

// IsRunning returns whether the worker is currently running
func (w *BackupWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
