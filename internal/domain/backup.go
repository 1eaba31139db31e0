package domain

import (
	"context"
	"io"
	"path"
	"time"
)

// BackupTables lists the tables exported by a backup run, in restore order
var BackupTables = []string{"users", "categories", "transactions"}

// BackupObjectKey builds prefix/YYYY-MM-DD/runID/table.csv.gz
func BackupObjectKey(prefix string, day time.Time, runID, table string) string {
	return path.Join(prefix, day.UTC().Format("2006-01-02"), runID, table+".csv.gz")
}

// BackupObject describes one uploaded table export
type BackupObject struct {
	Table       string `json:"table"`
	Key         string `json:"key"`
	Rows        int64  `json:"rows"`
	Bytes       int64  `json:"bytes"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// BackupResult is the manifest of a completed backup run
type BackupResult struct {
	RunID      string         `json:"runId"`
	StartedAt  time.Time      `json:"startedAt"`
	FinishedAt time.Time      `json:"finishedAt"`
	Objects    []BackupObject `json:"objects"`
}

// BackupExporter writes CSV exports of every table in BackupTables, all read from one
// snapshot. writerFor is called once per table in BackupTables order. The returned map
// holds the row count per table.
type BackupExporter interface {
	ExportAll(ctx context.Context, writerFor func(table string) io.Writer) (map[string]int64, error)
}

// BackupStorage persists backup objects
type BackupStorage interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string, size int64) (string, error)
	PresignDownload(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// ReportImageCache stores rendered report images per user and period
type ReportImageCache interface {
	Get(ctx context.Context, key ReportImageKey) ([]byte, bool, error)
	// Generation returns the user's invalidation counter. Every Invalidate advances it.
	Generation(ctx context.Context, userID int64) (int64, error)
	// Set stores image only while the user's generation still equals gen, so an image drawn
	// from data that changed mid-render is dropped. It reports whether the image was stored.
	Set(ctx context.Context, key ReportImageKey, gen int64, image []byte) (bool, error)
	// Invalidate drops images affected by a change to the user's data in year/month.
	// Month 0 covers the whole year and year 0 covers everything.
	Invalidate(ctx context.Context, userID int64, year, month int) error
}
