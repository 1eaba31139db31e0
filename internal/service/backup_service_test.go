package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backupExporter() *testutil.MockBackupExporter {
	return &testutil.MockBackupExporter{Tables: map[string]string{
		"users":        "id,username,created_at\n1,alice,2024-01-01\n",
		"categories":   "id,user_id,name\n1,1,Food\n2,1,Other\n",
		"transactions": "id,user_id,kind,date,amount\n1,1,expense,2024-12-26,500.00\n",
	}}
}

func gunzip(t *testing.T, data []byte) string {
	t.Helper()
	zr, err := gzip.NewReader(bytes.NewReader(data))
	require.NoError(t, err)
	out, err := io.ReadAll(zr)
	require.NoError(t, err)
	return string(out)
}

func TestBackupService_Run(t *testing.T) {
	exporter := backupExporter()
	storage := testutil.NewMockBackupStorage()
	svc := NewBackupService(exporter, storage, "nightly")
	svc.now = func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }

	result, err := svc.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Objects, len(domain.BackupTables))
	assert.NotEmpty(t, result.RunID)
	for i, obj := range result.Objects {
		assert.Equal(t, domain.BackupTables[i], obj.Table)
		assert.True(t, strings.HasPrefix(obj.Key, "nightly/2025-02-03/"+result.RunID+"/"), obj.Key)
		assert.True(t, strings.HasSuffix(obj.Key, obj.Table+".csv.gz"), obj.Key)
		assert.Equal(t, "https://storage.test/"+obj.Key, obj.DownloadURL)

		stored, ok := storage.Objects[obj.Key]
		require.True(t, ok)
		assert.Equal(t, int64(len(stored)), obj.Bytes)
		assert.Equal(t, exporter.Tables[obj.Table], gunzip(t, stored))
	}
	assert.Equal(t, int64(2), result.Objects[1].Rows)
}

func TestBackupService_TablesComeFromOneSnapshot(t *testing.T) {
	exporter := backupExporter()
	original := exporter.Tables["transactions"]
	exporter.AfterTable = func(table string) {
		if table == "categories" {
			// a write landing mid-run must not show up in later tables
			exporter.Tables["transactions"] += "2,1,expense,2024-12-27,7.00,,3\n"
		}
	}
	storage := testutil.NewMockBackupStorage()

	result, err := NewBackupService(exporter, storage, "").Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, exporter.Calls)
	tx := result.Objects[2]
	require.Equal(t, "transactions", tx.Table)
	assert.Equal(t, original, gunzip(t, storage.Objects[tx.Key]))
	assert.Equal(t, int64(1), tx.Rows)
}

func TestBackupService_DefaultPrefixAndUniqueRuns(t *testing.T) {
	svc := NewBackupService(backupExporter(), testutil.NewMockBackupStorage(), "")

	first, err := svc.Run(context.Background())
	require.NoError(t, err)
	second, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.True(t, strings.HasPrefix(first.Objects[0].Key, DefaultBackupPrefix+"/"))
}

func TestBackupService_NotConfigured(t *testing.T) {
	svc := NewBackupService(backupExporter(), nil, "")
	assert.False(t, svc.IsEnabled())

	_, err := svc.Run(context.Background())
	assert.Equal(t, ErrBackupNotConfigured, err)
}

func TestBackupService_Failures(t *testing.T) {
	exporter := backupExporter()
	exporter.ExportErr = errors.New("copy failed")
	_, err := NewBackupService(exporter, testutil.NewMockBackupStorage(), "").Run(context.Background())
	assert.ErrorIs(t, err, exporter.ExportErr)

	storage := testutil.NewMockBackupStorage()
	storage.UploadErr = errors.New("bucket gone")
	_, err = NewBackupService(backupExporter(), storage, "").Run(context.Background())
	assert.ErrorIs(t, err, storage.UploadErr)
}

func TestBackupService_CancelledWhileWaiting(t *testing.T) {
	svc := NewBackupService(backupExporter(), testutil.NewMockBackupStorage(), "")
	svc.slot <- struct{}{} // another run holds the slot

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
