package postgres

import (
	"context"
	"fmt"
	"io"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// BackupRepository implements domain.BackupExporter with COPY ... TO STDOUT
type BackupRepository struct {
	pool *pgxpool.Pool
}

// NewBackupRepository creates a new BackupRepository
func NewBackupRepository(pool *pgxpool.Pool) *BackupRepository {
	return &BackupRepository{pool: pool}
}

var exportQueries = map[string]string{
	"users":        `COPY (SELECT id, username, created_at FROM users ORDER BY id) TO STDOUT WITH (FORMAT csv, HEADER true)`,
	"categories":   `COPY (SELECT id, user_id, name, created_at, updated_at FROM categories ORDER BY id) TO STDOUT WITH (FORMAT csv, HEADER true)`,
	"transactions": `COPY (SELECT id, user_id, kind, tx_date, amount, description, category_id, created_at FROM transactions ORDER BY id) TO STDOUT WITH (FORMAT csv, HEADER true)`,
}

// snapshotTxOptions makes every COPY in a run see the same committed state
var snapshotTxOptions = pgx.TxOptions{
	IsoLevel:   pgx.RepeatableRead,
	AccessMode: pgx.ReadOnly,
}

// ExportAll streams a CSV export of every backup table, all inside one repeatable read
// transaction, and returns the row count per table
func (r *BackupRepository) ExportAll(ctx context.Context, writerFor func(table string) io.Writer) (map[string]int64, error) {
	tx, err := r.pool.BeginTx(ctx, snapshotTxOptions)
	if err != nil {
		return nil, fmt.Errorf("begin export: %w", err)
	}
	defer tx.Rollback(ctx)

	rows := make(map[string]int64, len(domain.BackupTables))
	for _, table := range domain.BackupTables {
		query, ok := exportQueries[table]
		if !ok {
			return nil, fmt.Errorf("export %q: unknown table", table)
		}
		tag, err := tx.Conn().PgConn().CopyTo(ctx, writerFor(table), query)
		if err != nil {
			return nil, fmt.Errorf("export %s: %w", table, err)
		}
		rows[table] = tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("finish export: %w", err)
	}
	return rows, nil
}
