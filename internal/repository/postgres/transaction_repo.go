package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TransactionRepository implements domain.TransactionRepository using PostgreSQL
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionSelect = `
SELECT t.id, t.user_id, t.kind, t.tx_date, t.amount, t.description, t.category_id,
       COALESCE(c.name, ''), t.created_at
FROM transactions t
LEFT JOIN categories c ON c.id = t.category_id`

// Create creates a new transaction
func (r *TransactionRepository) Create(transaction *domain.Transaction) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, err
	}

	var created *domain.Transaction
	err = withUserLock(ctx, r.pool, transaction.UserID, func(tx pgx.Tx) error {
		if transaction.CategoryID != nil {
			var exists bool
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM categories WHERE user_id = $1 AND id = $2)`,
				transaction.UserID, *transaction.CategoryID).Scan(&exists); err != nil {
				return err
			}
			if !exists {
				return domain.ErrCategoryNotFound
			}
		}

		var id int32
		if err := tx.QueryRow(ctx,
			`INSERT INTO transactions (user_id, kind, tx_date, amount, description, category_id)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			transaction.UserID, string(transaction.Kind), dateToPg(transaction.Date), amount,
			transaction.Description, transaction.CategoryID).Scan(&id); err != nil {
			return err
		}

		t, err := scanTransaction(tx.QueryRow(ctx, transactionSelect+` WHERE t.id = $1`, id))
		if err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		if isPgForeignKeyViolation(err) {
			if transaction.CategoryID != nil {
				return nil, domain.ErrCategoryNotFound
			}
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a transaction by its ID within a user's ledger
func (r *TransactionRepository) GetByID(userID int64, id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	t, err := scanTransaction(r.pool.QueryRow(ctx, transactionSelect+` WHERE t.user_id = $1 AND t.id = $2`, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetByDate lists transactions of one kind recorded on a date
func (r *TransactionRepository) GetByDate(userID int64, date time.Time, kind domain.TransactionKind) ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		transactionSelect+` WHERE t.user_id = $1 AND t.kind = $2 AND t.tx_date = $3 ORDER BY t.id`,
		userID, string(kind), dateToPg(date))
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// DeleteByDate removes every transaction of one kind on a date
func (r *TransactionRepository) DeleteByDate(userID int64, date time.Time, kind domain.TransactionKind) (int64, error) {
	ctx := context.Background()
	var deleted int64
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`DELETE FROM transactions WHERE user_id = $1 AND kind = $2 AND tx_date = $3`,
			userID, string(kind), dateToPg(date))
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected()
		return nil
	})
	return deleted, err
}

// Delete removes a single transaction and returns it
func (r *TransactionRepository) Delete(userID int64, id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	var deleted *domain.Transaction
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		t, err := scanTransaction(tx.QueryRow(ctx, transactionSelect+` WHERE t.user_id = $1 AND t.id = $2`, userID, id))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id); err != nil {
			return err
		}
		deleted = t
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return deleted, nil
}

// UpdateCategory moves one expense to another category of the same user
func (r *TransactionRepository) UpdateCategory(userID int64, id int32, categoryID int32) (*domain.Transaction, error) {
	ctx := context.Background()
	var updated *domain.Transaction
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		current, err := scanTransaction(tx.QueryRow(ctx, transactionSelect+` WHERE t.user_id = $1 AND t.id = $2`, userID, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return domain.ErrTransactionNotFound
			}
			return err
		}
		if current.Kind != domain.TransactionKindExpense {
			return domain.ErrNotAnExpense
		}

		if _, err := tx.Exec(ctx,
			`UPDATE transactions SET category_id = $3 WHERE user_id = $1 AND id = $2`,
			userID, id, categoryID); err != nil {
			if isPgForeignKeyViolation(err) {
				return domain.ErrCategoryNotFound
			}
			return err
		}

		t, err := scanTransaction(tx.QueryRow(ctx, transactionSelect+` WHERE t.id = $1`, id))
		if err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// GetLast returns the most recent transactions of one kind, newest date first
func (r *TransactionRepository) GetLast(userID int64, kind domain.TransactionKind, limit int32) ([]*domain.Transaction, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		transactionSelect+` WHERE t.user_id = $1 AND t.kind = $2 ORDER BY t.tx_date DESC, t.id DESC LIMIT $3`,
		userID, string(kind), limit)
	if err != nil {
		return nil, err
	}
	return collectTransactions(rows)
}

// GetYears returns the distinct years that hold any transaction, ascending
func (r *TransactionRepository) GetYears(userID int64) ([]int, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT EXTRACT(YEAR FROM tx_date)::int AS year FROM transactions WHERE user_id = $1 ORDER BY year`,
		userID)
	if err != nil {
		return nil, err
	}
	years, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, err
	}
	result := make([]int, len(years))
	for i, y := range years {
		result[i] = int(y)
	}
	return result, nil
}

// GetAggregates sums amounts per (date, category) inside the range
func (r *TransactionRepository) GetAggregates(userID int64, kind domain.TransactionKind, dr domain.DateRange) ([]*domain.AggregateRow, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, `
		SELECT t.tx_date, t.category_id, COALESCE(c.name, ''), SUM(t.amount), COUNT(*)
		FROM transactions t
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.kind = $2
		  AND ($3::date IS NULL OR t.tx_date >= $3)
		  AND ($4::date IS NULL OR t.tx_date < $4)
		GROUP BY t.tx_date, t.category_id, c.name
		ORDER BY t.tx_date, c.name`,
		userID, string(kind), dateToPg(dr.Start), dateToPg(dr.End))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.AggregateRow, 0)
	for rows.Next() {
		var (
			date  pgtype.Date
			total pgtype.Numeric
			row   domain.AggregateRow
		)
		if err := rows.Scan(&date, &row.CategoryID, &row.CategoryName, &total, &row.Count); err != nil {
			return nil, err
		}
		row.Date = pgDateToTime(date)
		row.Total = pgNumericToDecimal(total)
		result = append(result, &row)
	}
	return result, rows.Err()
}

// GetTotals sums income and expense inside the range
func (r *TransactionRepository) GetTotals(userID int64, dr domain.DateRange) (*domain.Totals, error) {
	ctx := context.Background()
	var income, expense pgtype.Numeric
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(amount) FILTER (WHERE kind = 'income'), 0),
		       COALESCE(SUM(amount) FILTER (WHERE kind = 'expense'), 0)
		FROM transactions
		WHERE user_id = $1
		  AND ($2::date IS NULL OR tx_date >= $2)
		  AND ($3::date IS NULL OR tx_date < $3)`,
		userID, dateToPg(dr.Start), dateToPg(dr.End)).Scan(&income, &expense)
	if err != nil {
		return nil, err
	}
	return &domain.Totals{
		Income:  pgNumericToDecimal(income),
		Expense: pgNumericToDecimal(expense),
	}, nil
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var (
		t      domain.Transaction
		kind   string
		date   pgtype.Date
		amount pgtype.Numeric
	)
	if err := row.Scan(&t.ID, &t.UserID, &kind, &date, &amount, &t.Description, &t.CategoryID, &t.CategoryName, &t.CreatedAt); err != nil {
		return nil, err
	}
	t.Kind = domain.TransactionKind(kind)
	t.Date = pgDateToTime(date)
	t.Amount = pgNumericToDecimal(amount)
	return &t, nil
}

func collectTransactions(rows pgx.Rows) ([]*domain.Transaction, error) {
	defer rows.Close()
	result := make([]*domain.Transaction, 0)
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, t)
	}
	return result, rows.Err()
}
