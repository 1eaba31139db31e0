package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = `id, user_id, name, created_at, updated_at`

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()
	var created *domain.Category
	err := withUserLock(ctx, r.pool, category.UserID, func(tx pgx.Tx) error {
		c, err := scanCategory(tx.QueryRow(ctx,
			`INSERT INTO categories (user_id, name) VALUES ($1, $2) RETURNING `+categoryColumns,
			category.UserID, category.Name))
		if err != nil {
			return err
		}
		created = c
		return nil
	})
	if err != nil {
		// Check for unique constraint violation
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		if isPgForeignKeyViolation(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a category by its ID within a user's ledger
func (r *CategoryRepository) GetByID(userID int64, id int32) (*domain.Category, error) {
	ctx := context.Background()
	category, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`, userID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetByName retrieves a category by name, ignoring case
func (r *CategoryRepository) GetByName(userID int64, name string) (*domain.Category, error) {
	ctx := context.Background()
	category, err := scanCategory(r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND lower(name) = lower($2)`, userID, name))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByUser retrieves all categories of a user ordered by name
func (r *CategoryRepository) GetAllByUser(userID int64) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY lower(name), id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make([]*domain.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// Count returns the number of categories a user owns
func (r *CategoryRepository) Count(userID int64) (int64, error) {
	ctx := context.Background()
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE user_id = $1`, userID).Scan(&n)
	return n, err
}

// Rename updates a category's name
func (r *CategoryRepository) Rename(userID int64, id int32, name string) (*domain.Category, error) {
	ctx := context.Background()
	var renamed *domain.Category
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		c, err := scanCategory(tx.QueryRow(ctx,
			`UPDATE categories SET name = $3, updated_at = NOW()
			 WHERE user_id = $1 AND id = $2 RETURNING `+categoryColumns, userID, id, name))
		if err != nil {
			return err
		}
		renamed = c
		return nil
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		if isPgUniqueViolation(err) {
			return nil, domain.ErrCategoryAlreadyExists
		}
		return nil, err
	}
	return renamed, nil
}

// ReassignAndDelete moves expenses from one category to another and deletes the source.
// Both categories are re-read under the lock so a concurrent delete is observed.
func (r *CategoryRepository) ReassignAndDelete(userID int64, fromID, toID int32) (int64, error) {
	ctx := context.Background()
	var moved int64
	err := withUserLock(ctx, r.pool, userID, func(tx pgx.Tx) error {
		var found int
		if err := tx.QueryRow(ctx,
			`SELECT COUNT(*) FROM categories WHERE user_id = $1 AND id IN ($2, $3)`,
			userID, fromID, toID).Scan(&found); err != nil {
			return err
		}
		if found != 2 {
			return domain.ErrCategoryNotFound
		}

		tag, err := tx.Exec(ctx,
			`UPDATE transactions SET category_id = $3
			 WHERE user_id = $1 AND kind = 'expense' AND category_id = $2`,
			userID, fromID, toID)
		if err != nil {
			return err
		}
		moved = tag.RowsAffected()

		_, err = tx.Exec(ctx, `DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, fromID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// GetStats returns totals over all expenses in a category
func (r *CategoryRepository) GetStats(userID int64, id int32) (*domain.CategoryStats, error) {
	category, err := r.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	var (
		total pgtype.Numeric
		count int64
	)
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(amount), 0), COUNT(*) FROM transactions
		 WHERE user_id = $1 AND kind = 'expense' AND category_id = $2`, userID, id).Scan(&total, &count)
	if err != nil {
		return nil, err
	}

	stats := &domain.CategoryStats{
		Category:      category,
		TotalSpent:    pgNumericToDecimal(total),
		ExpenseCount:  count,
		AverageAmount: decimal.Zero,
	}
	if count > 0 {
		stats.AverageAmount = stats.TotalSpent.Div(decimal.NewFromInt(count)).Round(2)
	}
	return stats, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var c domain.Category
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
