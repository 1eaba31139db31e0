package postgres

import (
	"context"
	"errors"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository implements domain.UserRepository using PostgreSQL
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const selectUserSQL = `SELECT id, username, created_at FROM users WHERE id = $1`

// GetByID retrieves a user by chat id
func (r *UserRepository) GetByID(id int64) (*domain.User, error) {
	ctx := context.Background()
	user, err := scanUser(r.pool.QueryRow(ctx, selectUserSQL, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Ensure creates the user and its initial categories unless it already exists.
// An existing user only gets its username refreshed.
func (r *UserRepository) Ensure(user *domain.User, categoryNames []string) (*domain.User, bool, error) {
	ctx := context.Background()
	var (
		result  *domain.User
		created bool
	)

	err := withUserLock(ctx, r.pool, user.ID, func(tx pgx.Tx) error {
		existing, err := scanUser(tx.QueryRow(ctx, selectUserSQL, user.ID))
		if err == nil {
			if user.Username != nil && (existing.Username == nil || *existing.Username != *user.Username) {
				if _, err := tx.Exec(ctx, `UPDATE users SET username = $2 WHERE id = $1`, user.ID, *user.Username); err != nil {
					return err
				}
				existing.Username = user.Username
			}
			result = existing
			return nil
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		inserted, err := scanUser(tx.QueryRow(ctx,
			`INSERT INTO users (id, username) VALUES ($1, $2) RETURNING id, username, created_at`,
			user.ID, user.Username))
		if err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for _, name := range categoryNames {
			batch.Queue(`INSERT INTO categories (user_id, name) VALUES ($1, $2)`, user.ID, name)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}

		result = inserted
		created = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return result, created, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}
