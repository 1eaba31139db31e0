//go:build integration

package postgres

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRepos struct {
	pool         *pgxpool.Pool
	users        *UserRepository
	categories   *CategoryRepository
	transactions *TransactionRepository
}

func setupRepos(t *testing.T) *testRepos {
	t.Helper()
	url := os.Getenv("LEDGER_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("LEDGER_TEST_DATABASE_URL not set, skipping postgres integration test")
	}

	pool, err := Connect(context.Background(), url, 8)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, RunMigrations(pool))

	return &testRepos{
		pool:         pool,
		users:        NewUserRepository(pool),
		categories:   NewCategoryRepository(pool),
		transactions: NewTransactionRepository(pool),
	}
}

// newUser registers a user with a random id and the given categories, removing it after the test
func (r *testRepos) newUser(t *testing.T, categoryNames ...string) (int64, map[string]int32) {
	t.Helper()
	id := 1_000_000 + rand.Int64N(1_000_000_000)
	_, created, err := r.users.Ensure(&domain.User{ID: id}, categoryNames)
	require.NoError(t, err)
	require.True(t, created)

	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = r.pool.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, id)
		_, _ = r.pool.Exec(ctx, `DELETE FROM categories WHERE user_id = $1`, id)
		_, _ = r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	})

	all, err := r.categories.GetAllByUser(id)
	require.NoError(t, err)
	byName := make(map[string]int32, len(all))
	for _, c := range all {
		byName[c.Name] = c.ID
	}
	return id, byName
}

func (r *testRepos) addExpense(t *testing.T, userID int64, categoryID int32, date time.Time, amount string) *domain.Transaction {
	t.Helper()
	tx, err := r.transactions.Create(&domain.Transaction{
		UserID:     userID,
		Kind:       domain.TransactionKindExpense,
		Date:       date,
		Amount:     decimal.RequireFromString(amount),
		CategoryID: &categoryID,
	})
	require.NoError(t, err)
	return tx
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestTransactionRepository_CreateRejectsForeignCategory(t *testing.T) {
	r := setupRepos(t)
	alice, aliceCats := r.newUser(t, "Food")
	_, bobCats := r.newUser(t, "Food")

	theirs := bobCats["Food"]
	_, err := r.transactions.Create(&domain.Transaction{
		UserID:     alice,
		Kind:       domain.TransactionKindExpense,
		Date:       date(2024, 12, 26),
		Amount:     decimal.NewFromInt(500),
		CategoryID: &theirs,
	})
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	created := r.addExpense(t, alice, aliceCats["Food"], date(2024, 12, 26), "500")
	assert.Equal(t, "Food", created.CategoryName)
	assert.Equal(t, "500.00", created.Amount.StringFixed(2))
}

func TestCategoryRepository_ReassignAndDelete(t *testing.T) {
	r := setupRepos(t)
	alice, cats := r.newUser(t, "Food", "Dining")
	_, bobCats := r.newUser(t, "Theirs")

	r.addExpense(t, alice, cats["Food"], date(2024, 12, 1), "10")
	r.addExpense(t, alice, cats["Food"], date(2024, 12, 2), "20")

	_, err := r.categories.ReassignAndDelete(alice, cats["Food"], bobCats["Theirs"])
	require.ErrorIs(t, err, domain.ErrCategoryNotFound)
	_, err = r.categories.GetByID(alice, cats["Food"])
	require.NoError(t, err, "a rejected reassign must leave the source in place")

	moved, err := r.categories.ReassignAndDelete(alice, cats["Food"], cats["Dining"])
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)

	_, err = r.categories.GetByID(alice, cats["Food"])
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
	stats, err := r.categories.GetStats(alice, cats["Dining"])
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ExpenseCount)
}

func TestCategoryRepository_ReassignRacesWithCreate(t *testing.T) {
	r := setupRepos(t)
	alice, cats := r.newUser(t, "Food", "Dining")
	from, to := cats["Food"], cats["Dining"]

	var (
		wg       sync.WaitGroup
		inserted int
		mu       sync.Mutex
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.transactions.Create(&domain.Transaction{
				UserID: alice, Kind: domain.TransactionKindExpense, Date: date(2024, 12, 5),
				Amount: decimal.NewFromInt(1), CategoryID: &from,
			})
			if err == nil {
				mu.Lock()
				inserted++
				mu.Unlock()
				return
			}
			assert.True(t, errors.Is(err, domain.ErrCategoryNotFound), "unexpected error: %v", err)
		}()
	}

	var moved int64
	wg.Add(1)
	go func() {
		defer wg.Done()
		var err error
		moved, err = r.categories.ReassignAndDelete(alice, from, to)
		assert.NoError(t, err)
	}()
	wg.Wait()

	// every expense that made it in before the delete was moved, none was orphaned
	assert.Equal(t, int64(inserted), moved)
	stats, err := r.categories.GetStats(alice, to)
	require.NoError(t, err)
	assert.Equal(t, int64(inserted), stats.ExpenseCount)
}

func TestTransactionRepository_GetAggregatesRange(t *testing.T) {
	r := setupRepos(t)
	alice, cats := r.newUser(t, "Food", "Travel")
	bob, bobCats := r.newUser(t, "Food")
	r.addExpense(t, bob, bobCats["Food"], date(2024, 12, 1), "999")

	r.addExpense(t, alice, cats["Food"], date(2024, 11, 30), "1")
	r.addExpense(t, alice, cats["Food"], date(2024, 12, 1), "10")
	r.addExpense(t, alice, cats["Food"], date(2024, 12, 1), "5")
	r.addExpense(t, alice, cats["Travel"], date(2024, 12, 31), "20")
	r.addExpense(t, alice, cats["Food"], date(2025, 1, 1), "100")

	rows, err := r.transactions.GetAggregates(alice, domain.TransactionKindExpense, domain.MonthPeriod(2024, 12).Range())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.True(t, rows[0].Date.Equal(date(2024, 12, 1)))
	assert.Equal(t, "15.00", rows[0].Total.StringFixed(2))
	assert.Equal(t, int64(2), rows[0].Count)
	assert.Equal(t, "Food", rows[0].CategoryName)
	assert.True(t, rows[1].Date.Equal(date(2024, 12, 31)))
	assert.Equal(t, "Travel", rows[1].CategoryName)

	all, err := r.transactions.GetAggregates(alice, domain.TransactionKindExpense, domain.AllTime().Range())
	require.NoError(t, err)
	total := decimal.Zero
	for _, row := range all {
		total = total.Add(row.Total)
	}
	assert.Equal(t, "136.00", total.StringFixed(2))

	incomes, err := r.transactions.GetAggregates(alice, domain.TransactionKindIncome, domain.AllTime().Range())
	require.NoError(t, err)
	assert.Empty(t, incomes)
}

func TestBackupRepository_ExportAll(t *testing.T) {
	r := setupRepos(t)
	alice, cats := r.newUser(t, "Food")
	r.addExpense(t, alice, cats["Food"], date(2024, 12, 26), "500")

	buffers := make(map[string]*bytes.Buffer)
	rows, err := NewBackupRepository(r.pool).ExportAll(context.Background(), func(table string) io.Writer {
		buffers[table] = &bytes.Buffer{}
		return buffers[table]
	})
	require.NoError(t, err)

	for _, table := range domain.BackupTables {
		require.Contains(t, buffers, table)
		assert.GreaterOrEqual(t, rows[table], int64(1), table)
	}
	assert.True(t, strings.HasPrefix(buffers["transactions"].String(), "id,user_id,kind,tx_date,amount"))
}
