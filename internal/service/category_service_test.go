package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCategoryService() (*CategoryService, *testutil.MockStore, *testutil.MockReportCache) {
	store := testutil.NewMockStore()
	cache := testutil.NewMockReportCache()
	return NewCategoryService(store.Categories, cache), store, cache
}

func addExpense(store *testutil.MockStore, userID int64, categoryID int32, amount int64) *domain.Transaction {
	return store.AddTransaction(&domain.Transaction{
		UserID:     userID,
		Kind:       domain.TransactionKindExpense,
		Date:       day(2024, 12, 26),
		Amount:     decimal.NewFromInt(amount),
		CategoryID: &categoryID,
	})
}

func TestCreateCategory_Success(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)

	category, err := svc.CreateCategory(1, "  Groceries  ")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if category.Name != "Groceries" {
		t.Errorf("Expected trimmed name 'Groceries', got '%s'", category.Name)
	}
	if category.UserID != 1 {
		t.Errorf("Expected user ID 1, got %d", category.UserID)
	}
}

func TestCreateCategory_Validation(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)
	store.AddCategory(1, "Food")

	_, err := svc.CreateCategory(1, "   ")
	assert.Equal(t, domain.ErrNameRequired, err)

	_, err = svc.CreateCategory(1, strings.Repeat("a", domain.MaxCategoryNameLength+1))
	assert.Equal(t, domain.ErrNameTooLong, err)

	_, err = svc.CreateCategory(1, "FOOD")
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestRenameCategory(t *testing.T) {
	svc, store, cache := setupCategoryService()
	store.AddUser(1)
	food := store.AddCategory(1, "Food")
	store.AddCategory(1, "Fuel")

	renamed, err := svc.RenameCategory(1, food.ID, "Dining")
	require.NoError(t, err)
	assert.Equal(t, "Dining", renamed.Name)
	assert.Equal(t, []string{"1:0:0"}, cache.Invalidations)

	_, err = svc.RenameCategory(1, food.ID, "fuel")
	assert.ErrorIs(t, err, domain.ErrCategoryAlreadyExists)

	_, err = svc.RenameCategory(2, food.ID, "Other")
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)
}

func TestReassignCategory(t *testing.T) {
	svc, store, cache := setupCategoryService()
	store.AddUser(1)
	food := store.AddCategory(1, "Food")
	dining := store.AddCategory(1, "Dining")
	addExpense(store, 1, food.ID, 500)
	addExpense(store, 1, food.ID, 20)
	addExpense(store, 1, dining.ID, 7)

	moved, err := svc.ReassignCategory(1, food.ID, dining.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), moved)
	assert.Equal(t, 3, store.CountExpensesIn(dining.ID))
	assert.Equal(t, 0, store.CountExpensesIn(food.ID))

	_, err = svc.GetCategory(1, food.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound, "source category is deleted")
	assert.Equal(t, []string{"1:0:0"}, cache.Invalidations)
}

func TestReassignCategory_SelfCheckedFirst(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)

	// the category does not exist, yet the self-check wins
	_, err := svc.ReassignCategory(1, 42, 42)
	assert.Equal(t, domain.ErrSelfReassign, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidOperation))
}

func TestReassignCategory_MissingOrForeign(t *testing.T) {
	svc, store, cache := setupCategoryService()
	store.AddUser(1)
	store.AddUser(2)
	food := store.AddCategory(1, "Food")
	foreign := store.AddCategory(2, "Dining")
	addExpense(store, 1, food.ID, 10)

	_, err := svc.ReassignCategory(1, food.ID, foreign.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	_, err = svc.ReassignCategory(1, 999, food.ID)
	assert.ErrorIs(t, err, domain.ErrCategoryNotFound)

	assert.Equal(t, 1, store.CountExpensesIn(food.ID), "nothing moved")
	assert.Empty(t, cache.Invalidations)
}

func TestDeleteCategory_WithReplacement(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)
	food := store.AddCategory(1, "Food")
	fuel := store.AddCategory(1, "Fuel")
	addExpense(store, 1, food.ID, 10)

	result, err := svc.DeleteCategory(1, food.ID, &fuel.ID)
	require.NoError(t, err)
	assert.Equal(t, fuel.ID, result.MovedTo.ID)
	assert.Equal(t, int64(1), result.Moved)

	_, err = svc.DeleteCategory(1, fuel.ID, &fuel.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidOperation)
}

func TestDeleteCategory_FallsBackToOther(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)
	food := store.AddCategory(1, "Food")
	store.AddCategory(1, "Fuel")
	addExpense(store, 1, food.ID, 10)

	result, err := svc.DeleteCategory(1, food.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, domain.FallbackCategoryName, result.MovedTo.Name)
	assert.Equal(t, 1, store.CountExpensesIn(result.MovedTo.ID))

	// the fallback itself needs an explicit replacement
	_, err = svc.DeleteCategory(1, result.MovedTo.ID, nil)
	assert.Equal(t, domain.ErrFallbackIsSelf, err)
}

func TestDeleteCategory_LastCategory(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)
	only := store.AddCategory(1, "Food")

	_, err := svc.DeleteCategory(1, only.ID, nil)
	assert.Equal(t, domain.ErrLastCategory, err)
}

func TestGetCategoryStats(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)
	food := store.AddCategory(1, "Food")
	addExpense(store, 1, food.ID, 10)
	addExpense(store, 1, food.ID, 25)

	stats, err := svc.GetCategoryStats(1, food.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.ExpenseCount)
	assert.Equal(t, "35.00", stats.TotalSpent.StringFixed(2))
	assert.Equal(t, "17.50", stats.AverageAmount.StringFixed(2))
}

func TestListCategories(t *testing.T) {
	svc, store, _ := setupCategoryService()
	store.AddUser(1)
	store.AddCategory(1, "fuel")
	store.AddCategory(1, "Coffee")
	store.AddCategory(2, "Elsewhere")

	categories, err := svc.ListCategories(1)
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Coffee", categories[0].Name)
	assert.Equal(t, "fuel", categories[1].Name)
}
