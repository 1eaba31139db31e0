package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionKind string

const (
	TransactionKindExpense TransactionKind = "expense"
	TransactionKindIncome  TransactionKind = "income"
)

// ParseTransactionKind converts external input into a kind. An empty value means expense.
func ParseTransactionKind(s string) (TransactionKind, error) {
	switch TransactionKind(s) {
	case "", TransactionKindExpense:
		return TransactionKindExpense, nil
	case TransactionKindIncome:
		return TransactionKindIncome, nil
	}
	return "", ErrInvalidKind
}

func (k TransactionKind) Valid() bool {
	return k == TransactionKindExpense || k == TransactionKindIncome
}

type Transaction struct {
	ID           int32           `json:"id"`
	UserID       int64           `json:"userId"`
	Kind         TransactionKind `json:"kind"`
	Date         time.Time       `json:"date"`
	Amount       decimal.Decimal `json:"amount"`
	Description  *string         `json:"description,omitempty"`
	CategoryID   *int32          `json:"categoryId,omitempty"`
	CategoryName string          `json:"categoryName,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

// MaxAmount is the largest amount a NUMERIC(14,2) column holds
var MaxAmount = decimal.RequireFromString("999999999999.99")

// ValidAmount reports whether d is positive and fits the amount column once rounded to cents
func ValidAmount(d decimal.Decimal) bool {
	return d.IsPositive() && d.LessThanOrEqual(MaxAmount)
}

const (
	DefaultLastLimit = 5
	MaxLastLimit     = 50
)

type TransactionRepository interface {
	// Create stores the transaction. For expenses it fails with ErrCategoryNotFound
	// when the category is not owned by the same user.
	Create(transaction *Transaction) (*Transaction, error)
	GetByID(userID int64, id int32) (*Transaction, error)
	GetByDate(userID int64, date time.Time, kind TransactionKind) ([]*Transaction, error)
	DeleteByDate(userID int64, date time.Time, kind TransactionKind) (int64, error)
	Delete(userID int64, id int32) (*Transaction, error)
	UpdateCategory(userID int64, id int32, categoryID int32) (*Transaction, error)
	GetLast(userID int64, kind TransactionKind, limit int32) ([]*Transaction, error)
	GetYears(userID int64) ([]int, error)
	// GetAggregates groups amounts by date and category inside the range
	GetAggregates(userID int64, kind TransactionKind, r DateRange) ([]*AggregateRow, error)
	GetTotals(userID int64, r DateRange) (*Totals, error)
}
