package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// FallbackCategoryName receives the expenses of a deleted category when no replacement is given
const FallbackCategoryName = "Other"

type Category struct {
	ID        int32     `json:"id"`
	UserID    int64     `json:"userId"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CategoryStats summarizes all expenses recorded under one category
type CategoryStats struct {
	Category      *Category       `json:"category"`
	TotalSpent    decimal.Decimal `json:"totalSpent"`
	ExpenseCount  int64           `json:"expenseCount"`
	AverageAmount decimal.Decimal `json:"averageAmount"`
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID int64, id int32) (*Category, error)
	// GetByName matches case-insensitively
	GetByName(userID int64, name string) (*Category, error)
	GetAllByUser(userID int64) ([]*Category, error)
	Count(userID int64) (int64, error)
	Rename(userID int64, id int32, name string) (*Category, error)
	// ReassignAndDelete moves every expense of fromID to toID and removes fromID
	// in one write serialized against the user's other writes. It returns the
	// number of moved expenses.
	ReassignAndDelete(userID int64, fromID, toID int32) (int64, error)
	GetStats(userID int64, id int32) (*CategoryStats, error)
}
