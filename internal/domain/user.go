package domain

import "time"

// User is a ledger owner, keyed by the chat identifier the transport supplies
type User struct {
	ID        int64     `json:"id"`
	Username  *string   `json:"username,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultCategoryNames are seeded for every new user
var DefaultCategoryNames = []string{
	"Groceries",
	"Fuel",
	"Coffee",
	"Restaurants",
	"Education",
	FallbackCategoryName,
}

// UserRepository defines the interface for user persistence operations
type UserRepository interface {
	GetByID(id int64) (*User, error)
	// Ensure inserts the user with the given categories if it does not exist yet.
	// The bool result reports whether a new user was created.
	Ensure(user *User, categoryNames []string) (*User, bool, error)
}
