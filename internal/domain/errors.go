package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of these, so callers
// can classify with errors.Is.
var (
	ErrValidation       = errors.New("validation error")
	ErrNotFound         = errors.New("resource not found")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrAlreadyExists    = errors.New("resource already exists")
)

// Not found
var (
	ErrUserNotFound        = fmt.Errorf("user %w", ErrNotFound)
	ErrCategoryNotFound    = fmt.Errorf("category %w", ErrNotFound)
	ErrTransactionNotFound = fmt.Errorf("transaction %w", ErrNotFound)
	ErrNoReportData        = fmt.Errorf("report data %w", ErrNotFound)
)

// Validation
var (
	ErrInvalidAmount      = fmt.Errorf("%w: amount must be greater than zero and at most 999999999999.99", ErrValidation)
	ErrInvalidDate        = fmt.Errorf("%w: invalid date", ErrValidation)
	ErrInvalidKind        = fmt.Errorf("%w: kind must be expense or income", ErrValidation)
	ErrInvalidPeriod      = fmt.Errorf("%w: invalid period", ErrValidation)
	ErrInvalidEntry       = fmt.Errorf("%w: entry must look like 'DD.MM.YY amount description' or 'amount description'", ErrValidation)
	ErrNameRequired       = fmt.Errorf("%w: name is required", ErrValidation)
	ErrNameTooLong        = fmt.Errorf("%w: name exceeds maximum length", ErrValidation)
	ErrDescriptionTooLong = fmt.Errorf("%w: description exceeds maximum length", ErrValidation)
	ErrCategoryRequired   = fmt.Errorf("%w: expense requires a category", ErrValidation)
	ErrIncomeCategory     = fmt.Errorf("%w: income cannot have a category", ErrValidation)
	ErrInvalidUserID      = fmt.Errorf("%w: invalid user id", ErrValidation)
)

// Invalid operations
var (
	ErrSelfReassign   = fmt.Errorf("%w: cannot reassign a category to itself", ErrInvalidOperation)
	ErrLastCategory   = fmt.Errorf("%w: cannot delete the only category", ErrInvalidOperation)
	ErrFallbackIsSelf = fmt.Errorf("%w: choose a replacement when deleting the fallback category", ErrInvalidOperation)
	ErrNotAnExpense   = fmt.Errorf("%w: only expenses have a category", ErrInvalidOperation)
)

// Conflicts
var (
	ErrCategoryAlreadyExists = fmt.Errorf("category %w", ErrAlreadyExists)
)

// Validation constants
const (
	MaxCategoryNameLength = 64
	MaxDescriptionLength  = 255
)
