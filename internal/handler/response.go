package handler

import (
	"errors"
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// ProblemDetails represents an RFC 7807 Problem Details response
type ProblemDetails struct {
	Type     string            `json:"type"`
	Title    string            `json:"title"`
	Status   int               `json:"status"`
	Detail   string            `json:"detail,omitempty"`
	Instance string            `json:"instance,omitempty"`
	Errors   []ValidationError `json:"errors,omitempty"`
}

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error types
const (
	ErrorTypeValidation       = "https://ledger.app/errors/validation"
	ErrorTypeNotFound         = "https://ledger.app/errors/not-found"
	ErrorTypeConflict         = "https://ledger.app/errors/conflict"
	ErrorTypeInvalidOperation = "https://ledger.app/errors/invalid-operation"
	ErrorTypeUnavailable      = "https://ledger.app/errors/unavailable"
	ErrorTypeInternal         = "https://ledger.app/errors/internal"
)

// NewValidationError creates a validation error response
func NewValidationError(c echo.Context, detail string, errors []ValidationError) error {
	return c.JSON(http.StatusBadRequest, ProblemDetails{
		Type:     ErrorTypeValidation,
		Title:    "Validation Error",
		Status:   http.StatusBadRequest,
		Detail:   detail,
		Instance: c.Request().URL.Path,
		Errors:   errors,
	})
}

// NewNotFoundError creates a not found error response
func NewNotFoundError(c echo.Context, detail string) error {
	return c.JSON(http.StatusNotFound, ProblemDetails{
		Type:     ErrorTypeNotFound,
		Title:    "Not Found",
		Status:   http.StatusNotFound,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewConflictError creates a conflict error response
func NewConflictError(c echo.Context, detail string) error {
	return c.JSON(http.StatusConflict, ProblemDetails{
		Type:     ErrorTypeConflict,
		Title:    "Conflict",
		Status:   http.StatusConflict,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInvalidOperationError creates a response for a well-formed request the ledger refuses
func NewInvalidOperationError(c echo.Context, detail string) error {
	return c.JSON(http.StatusUnprocessableEntity, ProblemDetails{
		Type:     ErrorTypeInvalidOperation,
		Title:    "Invalid Operation",
		Status:   http.StatusUnprocessableEntity,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewUnavailableError creates a service unavailable error response
func NewUnavailableError(c echo.Context, detail string) error {
	return c.JSON(http.StatusServiceUnavailable, ProblemDetails{
		Type:     ErrorTypeUnavailable,
		Title:    "Service Unavailable",
		Status:   http.StatusServiceUnavailable,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// NewInternalError creates an internal error response
func NewInternalError(c echo.Context, detail string) error {
	return c.JSON(http.StatusInternalServerError, ProblemDetails{
		Type:     ErrorTypeInternal,
		Title:    "Internal Server Error",
		Status:   http.StatusInternalServerError,
		Detail:   detail,
		Instance: c.Request().URL.Path,
	})
}

// fieldErrors ties validation errors to the request field they concern
var fieldErrors = []struct {
	err   error
	field ValidationError
}{
	{domain.ErrInvalidAmount, ValidationError{Field: "amount", Message: "Amount must be a positive number up to 999999999999.99 with at most two decimals"}},
	{domain.ErrInvalidDate, ValidationError{Field: "date", Message: "Date must be a calendar day between 2000 and 2999"}},
	{domain.ErrInvalidKind, ValidationError{Field: "kind", Message: "Kind must be one of: expense, income"}},
	{domain.ErrInvalidPeriod, ValidationError{Field: "period", Message: "Period does not name a calendar day, month or year"}},
	{domain.ErrInvalidEntry, ValidationError{Field: "text", Message: "Expected 'DD.MM.YY amount description' or 'amount description'"}},
	{domain.ErrNameRequired, ValidationError{Field: "name", Message: "Name is required"}},
	{domain.ErrNameTooLong, ValidationError{Field: "name", Message: "Name must be 64 characters or less"}},
	{domain.ErrDescriptionTooLong, ValidationError{Field: "description", Message: "Description must be 255 characters or less"}},
	{domain.ErrCategoryRequired, ValidationError{Field: "categoryId", Message: "Expenses require a category"}},
	{domain.ErrIncomeCategory, ValidationError{Field: "categoryId", Message: "Incomes cannot have a category"}},
	{domain.ErrInvalidUserID, ValidationError{Field: "userID", Message: "User ID must be a non-zero integer"}},
}

// handleServiceError maps domain errors to Problem Details. Unknown errors are logged and
// reported as internal errors with the failed action as detail.
func handleServiceError(c echo.Context, err error, action string) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		var fields []ValidationError
		for _, fe := range fieldErrors {
			if errors.Is(err, fe.err) {
				fields = append(fields, fe.field)
			}
		}
		return NewValidationError(c, err.Error(), fields)
	case errors.Is(err, domain.ErrNotFound):
		return NewNotFoundError(c, err.Error())
	case errors.Is(err, domain.ErrInvalidOperation):
		return NewInvalidOperationError(c, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		return NewConflictError(c, err.Error())
	}

	log.Error().Err(err).
		Str("path", c.Request().URL.Path).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
		Msg("Failed to " + action)
	return NewInternalError(c, "Failed to "+action)
}
