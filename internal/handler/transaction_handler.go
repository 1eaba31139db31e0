package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// TransactionHandler handles expense and income HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the record transaction request body
type CreateTransactionRequest struct {
	Kind        string  `json:"kind"`
	Date        string  `json:"date"`
	Amount      string  `json:"amount"`
	Description *string `json:"description,omitempty"`
	CategoryID  *int32  `json:"categoryId,omitempty"`
}

// QuickExpenseRequest represents a free-text expense entry
type QuickExpenseRequest struct {
	Text       string `json:"text"`
	CategoryID int32  `json:"categoryId"`
}

// ChangeCategoryRequest represents the change category request body
type ChangeCategoryRequest struct {
	CategoryID int32 `json:"categoryId"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID           int32   `json:"id"`
	Kind         string  `json:"kind"`
	Date         string  `json:"date"`
	Amount       string  `json:"amount"`
	Description  *string `json:"description,omitempty"`
	CategoryID   *int32  `json:"categoryId,omitempty"`
	CategoryName *string `json:"categoryName,omitempty"`
	CreatedAt    string  `json:"createdAt"`
}

func toTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          t.ID,
		Kind:        string(t.Kind),
		Date:        t.Date.Format(dateLayout),
		Amount:      t.Amount.StringFixed(2),
		Description: t.Description,
		CategoryID:  t.CategoryID,
		CreatedAt:   t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.CategoryName != "" {
		name := t.CategoryName
		resp.CategoryName = &name
	}
	return resp
}

func toTransactionResponses(transactions []*domain.Transaction) []TransactionResponse {
	response := make([]TransactionResponse, len(transactions))
	for i, t := range transactions {
		response[i] = toTransactionResponse(t)
	}
	return response
}

// CreateTransaction records an expense or income
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "record transaction")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	kind, err := domain.ParseTransactionKind(req.Kind)
	if err != nil {
		return handleServiceError(c, err, "record transaction")
	}

	amount, err := util.ParseAmount(req.Amount)
	if err != nil {
		return handleServiceError(c, err, "record transaction")
	}

	date, err := parseDateValue(req.Date)
	if err != nil {
		return handleServiceError(c, err, "record transaction")
	}

	transaction, err := h.transactionService.RecordTransaction(userID, service.RecordTransactionInput{
		Kind:        kind,
		Date:        date,
		Amount:      amount,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		return handleServiceError(c, err, "record transaction")
	}

	log.Info().
		Int64("user_id", userID).
		Int32("transaction_id", transaction.ID).
		Str("kind", string(transaction.Kind)).
		Msg("Transaction recorded")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// CreateQuickExpense parses a "DD.MM.YY amount description" line and records it
func (h *TransactionHandler) CreateQuickExpense(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "record expense")
	}

	var req QuickExpenseRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.CategoryID <= 0 {
		return handleServiceError(c, domain.ErrCategoryRequired, "record expense")
	}

	transaction, err := h.transactionService.RecordEntry(userID, req.Text, req.CategoryID, now())
	if err != nil {
		return handleServiceError(c, err, "record expense")
	}
	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactionsByDate lists transactions of ?kind= on ?date=
func (h *TransactionHandler) GetTransactionsByDate(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "list transactions")
	}
	kind, err := parseKindParam(c)
	if err != nil {
		return handleServiceError(c, err, "list transactions")
	}
	date, err := parseDateValue(c.QueryParam("date"))
	if err != nil {
		return handleServiceError(c, err, "list transactions")
	}

	transactions, err := h.transactionService.ListByDate(userID, date, kind)
	if err != nil {
		return handleServiceError(c, err, "list transactions")
	}
	return c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

// DeleteTransactionsByDate removes every transaction of ?kind= on ?date=
func (h *TransactionHandler) DeleteTransactionsByDate(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "delete transactions")
	}
	kind, err := parseKindParam(c)
	if err != nil {
		return handleServiceError(c, err, "delete transactions")
	}
	if c.QueryParam("date") == "" {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "date", Message: "Date is required"},
		})
	}
	date, err := parseDateValue(c.QueryParam("date"))
	if err != nil {
		return handleServiceError(c, err, "delete transactions")
	}

	deleted, err := h.transactionService.DeleteByDate(userID, date, kind)
	if err != nil {
		return handleServiceError(c, err, "delete transactions")
	}

	log.Info().
		Int64("user_id", userID).
		Str("date", date.Format(dateLayout)).
		Str("kind", string(kind)).
		Int64("deleted", deleted).
		Msg("Transactions deleted by date")

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// GetTransaction returns one transaction
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "get transaction")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.transactionService.GetTransaction(userID, id)
	if err != nil {
		return handleServiceError(c, err, "get transaction")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction removes one transaction
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "delete transaction")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.transactionService.DeleteTransaction(userID, id); err != nil {
		return handleServiceError(c, err, "delete transaction")
	}
	return c.NoContent(http.StatusNoContent)
}

// ChangeCategory moves one expense to another category
func (h *TransactionHandler) ChangeCategory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "change category")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req ChangeCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.CategoryID <= 0 {
		return handleServiceError(c, domain.ErrCategoryRequired, "change category")
	}

	transaction, err := h.transactionService.ChangeCategory(userID, id, req.CategoryID)
	if err != nil {
		return handleServiceError(c, err, "change category")
	}
	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// GetLastTransactions returns the newest transactions of ?kind=, at most ?limit=
func (h *TransactionHandler) GetLastTransactions(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "list last transactions")
	}
	kind, err := parseKindParam(c)
	if err != nil {
		return handleServiceError(c, err, "list last transactions")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "limit", Message: "Limit must be a number"},
			})
		}
	}

	transactions, err := h.transactionService.LastTransactions(userID, kind, limit)
	if err != nil {
		return handleServiceError(c, err, "list last transactions")
	}
	return c.JSON(http.StatusOK, toTransactionResponses(transactions))
}

// GetYears lists the years with recorded data
func (h *TransactionHandler) GetYears(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "list years")
	}

	years, err := h.transactionService.Years(userID, now())
	if err != nil {
		return handleServiceError(c, err, "list years")
	}
	return c.JSON(http.StatusOK, years)
}
