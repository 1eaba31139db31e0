package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CategoryRequest represents the create and rename request body
type CategoryRequest struct {
	Name string `json:"name"`
}

// ReassignRequest represents the reassign request body
type ReassignRequest struct {
	ToCategoryID int32 `json:"toCategoryId"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// CategoryStatsResponse represents category statistics in API responses
type CategoryStatsResponse struct {
	Category      CategoryResponse `json:"category"`
	TotalSpent    string           `json:"totalSpent"`
	ExpenseCount  int64            `json:"expenseCount"`
	AverageAmount string           `json:"averageAmount"`
}

// DeleteCategoryResponse tells where the expenses of a deleted category went
type DeleteCategoryResponse struct {
	MovedTo CategoryResponse `json:"movedTo"`
	Moved   int64            `json:"moved"`
}

func toCategoryResponse(c *domain.Category) CategoryResponse {
	return CategoryResponse{
		ID:        c.ID,
		Name:      c.Name,
		CreatedAt: c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// GetCategories lists the user's categories
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "list categories")
	}

	categories, err := h.categoryService.ListCategories(userID)
	if err != nil {
		return handleServiceError(c, err, "list categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	return c.JSON(http.StatusOK, response)
}

// CreateCategory adds a category
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "create category")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.CreateCategory(userID, req.Name)
	if err != nil {
		return handleServiceError(c, err, "create category")
	}

	log.Info().Int64("user_id", userID).Int32("category_id", category.ID).Msg("Category created")
	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategory returns one of the user's categories
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "get category")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategory(userID, id)
	if err != nil {
		return handleServiceError(c, err, "get category")
	}
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// RenameCategory changes a category's name
func (h *CategoryHandler) RenameCategory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "rename category")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	category, err := h.categoryService.RenameCategory(userID, id, req.Name)
	if err != nil {
		return handleServiceError(c, err, "rename category")
	}
	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory removes a category, moving its expenses to ?replacement= or the fallback category
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "delete category")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var replacement *int32
	if raw := c.QueryParam("replacement"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || parsed <= 0 {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "replacement", Message: "Replacement must be a category ID"},
			})
		}
		r := int32(parsed)
		replacement = &r
	}

	result, err := h.categoryService.DeleteCategory(userID, id, replacement)
	if err != nil {
		return handleServiceError(c, err, "delete category")
	}

	return c.JSON(http.StatusOK, DeleteCategoryResponse{
		MovedTo: toCategoryResponse(result.MovedTo),
		Moved:   result.Moved,
	})
}

// ReassignCategory moves every expense of a category into another and deletes it
func (h *CategoryHandler) ReassignCategory(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "reassign category")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req ReassignRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.ToCategoryID <= 0 {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "toCategoryId", Message: "Target category ID is required"},
		})
	}

	moved, err := h.categoryService.ReassignCategory(userID, id, req.ToCategoryID)
	if err != nil {
		return handleServiceError(c, err, "reassign category")
	}
	return c.JSON(http.StatusOK, map[string]int64{"moved": moved})
}

// GetCategoryStats summarizes the expenses of a category
func (h *CategoryHandler) GetCategoryStats(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "get category stats")
	}
	id, ok := parseID(c, "id")
	if !ok {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	stats, err := h.categoryService.GetCategoryStats(userID, id)
	if err != nil {
		return handleServiceError(c, err, "get category stats")
	}

	return c.JSON(http.StatusOK, CategoryStatsResponse{
		Category:      toCategoryResponse(stats.Category),
		TotalSpent:    stats.TotalSpent.StringFixed(2),
		ExpenseCount:  stats.ExpenseCount,
		AverageAmount: stats.AverageAmount.StringFixed(2),
	})
}
