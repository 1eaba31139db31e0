package handler

import (
	"net/http"
	"strconv"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/labstack/echo/v4"
)

const maxChartWidth = 4096

// ChartHandler serves report charts as PNG
type ChartHandler struct {
	chartService *service.ChartService
}

// NewChartHandler creates a new ChartHandler
func NewChartHandler(chartService *service.ChartService) *ChartHandler {
	return &ChartHandler{chartService: chartService}
}

// GetChart renders /charts/:type for ?year= and ?month=, scaled down to ?width= when given
func (h *ChartHandler) GetChart(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "render chart")
	}
	chartType, err := domain.ParseChartType(c.Param("type"))
	if err != nil {
		return NewValidationError(c, err.Error(), []ValidationError{
			{Field: "type", Message: "Type must be one of: monthly, daily, yearly, income-expense-daily, income-expense-monthly"},
		})
	}

	curYear, curMonth := util.CurrentYearMonth(now())
	year, err := queryInt(c, "year", curYear)
	if err != nil {
		return handleServiceError(c, err, "render chart")
	}
	month, err := queryInt(c, "month", curMonth)
	if err != nil {
		return handleServiceError(c, err, "render chart")
	}

	width := 0
	if raw := c.QueryParam("width"); raw != "" {
		width, err = strconv.Atoi(raw)
		if err != nil || width < 1 || width > maxChartWidth {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "width", Message: "Width must be between 1 and 4096"},
			})
		}
	}

	img, err := h.chartService.Render(c.Request().Context(), service.ChartRequest{
		UserID:   userID,
		Type:     chartType,
		Year:     year,
		Month:    month,
		MaxWidth: width,
	})
	if err != nil {
		return handleServiceError(c, err, "render chart")
	}

	c.Response().Header().Set("Cache-Control", "private, max-age=60")
	return c.Blob(http.StatusOK, "image/png", img)
}
