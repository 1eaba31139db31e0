package handler

import (
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/util"
	"github.com/labstack/echo/v4"
)

// EntryRequest represents a free-text entry line
type EntryRequest struct {
	Text string `json:"text"`
}

// EntryResponse is a parsed entry, not yet recorded
type EntryResponse struct {
	Date        string  `json:"date"`
	Amount      string  `json:"amount"`
	Description *string `json:"description,omitempty"`
}

// ParseEntry validates an entry line so clients can confirm it before recording
func ParseEntry(c echo.Context) error {
	var req EntryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	entry, err := util.ParseEntry(req.Text, now())
	if err != nil {
		return handleServiceError(c, err, "parse entry")
	}

	return c.JSON(http.StatusOK, EntryResponse{
		Date:        entry.Date.Format(dateLayout),
		Amount:      entry.Amount.StringFixed(2),
		Description: entry.Description,
	})
}
