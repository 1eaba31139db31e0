package handler

import (
	"net/http"

	"github.com/dafibh/ledger/ledger-backend/internal/domain"
	"github.com/dafibh/ledger/ledger-backend/internal/service"
	"github.com/labstack/echo/v4"
)

// ReportHandler handles aggregation HTTP requests
type ReportHandler struct {
	reportService *service.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *service.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// CategoryShareResponse represents one breakdown row
type CategoryShareResponse struct {
	CategoryID *int32 `json:"categoryId,omitempty"`
	Name       string `json:"name"`
	Total      string `json:"total"`
	Count      int64  `json:"count"`
	Percent    string `json:"percent"`
}

// BucketResponse represents the total of one day or month
type BucketResponse struct {
	Bucket  int    `json:"bucket"`
	Total   string `json:"total"`
	Count   int64  `json:"count"`
	Percent string `json:"percent"`
}

// BucketCategoryResponse represents one category's total inside a day or month
type BucketCategoryResponse struct {
	Name  string `json:"name"`
	Total string `json:"total"`
}

// BucketSplitResponse represents the category split of one day or month
type BucketSplitResponse struct {
	Bucket     int                      `json:"bucket"`
	Categories []BucketCategoryResponse `json:"categories"`
}

// ReportResponse represents an aggregated report
type ReportResponse struct {
	Period           string                  `json:"period"`
	PeriodKind       string                  `json:"periodKind"`
	Kind             string                  `json:"kind"`
	Total            string                  `json:"total"`
	Count            int64                   `json:"count"`
	ByCategory       []CategoryShareResponse `json:"byCategory"`
	ByDay            []BucketResponse        `json:"byDay,omitempty"`
	ByMonth          []BucketResponse        `json:"byMonth,omitempty"`
	CategoryByBucket []BucketSplitResponse   `json:"categoryByBucket,omitempty"`
}

// BalanceResponse represents income minus expense over a period
type BalanceResponse struct {
	Period  string `json:"period"`
	Income  string `json:"income"`
	Expense string `json:"expense"`
	Net     string `json:"net"`
}

func toBucketResponses(buckets []domain.BucketTotal) []BucketResponse {
	if buckets == nil {
		return nil
	}
	out := make([]BucketResponse, len(buckets))
	for i, b := range buckets {
		out[i] = BucketResponse{
			Bucket:  b.Bucket,
			Total:   b.Total.StringFixed(2),
			Count:   b.Count,
			Percent: b.Percent.StringFixed(2),
		}
	}
	return out
}

func toReportResponse(r *domain.Report) ReportResponse {
	resp := ReportResponse{
		Period:     r.Period.String(),
		PeriodKind: string(r.Period.Kind),
		Kind:       string(r.Kind),
		Total:      r.Total.StringFixed(2),
		Count:      r.Count,
		ByCategory: make([]CategoryShareResponse, len(r.ByCategory)),
		ByDay:      toBucketResponses(r.ByDay),
		ByMonth:    toBucketResponses(r.ByMonth),
	}
	for i, share := range r.ByCategory {
		resp.ByCategory[i] = CategoryShareResponse{
			CategoryID: share.CategoryID,
			Name:       share.Name,
			Total:      share.Total.StringFixed(2),
			Count:      share.Count,
			Percent:    share.Percent.StringFixed(2),
		}
	}
	for _, bucket := range r.CategoryByBucket {
		split := BucketSplitResponse{Bucket: bucket.Bucket, Categories: make([]BucketCategoryResponse, len(bucket.Categories))}
		for i, amount := range bucket.Categories {
			split.Categories[i] = BucketCategoryResponse{Name: amount.Name, Total: amount.Total.StringFixed(2)}
		}
		resp.CategoryByBucket = append(resp.CategoryByBucket, split)
	}
	return resp
}

// GetReport aggregates ?kind= over ?period=
func (h *ReportHandler) GetReport(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "build report")
	}
	kind, err := parseKindParam(c)
	if err != nil {
		return handleServiceError(c, err, "build report")
	}
	period, err := parsePeriod(c)
	if err != nil {
		return handleServiceError(c, err, "build report")
	}

	report, err := h.reportService.Aggregate(userID, period, kind)
	if err != nil {
		return handleServiceError(c, err, "build report")
	}
	return c.JSON(http.StatusOK, toReportResponse(report))
}

// GetBalance returns income, expense and net over ?period=
func (h *ReportHandler) GetBalance(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "compute balance")
	}
	period, err := parsePeriod(c)
	if err != nil {
		return handleServiceError(c, err, "compute balance")
	}

	balance, err := h.reportService.Balance(userID, period)
	if err != nil {
		return handleServiceError(c, err, "compute balance")
	}
	return c.JSON(http.StatusOK, BalanceResponse{
		Period:  balance.Period.String(),
		Income:  balance.Income.StringFixed(2),
		Expense: balance.Expense.StringFixed(2),
		Net:     balance.Net.StringFixed(2),
	})
}

// GetTotal returns the all-time sum of ?kind=
func (h *ReportHandler) GetTotal(c echo.Context) error {
	userID, err := parseUserID(c)
	if err != nil {
		return handleServiceError(c, err, "compute total")
	}
	kind, err := parseKindParam(c)
	if err != nil {
		return handleServiceError(c, err, "compute total")
	}

	total, err := h.reportService.Total(userID, kind)
	if err != nil {
		return handleServiceError(c, err, "compute total")
	}
	return c.JSON(http.StatusOK, map[string]string{
		"kind":  string(kind),
		"total": total.StringFixed(2),
	})
}
