package handler

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReport_Month(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)
	food := s.store.AddCategory(1, "Food")
	travel := s.store.AddCategory(1, "Travel")
	addExpense(s, 1, food.ID, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "500")
	addExpense(s, 1, travel.ID, time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC), "250")
	addExpense(s, 1, food.ID, time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC), "999")

	rec := s.do(http.MethodGet, "/api/v1/users/1/reports?period=month&year=2024&month=12", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[ReportResponse](t, rec)
	assert.Equal(t, "12.2024", report.Period)
	assert.Equal(t, "750.00", report.Total)
	assert.Equal(t, int64(2), report.Count)
	require.Len(t, report.ByCategory, 2)
	assert.Equal(t, "Food", report.ByCategory[0].Name)
	assert.Equal(t, "66.67", report.ByCategory[0].Percent)
	assert.Equal(t, "33.33", report.ByCategory[1].Percent)
	assert.Len(t, report.ByDay, 31)
	assert.Equal(t, "500.00", report.ByDay[25].Total)
}

func TestGetReport_DefaultsToCurrentMonth(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)
	food := s.store.AddCategory(1, "Food")
	addExpense(s, 1, food.ID, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "500")

	rec := s.do(http.MethodGet, "/api/v1/users/1/reports", "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[ReportResponse](t, rec)
	assert.Equal(t, "month", report.PeriodKind)
	require.Len(t, report.ByCategory, 1)
	assert.Equal(t, "100.00", report.ByCategory[0].Percent)
}

func TestGetReport_EmptyPeriod(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)

	rec := s.do(http.MethodGet, "/api/v1/users/1/reports?period=year&year=2023", "")
	require.Equal(t, http.StatusOK, rec.Code)

	report := decode[ReportResponse](t, rec)
	assert.Equal(t, "0.00", report.Total)
	assert.Empty(t, report.ByCategory)
	assert.Len(t, report.ByMonth, 12)
}

func TestGetReport_InvalidPeriod(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)

	for _, query := range []string{
		"period=month&year=2024&month=13",
		"period=week",
		"period=day&year=2023&month=2&day=29",
		"period=year&year=abc",
		"kind=transfer",
	} {
		rec := s.do(http.MethodGet, "/api/v1/users/1/reports?"+query, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, query)
	}
}

func TestGetBalance(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)
	food := s.store.AddCategory(1, "Food")
	addExpense(s, 1, food.ID, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "500")

	rec := s.do(http.MethodPost, "/api/v1/users/1/transactions", `{"kind":"income","date":"2024-12-01","amount":"1200"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/users/1/balance?period=month&year=2024&month=12", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	balance := decode[BalanceResponse](t, rec)
	assert.Equal(t, "1200.00", balance.Income)
	assert.Equal(t, "500.00", balance.Expense)
	assert.Equal(t, "700.00", balance.Net)
}

func TestGetTotal(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)
	food := s.store.AddCategory(1, "Food")
	addExpense(s, 1, food.ID, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), "1.10")
	addExpense(s, 1, food.ID, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "2.20")

	rec := s.do(http.MethodGet, "/api/v1/users/1/totals?kind=expense", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.30", decode[map[string]string](t, rec)["total"])
}

func TestGetChart(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)
	food := s.store.AddCategory(1, "Food")
	addExpense(s, 1, food.ID, time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC), "500")
	addExpense(s, 1, food.ID, time.Date(2024, 12, 2, 0, 0, 0, 0, time.UTC), "120")

	rec := s.do(http.MethodGet, "/api/v1/users/1/charts/monthly?year=2024&month=12&width=300", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, []byte("\x89PNG"), rec.Body.Bytes()[:4])
	assert.NotEmpty(t, s.cache.Images)
}

func TestGetChart_Errors(t *testing.T) {
	s := setupServer(t)
	s.store.AddUser(1)

	tests := []struct {
		path   string
		status int
	}{
		{"/api/v1/users/1/charts/weekly", http.StatusBadRequest},
		{"/api/v1/users/1/charts/monthly?month=13", http.StatusBadRequest},
		{"/api/v1/users/1/charts/monthly?width=0", http.StatusBadRequest},
		{"/api/v1/users/1/charts/monthly?year=2024&month=12", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.path), func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}
