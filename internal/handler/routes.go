package handler

import (
	"github.com/dafibh/ledger/ledger-backend/internal/middleware"
	"github.com/labstack/echo/v4"
)

// Handlers groups every route handler
type Handlers struct {
	Health      *HealthHandler
	User        *UserHandler
	Category    *CategoryHandler
	Transaction *TransactionHandler
	Report      *ReportHandler
	Chart       *ChartHandler
	Backup      *BackupHandler
}

// RegisterRoutes sets up all API routes
func RegisterRoutes(e *echo.Echo, auth *middleware.APIKeyAuthMiddleware, rateLimiter *middleware.RateLimiter, h Handlers) {
	e.GET("/health", h.Health.Health)

	// API version 1
	api := e.Group("/api/v1")
	api.Use(auth.Authenticate())

	api.POST("/entries/parse", ParseEntry)
	api.POST("/internal/backups", h.Backup.CreateBackup)

	// Per-user routes, rate limited per ledger owner
	users := api.Group("/users/:userID")
	users.Use(middleware.RateLimitMiddleware(rateLimiter))
	users.PUT("", h.User.EnsureUser)
	users.GET("", h.User.GetUser)
	users.GET("/years", h.Transaction.GetYears)

	// Category routes
	users.GET("/categories", h.Category.GetCategories)
	users.POST("/categories", h.Category.CreateCategory)
	users.GET("/categories/:id", h.Category.GetCategory)
	users.PUT("/categories/:id", h.Category.RenameCategory)
	users.DELETE("/categories/:id", h.Category.DeleteCategory)
	users.POST("/categories/:id/reassign", h.Category.ReassignCategory)
	users.GET("/categories/:id/stats", h.Category.GetCategoryStats)

	// Transaction routes
	users.POST("/transactions", h.Transaction.CreateTransaction)
	users.GET("/transactions", h.Transaction.GetTransactionsByDate)
	users.DELETE("/transactions", h.Transaction.DeleteTransactionsByDate)
	users.GET("/transactions/last", h.Transaction.GetLastTransactions)
	users.GET("/transactions/:id", h.Transaction.GetTransaction)
	users.DELETE("/transactions/:id", h.Transaction.DeleteTransaction)
	users.PATCH("/transactions/:id/category", h.Transaction.ChangeCategory)
	users.POST("/expenses/quick", h.Transaction.CreateQuickExpense)

	// Report routes
	users.GET("/reports", h.Report.GetReport)
	users.GET("/balance", h.Report.GetBalance)
	users.GET("/totals", h.Report.GetTotal)
	users.GET("/charts/:type", h.Chart.GetChart)
}
