package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clinic-finance-ledger/internal/api_gateway/handler"
	"github.com/clinic-finance-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	payableHandler *handler.AccountHandler,
	receivableHandler *handler.AccountHandler,
	payableSettlementHandler *handler.SettlementHandler,
	receivableSettlementHandler *handler.SettlementHandler,
	cashFlowHandler *handler.CashFlowHandler,
	bankAccountHandler *handler.BankAccountHandler,
	reportHandler *handler.ReportHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Payable ledger operations
		payables := v1.Group("/payables")
		{
			payables.POST("", payableHandler.Create)
			payables.GET("", payableHandler.List)
			payables.GET("/overdue", payableHandler.Overdue)
			payables.GET("/pending", payableHandler.Pending)
			payables.GET("/due-within", payableHandler.DueWithin)
			payables.GET("/outstanding", payableHandler.Outstanding)
			payables.GET("/:id", payableHandler.GetByID)
			payables.PUT("/:id", payableHandler.Update)
			payables.DELETE("/:id", payableHandler.Delete)
			payables.POST("/:id/cancel", payableHandler.Cancel)
			payables.POST("/:id/settle", payableSettlementHandler.Settle)
			payables.GET("/:id/settlements", payableSettlementHandler.History)
		}

		// Receivable ledger operations
		receivables := v1.Group("/receivables")
		{
			receivables.POST("", receivableHandler.Create)
			receivables.GET("", receivableHandler.List)
			receivables.GET("/overdue", receivableHandler.Overdue)
			receivables.GET("/pending", receivableHandler.Pending)
			receivables.GET("/due-within", receivableHandler.DueWithin)
			receivables.GET("/outstanding", receivableHandler.Outstanding)
			receivables.GET("/:id", receivableHandler.GetByID)
			receivables.PUT("/:id", receivableHandler.Update)
			receivables.DELETE("/:id", receivableHandler.Delete)
			receivables.POST("/:id/cancel", receivableHandler.Cancel)
			receivables.POST("/:id/settle", receivableSettlementHandler.Settle)
			receivables.GET("/:id/settlements", receivableSettlementHandler.History)
		}

		// Cash-flow journal operations
		entries := v1.Group("/ledger-entries")
		{
			entries.POST("", cashFlowHandler.Create)
			entries.GET("", cashFlowHandler.List)
			entries.GET("/unreconciled", cashFlowHandler.Unreconciled)
			entries.GET("/:id", cashFlowHandler.GetByID)
			entries.PUT("/:id", cashFlowHandler.Update)
			entries.DELETE("/:id", cashFlowHandler.Delete)
			entries.POST("/:id/reconcile", cashFlowHandler.Reconcile)
		}

		// Bank account registry operations
		bankAccounts := v1.Group("/bank-accounts")
		{
			bankAccounts.POST("", bankAccountHandler.Create)
			bankAccounts.GET("", bankAccountHandler.List)
			bankAccounts.GET("/principal", bankAccountHandler.Principal)
			bankAccounts.GET("/:id", bankAccountHandler.GetByID)
			bankAccounts.PUT("/:id", bankAccountHandler.Update)
			bankAccounts.PUT("/:id/balance", bankAccountHandler.AdjustBalance)
		}

		// Read-only aggregation endpoints
		reports := v1.Group("/reports")
		{
			reports.GET("/dashboard", reportHandler.Dashboard)
			reports.GET("/summary", reportHandler.Report)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
