// Package api_gateway exposes the ledger core over HTTP. It wires the gin
// router, the request middleware and the handlers around the finance
// services.
package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clinic-finance-ledger/internal/api_gateway/handler"
	"github.com/clinic-finance-ledger/internal/config"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/finance/service"
)

// Services bundles the finance services the gateway exposes
type Services struct {
	PayableAccounts    service.AccountService
	ReceivableAccounts service.AccountService
	PayableSettlement  service.SettlementService
	ReceivableSettle   service.SettlementService
	CashFlow           service.CashFlowService
	BankAccounts       service.BankAccountService
	Reports            service.ReportService
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	payableHandler := handler.NewAccountHandler(log, shared.AccountKindPayable, services.PayableAccounts)
	receivableHandler := handler.NewAccountHandler(log, shared.AccountKindReceivable, services.ReceivableAccounts)
	payableSettlementHandler := handler.NewSettlementHandler(log, shared.AccountKindPayable, services.PayableSettlement)
	receivableSettlementHandler := handler.NewSettlementHandler(log, shared.AccountKindReceivable, services.ReceivableSettle)
	cashFlowHandler := handler.NewCashFlowHandler(log, services.CashFlow)
	bankAccountHandler := handler.NewBankAccountHandler(log, services.BankAccounts)
	reportHandler := handler.NewReportHandler(log, services.Reports)

	setupRouter(log, httpRouter,
		payableHandler,
		receivableHandler,
		payableSettlementHandler,
		receivableSettlementHandler,
		cashFlowHandler,
		bankAccountHandler,
		reportHandler,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
