package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinic-finance-ledger/internal/api_gateway"
	"github.com/clinic-finance-ledger/internal/config"
	"github.com/clinic-finance-ledger/internal/data/mongo"
	"github.com/clinic-finance-ledger/internal/data/postgres"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/finance/hooks"
	"github.com/clinic-finance-ledger/internal/finance/service"
	"github.com/clinic-finance-ledger/internal/logger"
	"github.com/clinic-finance-ledger/internal/platform/messaging/producers"
	"github.com/clinic-finance-ledger/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("finance_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer for settlement events
	settledProducer, err := producers.NewSettledEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewMonetaryAccountRepository(log, postgresDB)
	bankRepo := postgres.NewBankAccountRepository(log, postgresDB)
	cashFlowRepo := postgres.NewCashFlowRepository(log, postgresDB)
	appointmentRepo := postgres.NewAppointmentRepository(log, postgresDB)
	refs := postgres.NewReferenceChecker(log, postgresDB)
	journal := mongo.NewSettlementJournal(log, mongoDB.Database())

	// Initialize post-settlement hook dispatcher
	dispatcher, err := hooks.NewDispatcher(hooks.Config{
		PoolSize: cfg.Hooks.WorkerPoolSize,
		Timeout:  cfg.Hooks.Timeout,
	}, log, appointmentRepo, settledProducer, journal)
	if err != nil {
		log.Error("Failed to initialize hook dispatcher", "error", err)
		os.Exit(1)
	}

	// Initialize services
	payableAccounts := service.NewAccountService(shared.AccountKindPayable, log,
		accountRepo, appointmentRepo, cashFlowRepo, refs, postgresDB)
	receivableAccounts := service.NewAccountService(shared.AccountKindReceivable, log,
		accountRepo, appointmentRepo, cashFlowRepo, refs, postgresDB)
	settlement := service.NewSettlementService(log,
		accountRepo, bankRepo, cashFlowRepo, postgresDB, dispatcher, journal, cfg.Settlement.MaxRetries)
	cashFlow := service.NewCashFlowService(log, cashFlowRepo, refs)
	bankAccounts := service.NewBankAccountService(log, bankRepo, cashFlowRepo, refs, postgresDB)
	reports := service.NewReportService(log, accountRepo, cashFlowRepo)

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, api_gateway.Services{
		PayableAccounts:    payableAccounts,
		ReceivableAccounts: receivableAccounts,
		PayableSettlement:  settlement,
		ReceivableSettle:   settlement,
		CashFlow:           cashFlow,
		BankAccounts:       bankAccounts,
		Reports:            reports,
	})
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first so no new settlements reach the pool
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	// Drain the hook workers before closing their sinks
	dispatcher.Release()

	if err = settledProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
