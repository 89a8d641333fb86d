package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// ReportServiceImpl implements ReportService on top of the repositories'
// aggregate queries. Reads only; nothing in here opens a transaction.
type ReportServiceImpl struct {
	logger       *slog.Logger
	accountRepo  monetaryaccount.Repository
	cashFlowRepo cashflow.Repository
}

// NewReportService creates a new report service
func NewReportService(logger *slog.Logger, accountRepo monetaryaccount.Repository, cashFlowRepo cashflow.Repository) ReportService {
	return &ReportServiceImpl{
		logger:       logger,
		accountRepo:  accountRepo,
		cashFlowRepo: cashFlowRepo,
	}
}

// Dashboard aggregates the period's movements: totals by direction, the
// unreconciled entry count, and the per-category breakdown.
func (s *ReportServiceImpl) Dashboard(ctx context.Context, companyID uuid.UUID, from, to time.Time) (*Dashboard, error) {
	if to.Before(from) {
		return nil, shared.ValidationError{Field: "to", Reason: "must not precede from"}
	}

	totals, err := s.cashFlowRepo.PeriodTotals(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	unreconciled, err := s.cashFlowRepo.CountUnreconciled(ctx, companyID)
	if err != nil {
		return nil, err
	}

	categories, err := s.cashFlowRepo.CategoryBreakdown(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Totals:            totals,
		UnreconciledCount: unreconciled,
		Categories:        categories,
	}, nil
}

// Report extends the dashboard with due-date buckets for both ledgers
func (s *ReportServiceImpl) Report(ctx context.Context, companyID uuid.UUID, from, to time.Time) (*Report, error) {
	dashboard, err := s.Dashboard(ctx, companyID, from, to)
	if err != nil {
		return nil, err
	}

	today := time.Now()
	payables, err := s.accountRepo.SumBuckets(ctx, shared.AccountKindPayable, companyID, from, to, today)
	if err != nil {
		return nil, err
	}
	receivables, err := s.accountRepo.SumBuckets(ctx, shared.AccountKindReceivable, companyID, from, to, today)
	if err != nil {
		return nil, err
	}

	return &Report{
		Dashboard:   *dashboard,
		Payables:    payables,
		Receivables: receivables,
	}, nil
}
