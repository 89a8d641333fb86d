package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// CashFlowServiceImpl implements CashFlowService. Settlement-generated
// entries arrive through the settlement workflow; this service covers the
// manually recorded movements plus reconciliation and reads.
type CashFlowServiceImpl struct {
	logger       *slog.Logger
	cashFlowRepo cashflow.Repository
	refs         ReferenceChecker
}

// NewCashFlowService creates a new cash-flow service
func NewCashFlowService(logger *slog.Logger, cashFlowRepo cashflow.Repository, refs ReferenceChecker) CashFlowService {
	return &CashFlowServiceImpl{
		logger:       logger,
		cashFlowRepo: cashFlowRepo,
		refs:         refs,
	}
}

// Create records a manual movement with no linked monetary account
func (s *CashFlowServiceImpl) Create(ctx context.Context, params CreateEntryParams) (*cashflow.Entry, error) {
	exists, err := s.refs.CompanyExists(ctx, params.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company: %w", err)
	}
	if !exists {
		return nil, ErrCompanyNotFound{CompanyID: params.CompanyID}
	}

	categoryKind := shared.CategoryKindRevenue
	if params.Direction == shared.DirectionOut {
		categoryKind = shared.CategoryKindExpense
	}
	exists, err = s.refs.CategoryExists(ctx, params.CategoryID, categoryKind)
	if err != nil {
		return nil, fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return nil, ErrCategoryNotFound{CategoryID: params.CategoryID}
	}

	entry, err := cashflow.NewEntry(cashflow.NewEntryParams{
		CompanyID:     params.CompanyID,
		BankAccountID: params.BankAccountID,
		Direction:     params.Direction,
		CategoryID:    params.CategoryID,
		Description:   params.Description,
		Amount:        params.Amount,
		MovementDate:  params.MovementDate,
		Method:        params.Method,
		CreatedBy:     params.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := s.cashFlowRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to create cash flow entry", "error", err)
		return nil, err
	}

	s.logger.Info("Cash flow entry created",
		"entry_id", entry.ID.String(),
		"direction", string(entry.Direction),
		"amount", entry.Amount.String())
	return entry, nil
}

// Get retrieves an entry by id
func (s *CashFlowServiceImpl) Get(ctx context.Context, id uuid.UUID) (*cashflow.Entry, error) {
	return s.cashFlowRepo.GetByID(ctx, id)
}

// Update merges the patch into an unreconciled entry
func (s *CashFlowServiceImpl) Update(ctx context.Context, id uuid.UUID, patch cashflow.UpdatePatch) (*cashflow.Entry, error) {
	entry, err := s.cashFlowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := entry.ApplyPatch(patch); err != nil {
		return nil, err
	}

	if err := s.cashFlowRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// Reconcile marks an entry as verified against a bank statement. A nil
// timestamp reconciles at the current time.
func (s *CashFlowServiceImpl) Reconcile(ctx context.Context, id uuid.UUID, at *time.Time) (*cashflow.Entry, error) {
	entry, err := s.cashFlowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	when := time.Now()
	if at != nil {
		when = *at
	}
	if err := entry.Reconcile(when); err != nil {
		return nil, err
	}

	if err := s.cashFlowRepo.Update(ctx, entry); err != nil {
		return nil, err
	}

	s.logger.Info("Cash flow entry reconciled", "entry_id", entry.ID.String())
	return entry, nil
}

// Delete removes an unreconciled entry
func (s *CashFlowServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	entry, err := s.cashFlowRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if entry.Reconciled {
		return cashflow.ErrEntryReconciled{EntryID: id}
	}

	if err := s.cashFlowRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.Info("Cash flow entry deleted", "entry_id", id.String())
	return nil
}

// List retrieves entries matching the filters
func (s *CashFlowServiceImpl) List(ctx context.Context, filters cashflow.ListFilters) ([]*cashflow.Entry, error) {
	return s.cashFlowRepo.List(ctx, filters)
}

// PeriodTotals aggregates movements by direction over a date range
func (s *CashFlowServiceImpl) PeriodTotals(ctx context.Context, companyID uuid.UUID, from, to time.Time) (cashflow.PeriodTotals, error) {
	if to.Before(from) {
		return cashflow.PeriodTotals{}, shared.ValidationError{Field: "to", Reason: "must not precede from"}
	}
	return s.cashFlowRepo.PeriodTotals(ctx, companyID, from, to)
}

// Unreconciled retrieves entries not yet verified against a statement
func (s *CashFlowServiceImpl) Unreconciled(ctx context.Context, companyID uuid.UUID) ([]*cashflow.Entry, error) {
	return s.cashFlowRepo.Unreconciled(ctx, companyID)
}
