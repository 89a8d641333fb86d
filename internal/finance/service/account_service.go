package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/appointment"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// AccountServiceImpl implements AccountService for one account kind.
// Payables and receivables get separate instances wired to the same
// repositories; the kind decides which category kind references must match
// and which side of the cascade asymmetry applies on deletion.
type AccountServiceImpl struct {
	kind            shared.AccountKind
	logger          *slog.Logger
	accountRepo     monetaryaccount.Repository
	appointmentRepo appointment.Repository
	cashFlowRepo    cashflow.Repository
	refs            ReferenceChecker
	txRunner        TxRunner
}

// NewAccountService creates an account service scoped to the given kind
func NewAccountService(
	kind shared.AccountKind,
	logger *slog.Logger,
	accountRepo monetaryaccount.Repository,
	appointmentRepo appointment.Repository,
	cashFlowRepo cashflow.Repository,
	refs ReferenceChecker,
	txRunner TxRunner,
) AccountService {
	return &AccountServiceImpl{
		kind:            kind,
		logger:          logger,
		accountRepo:     accountRepo,
		appointmentRepo: appointmentRepo,
		cashFlowRepo:    cashFlowRepo,
		refs:            refs,
		txRunner:        txRunner,
	}
}

func (s *AccountServiceImpl) categoryKind() shared.CategoryKind {
	if s.kind == shared.AccountKindPayable {
		return shared.CategoryKindExpense
	}
	return shared.CategoryKindRevenue
}

// Create validates the company and category references, builds a pending
// account and persists it together with its appointment links.
func (s *AccountServiceImpl) Create(ctx context.Context, params CreateAccountParams) (*monetaryaccount.Account, error) {
	exists, err := s.refs.CompanyExists(ctx, params.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company: %w", err)
	}
	if !exists {
		return nil, ErrCompanyNotFound{CompanyID: params.CompanyID}
	}

	exists, err = s.refs.CategoryExists(ctx, params.CategoryID, s.categoryKind())
	if err != nil {
		return nil, fmt.Errorf("failed to check category: %w", err)
	}
	if !exists {
		return nil, ErrCategoryNotFound{CategoryID: params.CategoryID}
	}

	acc, err := monetaryaccount.NewAccount(s.kind, monetaryaccount.NewAccountParams{
		CompanyID:       params.CompanyID,
		CategoryID:      params.CategoryID,
		BankAccountID:   params.BankAccountID,
		Counterparty:    params.Counterparty,
		Description:     params.Description,
		Original:        params.Original,
		Discount:        params.Discount,
		Interest:        params.Interest,
		Penalty:         params.Penalty,
		IssueDate:       params.IssueDate,
		DueDate:         params.DueDate,
		Notes:           params.Notes,
		Recurring:       params.Recurring,
		RecurrenceEvery: params.RecurrenceEvery,
		CreatedBy:       params.CreatedBy,
	})
	if err != nil {
		return nil, err
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.accountRepo.WithTx(tx).Create(ctx, acc); err != nil {
			return err
		}
		return s.appointmentRepo.WithTx(tx).Link(ctx, acc.ID, params.AppointmentIDs)
	})
	if err != nil {
		s.logger.Error("Failed to create account", "kind", string(s.kind), "error", err)
		return nil, err
	}

	s.logger.Info("Account created",
		"kind", string(s.kind),
		"account_id", acc.ID.String(),
		"net", acc.Net.String())
	return acc, nil
}

// Get retrieves an account by id
func (s *AccountServiceImpl) Get(ctx context.Context, id uuid.UUID) (*monetaryaccount.Account, error) {
	return s.accountRepo.GetByID(ctx, s.kind, id)
}

// Update merges the patch into the account and persists it. Amount changes
// recompute the net and are rejected once settlement has begun.
func (s *AccountServiceImpl) Update(ctx context.Context, id uuid.UUID, patch monetaryaccount.UpdatePatch) (*monetaryaccount.Account, error) {
	if patch.CategoryID != nil {
		exists, err := s.refs.CategoryExists(ctx, *patch.CategoryID, s.categoryKind())
		if err != nil {
			return nil, fmt.Errorf("failed to check category: %w", err)
		}
		if !exists {
			return nil, ErrCategoryNotFound{CategoryID: *patch.CategoryID}
		}
	}

	acc, err := s.accountRepo.GetByID(ctx, s.kind, id)
	if err != nil {
		return nil, err
	}

	if err := acc.ApplyPatch(patch); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account updated", "kind", string(s.kind), "account_id", acc.ID.String())
	return acc, nil
}

// Cancel marks the account cancelled; fully settled accounts are rejected
func (s *AccountServiceImpl) Cancel(ctx context.Context, id uuid.UUID, reason string) (*monetaryaccount.Account, error) {
	acc, err := s.accountRepo.GetByID(ctx, s.kind, id)
	if err != nil {
		return nil, err
	}

	if err := acc.Cancel(reason); err != nil {
		return nil, err
	}

	if err := s.accountRepo.Update(ctx, acc); err != nil {
		return nil, err
	}

	s.logger.Info("Account cancelled", "kind", string(s.kind), "account_id", acc.ID.String())
	return acc, nil
}

// Delete removes an account and everything hanging off it in one
// transaction: appointment flags are reverted, join records and cash-flow
// entries removed (reconciled or not), then the account row itself. Any
// step failing rolls the whole cascade back.
func (s *AccountServiceImpl) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountRepo := s.accountRepo.WithTx(tx)
		appointmentRepo := s.appointmentRepo.WithTx(tx)
		cashFlowRepo := s.cashFlowRepo.WithTx(tx)

		acc, err := accountRepo.LockForUpdate(ctx, s.kind, id)
		if err != nil {
			return err
		}
		// Settled accounts carry the history of completed money movement
		// and must not be destroyed.
		if acc.Status == monetaryaccount.StatusSettled {
			return monetaryaccount.ErrInvalidState{AccountID: id, Status: acc.Status, Operation: "delete"}
		}

		appointmentIDs, err := appointmentRepo.IDsByAccount(ctx, id)
		if err != nil {
			return monetaryaccount.CascadeError{AccountID: id, Step: "collect appointment links", Err: err}
		}

		// Receivables clear the received flag on every linked appointment;
		// payables only demote ARCHIVED appointments back to ATTENDED.
		if s.kind == shared.AccountKindReceivable {
			err = appointmentRepo.ClearPaidFlag(ctx, appointmentIDs)
		} else {
			err = appointmentRepo.DemoteArchived(ctx, appointmentIDs)
		}
		if err != nil {
			return monetaryaccount.CascadeError{AccountID: id, Step: "revert appointment flags", Err: err}
		}

		if _, err := appointmentRepo.DeleteLinksByAccount(ctx, id); err != nil {
			return monetaryaccount.CascadeError{AccountID: id, Step: "delete appointment links", Err: err}
		}

		if _, err := cashFlowRepo.DeleteByAccountID(ctx, id); err != nil {
			return monetaryaccount.CascadeError{AccountID: id, Step: "delete cash flow entries", Err: err}
		}

		if err := accountRepo.Delete(ctx, s.kind, id); err != nil {
			return monetaryaccount.CascadeError{AccountID: id, Step: "delete account", Err: err}
		}

		return nil
	})
	if err != nil {
		s.logger.Error("Failed to delete account", "kind", string(s.kind), "account_id", id.String(), "error", err)
		return err
	}

	s.logger.Info("Account deleted", "kind", string(s.kind), "account_id", id.String())
	return nil
}

// List retrieves accounts matching the filters
func (s *AccountServiceImpl) List(ctx context.Context, filters monetaryaccount.ListFilters) ([]*monetaryaccount.Account, error) {
	return s.accountRepo.List(ctx, s.kind, filters)
}

// FindOverdue retrieves open accounts past their due date
func (s *AccountServiceImpl) FindOverdue(ctx context.Context, companyID uuid.UUID) ([]*monetaryaccount.Account, error) {
	return s.accountRepo.FindOverdue(ctx, s.kind, companyID, time.Now())
}

// FindDueWithin retrieves open accounts due in the next days days
func (s *AccountServiceImpl) FindDueWithin(ctx context.Context, companyID uuid.UUID, days int) ([]*monetaryaccount.Account, error) {
	if days < 0 {
		return nil, shared.ValidationError{Field: "days", Reason: "must not be negative"}
	}
	return s.accountRepo.FindDueWithin(ctx, s.kind, companyID, time.Now(), days)
}

// FindPending retrieves accounts with no settlement recorded yet
func (s *AccountServiceImpl) FindPending(ctx context.Context, companyID uuid.UUID) ([]*monetaryaccount.Account, error) {
	return s.accountRepo.FindPending(ctx, s.kind, companyID)
}

// SumOutstanding returns the total open amount across the company's accounts
func (s *AccountServiceImpl) SumOutstanding(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error) {
	return s.accountRepo.SumOutstanding(ctx, s.kind, companyID)
}
