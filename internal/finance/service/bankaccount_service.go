package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// BankAccountServiceImpl implements BankAccountService. Principal
// promotion and balance corrections are transactional: at most one
// principal per company, and a correction can journal itself as a manual
// cash-flow entry in the same commit.
type BankAccountServiceImpl struct {
	logger       *slog.Logger
	bankRepo     bankaccount.Repository
	cashFlowRepo cashflow.Repository
	refs         ReferenceChecker
	txRunner     TxRunner
}

// NewBankAccountService creates a new bank account registry service
func NewBankAccountService(
	logger *slog.Logger,
	bankRepo bankaccount.Repository,
	cashFlowRepo cashflow.Repository,
	refs ReferenceChecker,
	txRunner TxRunner,
) BankAccountService {
	return &BankAccountServiceImpl{
		logger:       logger,
		bankRepo:     bankRepo,
		cashFlowRepo: cashFlowRepo,
		refs:         refs,
		txRunner:     txRunner,
	}
}

// Create registers a bank account. When it is flagged principal, any
// previous principal of the company is demoted in the same transaction.
func (s *BankAccountServiceImpl) Create(ctx context.Context, params CreateBankAccountParams) (*bankaccount.BankAccount, error) {
	exists, err := s.refs.CompanyExists(ctx, params.CompanyID)
	if err != nil {
		return nil, fmt.Errorf("failed to check company: %w", err)
	}
	if !exists {
		return nil, ErrCompanyNotFound{CompanyID: params.CompanyID}
	}

	acc, err := bankaccount.NewBankAccount(
		params.CompanyID,
		params.Name,
		params.BankCode,
		params.Agency,
		params.Number,
		params.IsPrincipal,
		params.OpeningBalance,
	)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bankRepo := s.bankRepo.WithTx(tx)
		if acc.IsPrincipal {
			if err := bankRepo.ClearPrincipal(ctx, acc.CompanyID); err != nil {
				return err
			}
		}
		return bankRepo.Create(ctx, acc)
	})
	if err != nil {
		s.logger.Error("Failed to create bank account", "error", err)
		return nil, err
	}

	s.logger.Info("Bank account created", "bank_account_id", acc.ID.String(), "principal", acc.IsPrincipal)
	return acc, nil
}

// Get retrieves a bank account by id
func (s *BankAccountServiceImpl) Get(ctx context.Context, id uuid.UUID) (*bankaccount.BankAccount, error) {
	return s.bankRepo.GetByID(ctx, id)
}

// Update merges the given fields. Promoting to principal demotes the
// company's previous principal in the same transaction.
func (s *BankAccountServiceImpl) Update(ctx context.Context, id uuid.UUID, params UpdateBankAccountParams) (*bankaccount.BankAccount, error) {
	var acc *bankaccount.BankAccount

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bankRepo := s.bankRepo.WithTx(tx)

		var err error
		acc, err = bankRepo.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}

		if params.Name != nil {
			if *params.Name == "" {
				return shared.ValidationError{Field: "name", Reason: "must not be empty"}
			}
			acc.Name = *params.Name
		}
		if params.BankCode != nil {
			acc.BankCode = *params.BankCode
		}
		if params.Agency != nil {
			acc.Agency = *params.Agency
		}
		if params.Number != nil {
			acc.Number = *params.Number
		}
		if params.IsPrincipal != nil && *params.IsPrincipal != acc.IsPrincipal {
			if *params.IsPrincipal {
				if err := bankRepo.ClearPrincipal(ctx, acc.CompanyID); err != nil {
					return err
				}
			}
			acc.IsPrincipal = *params.IsPrincipal
		}
		if params.Active != nil {
			acc.Active = *params.Active
		}

		acc.UpdatedAt = time.Now()
		acc.Version++
		return bankRepo.Update(ctx, acc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Bank account updated", "bank_account_id", id.String())
	return acc, nil
}

// AdjustBalance overwrites the current balance. When a category is given
// the difference is also journaled as a manual cash-flow entry, so reports
// built from the journal keep agreeing with the materialized balance.
func (s *BankAccountServiceImpl) AdjustBalance(ctx context.Context, params AdjustBalanceParams) (*bankaccount.BankAccount, error) {
	var acc *bankaccount.BankAccount

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bankRepo := s.bankRepo.WithTx(tx)

		var err error
		acc, err = bankRepo.LockForUpdate(ctx, params.BankAccountID)
		if err != nil {
			return err
		}

		delta := params.NewBalance.Sub(acc.CurrentBalance)
		if delta.IsZero() {
			return nil
		}

		if err := bankRepo.SetBalance(ctx, acc.ID, params.NewBalance); err != nil {
			return err
		}
		acc.CurrentBalance = params.NewBalance

		if params.CategoryID == nil {
			return nil
		}

		direction := shared.DirectionIn
		categoryKind := shared.CategoryKindRevenue
		if delta.IsNegative() {
			direction = shared.DirectionOut
			categoryKind = shared.CategoryKindExpense
		}
		exists, err := s.refs.CategoryExists(ctx, *params.CategoryID, categoryKind)
		if err != nil {
			return fmt.Errorf("failed to check category: %w", err)
		}
		if !exists {
			return ErrCategoryNotFound{CategoryID: *params.CategoryID}
		}

		entry, err := cashflow.NewEntry(cashflow.NewEntryParams{
			CompanyID:     acc.CompanyID,
			BankAccountID: acc.ID,
			Direction:     direction,
			CategoryID:    *params.CategoryID,
			Description:   fmt.Sprintf("Balance correction for %s", acc.Name),
			Amount:        delta.Abs(),
			MovementDate:  time.Now(),
			Method:        shared.PaymentMethodTransfer,
			CreatedBy:     params.AdjustedBy,
		})
		if err != nil {
			return err
		}
		return s.cashFlowRepo.WithTx(tx).Create(ctx, entry)
	})
	if err != nil {
		s.logger.Error("Failed to adjust balance", "bank_account_id", params.BankAccountID.String(), "error", err)
		return nil, err
	}

	s.logger.Info("Bank account balance adjusted",
		"bank_account_id", acc.ID.String(),
		"balance", acc.CurrentBalance.String())
	return acc, nil
}

// FindPrincipal retrieves the company's active principal account
func (s *BankAccountServiceImpl) FindPrincipal(ctx context.Context, companyID uuid.UUID) (*bankaccount.BankAccount, error) {
	return s.bankRepo.FindPrincipal(ctx, companyID)
}

// List retrieves the company's bank accounts
func (s *BankAccountServiceImpl) List(ctx context.Context, filters bankaccount.ListFilters) ([]*bankaccount.BankAccount, error) {
	return s.bankRepo.List(ctx, filters)
}
