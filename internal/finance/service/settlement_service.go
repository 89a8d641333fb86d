package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/settlement"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// SettlementServiceImpl records payments against payables and receipts
// against receivables. Each settlement is one transaction touching three
// tables: the account row (pessimistic lock plus version bump), a new
// cash-flow entry, and the bank account balance (optimistic lock). Lost
// version races are retried with a fresh transaction up to maxRetries.
type SettlementServiceImpl struct {
	logger       *slog.Logger
	accountRepo  monetaryaccount.Repository
	bankRepo     bankaccount.Repository
	cashFlowRepo cashflow.Repository
	txRunner     TxRunner
	hook         SettlementHook
	journal      settlement.Journal
	maxRetries   int
}

// NewSettlementService creates the settlement workflow service. hook and
// journal may be nil when no post-settlement processing is wired.
func NewSettlementService(
	logger *slog.Logger,
	accountRepo monetaryaccount.Repository,
	bankRepo bankaccount.Repository,
	cashFlowRepo cashflow.Repository,
	txRunner TxRunner,
	hook SettlementHook,
	journal settlement.Journal,
	maxRetries int,
) SettlementService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &SettlementServiceImpl{
		logger:       logger,
		accountRepo:  accountRepo,
		bankRepo:     bankRepo,
		cashFlowRepo: cashFlowRepo,
		txRunner:     txRunner,
		hook:         hook,
		journal:      journal,
		maxRetries:   maxRetries,
	}
}

// Settle applies one payment or receipt. On success the account reflects
// the new settled amount, the journal holds an unreconciled entry for the
// movement, and the bank balance has moved by the amount (down for
// payables, up for receivables). Concurrent settlements of the same
// account serialize on the row lock; whichever loses a bank-balance
// version race is retried from scratch.
func (s *SettlementServiceImpl) Settle(ctx context.Context, params SettleParams) (*monetaryaccount.Account, error) {
	if !params.Kind.IsValid() {
		return nil, shared.ValidationError{Field: "kind", Reason: "must be PAYABLE or RECEIVABLE"}
	}
	if !params.Method.IsValid() {
		return nil, shared.ValidationError{Field: "method", Reason: "unknown payment method"}
	}

	var (
		acc     *monetaryaccount.Account
		lastErr error
	)
	for attempt := 1; attempt <= s.maxRetries; attempt++ {
		acc, lastErr = s.settleOnce(ctx, params)
		if lastErr == nil {
			break
		}
		if !errors.Is(lastErr, bankaccount.ErrConcurrentModification{}) &&
			!errors.Is(lastErr, monetaryaccount.ErrConcurrentModification{}) {
			return nil, lastErr
		}
		if attempt < s.maxRetries {
			s.logger.Warn("Settlement lost a version race, retrying",
				"account_id", params.AccountID.String(),
				"attempt", attempt)
		}
	}
	if lastErr != nil {
		s.logger.Error("Settlement failed after retries",
			"account_id", params.AccountID.String(),
			"attempts", s.maxRetries,
			"error", lastErr)
		return nil, lastErr
	}

	s.logger.Info("Settlement recorded",
		"kind", string(params.Kind),
		"account_id", acc.ID.String(),
		"amount", params.Amount.String(),
		"status", string(acc.Status))

	if s.hook != nil {
		s.hook.AfterSettlement(s.buildEvent(acc, params))
	}

	return acc, nil
}

func (s *SettlementServiceImpl) settleOnce(ctx context.Context, params SettleParams) (*monetaryaccount.Account, error) {
	var acc *monetaryaccount.Account

	err := s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		accountRepo := s.accountRepo.WithTx(tx)
		bankRepo := s.bankRepo.WithTx(tx)
		cashFlowRepo := s.cashFlowRepo.WithTx(tx)

		var err error
		acc, err = accountRepo.LockForUpdate(ctx, params.Kind, params.AccountID)
		if err != nil {
			return err
		}

		// State and amount checks come before the bank lookup so that a
		// settled account or an excess amount is reported even when the
		// bank account id is bogus.
		if err := acc.RecordSettlement(params.Amount, params.SettledOn, params.Method); err != nil {
			return err
		}

		bank, err := bankRepo.GetByID(ctx, params.BankAccountID)
		if err != nil {
			return err
		}
		if bank.CompanyID != acc.CompanyID {
			return shared.ValidationError{Field: "bank_account_id", Reason: "bank account belongs to another company"}
		}
		if !bank.Active {
			return shared.ValidationError{Field: "bank_account_id", Reason: "bank account is inactive"}
		}

		if err := accountRepo.Update(ctx, acc); err != nil {
			return err
		}

		entry, err := cashflow.NewEntry(cashflow.NewEntryParams{
			CompanyID:     acc.CompanyID,
			BankAccountID: bank.ID,
			Direction:     acc.Direction(),
			CategoryID:    acc.CategoryID,
			Description:   s.entryDescription(acc, params),
			Amount:        params.Amount,
			MovementDate:  params.SettledOn,
			Method:        params.Method,
			AccountID:     &acc.ID,
			AccountKind:   &acc.Kind,
			CreatedBy:     params.RecordedBy,
		})
		if err != nil {
			return err
		}
		if err := cashFlowRepo.Create(ctx, entry); err != nil {
			return err
		}

		delta := params.Amount
		if acc.Direction() == shared.DirectionOut {
			delta = delta.Neg()
		}
		return bankRepo.ApplyDelta(ctx, bank.ID, delta, bank.Version)
	})
	if err != nil {
		return nil, err
	}

	return acc, nil
}

// History lists the account's journaled settlements, most recent first.
// Accounts without settlements (or deployments without a journal) get an
// empty trail.
func (s *SettlementServiceImpl) History(ctx context.Context, accountID uuid.UUID, limit int) ([]*settlement.Event, error) {
	if s.journal == nil {
		return []*settlement.Event{}, nil
	}
	if limit <= 0 {
		limit = 20
	}

	events, err := s.journal.ListByAccount(ctx, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read settlement history: %w", err)
	}
	if events == nil {
		events = []*settlement.Event{}
	}
	return events, nil
}

func (s *SettlementServiceImpl) entryDescription(acc *monetaryaccount.Account, params SettleParams) string {
	if params.Notes != "" {
		return params.Notes
	}
	verb := "Payment"
	if acc.Kind == shared.AccountKindReceivable {
		verb = "Receipt"
	}
	return fmt.Sprintf("%s: %s", verb, acc.Description)
}

func (s *SettlementServiceImpl) buildEvent(acc *monetaryaccount.Account, params SettleParams) *settlement.Event {
	return &settlement.Event{
		EventID:       uuid.New(),
		AccountID:     acc.ID,
		Kind:          acc.Kind,
		CompanyID:     acc.CompanyID,
		BankAccountID: params.BankAccountID,
		Amount:        params.Amount.String(),
		Method:        string(params.Method),
		SettledOn:     params.SettledOn,
		Status:        string(acc.Status),
		FullySettled:  acc.Status == monetaryaccount.StatusSettled,
		CorrelationID: params.CorrelationID,
		RecordedAt:    time.Now(),
	}
}
