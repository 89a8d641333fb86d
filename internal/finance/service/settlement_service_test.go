package service

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/settlement"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

type settlementFixture struct {
	accountRepo  *MockMonetaryAccountRepository
	bankRepo     *MockBankAccountRepository
	cashFlowRepo *MockCashFlowRepository
	hook         *MockSettlementHook
	journal      *MockSettlementJournal
	service      SettlementService
}

func newSettlementFixture(maxRetries int) *settlementFixture {
	f := &settlementFixture{
		accountRepo:  new(MockMonetaryAccountRepository),
		bankRepo:     new(MockBankAccountRepository),
		cashFlowRepo: new(MockCashFlowRepository),
		hook:         new(MockSettlementHook),
	}
	f.journal = new(MockSettlementJournal)
	f.service = NewSettlementService(testLogger(), f.accountRepo, f.bankRepo, f.cashFlowRepo, fakeTxRunner{}, f.hook, f.journal, maxRetries)
	return f
}

func newOpenAccount(t *testing.T, kind shared.AccountKind, companyID uuid.UUID) *monetaryaccount.Account {
	t.Helper()
	acc, err := monetaryaccount.NewAccount(kind, monetaryaccount.NewAccountParams{
		CompanyID:  companyID,
		CategoryID: uuid.New(),
		Original:   dec("1000"),
		Discount:   dec("100"),
		Interest:   dec("50"),
		DueDate:    time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)
	return acc
}

func newBank(companyID uuid.UUID, balance string) *bankaccount.BankAccount {
	bank, _ := bankaccount.NewBankAccount(companyID, "Conta Principal", "341", "0001", "12345-6", true, dec(balance))
	return bank
}

func TestSettlementServiceImpl_Settle(t *testing.T) {
	ctx := context.Background()
	settledOn := time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)

	t.Run("PartialPayableMovesBalanceDown", func(t *testing.T) {
		f := newSettlementFixture(3)
		companyID := uuid.New()
		acc := newOpenAccount(t, shared.AccountKindPayable, companyID)
		bank := newBank(companyID, "5000")

		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("GetByID", ctx, bank.ID).Return(bank, nil).Once()
		f.accountRepo.On("Update", ctx, acc).Return(nil).Once()
		f.cashFlowRepo.On("Create", ctx, mock.AnythingOfType("*cashflow.Entry")).Return(nil).Once()
		f.bankRepo.On("ApplyDelta", ctx, bank.ID, dec("-400"), bank.Version).Return(nil).Once()
		f.hook.On("AfterSettlement", mock.AnythingOfType("*settlement.Event")).Once()

		result, err := f.service.Settle(ctx, SettleParams{
			AccountID:     acc.ID,
			Kind:          shared.AccountKindPayable,
			Amount:        dec("400"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodPix,
			BankAccountID: bank.ID,
		})

		require.NoError(t, err)
		assert.Equal(t, monetaryaccount.StatusPartial, result.Status)
		assert.True(t, result.Settled.Equal(dec("400")))
		assert.Nil(t, result.SettledOn)

		entry := f.cashFlowRepo.Calls[0].Arguments.Get(1).(*cashflow.Entry)
		assert.Equal(t, shared.DirectionOut, entry.Direction)
		assert.False(t, entry.Reconciled)
		require.NotNil(t, entry.AccountID)
		assert.Equal(t, acc.ID, *entry.AccountID)

		f.bankRepo.AssertExpectations(t)
		f.hook.AssertExpectations(t)
	})

	t.Run("FullReceivableSettlementEmitsFullySettledEvent", func(t *testing.T) {
		f := newSettlementFixture(3)
		companyID := uuid.New()
		acc := newOpenAccount(t, shared.AccountKindReceivable, companyID)
		bank := newBank(companyID, "0")

		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindReceivable, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("GetByID", ctx, bank.ID).Return(bank, nil).Once()
		f.accountRepo.On("Update", ctx, acc).Return(nil).Once()
		f.cashFlowRepo.On("Create", ctx, mock.AnythingOfType("*cashflow.Entry")).Return(nil).Once()
		f.bankRepo.On("ApplyDelta", ctx, bank.ID, dec("950"), bank.Version).Return(nil).Once()

		var captured *settlement.Event
		f.hook.On("AfterSettlement", mock.AnythingOfType("*settlement.Event")).
			Run(func(args mock.Arguments) {
				captured = args.Get(0).(*settlement.Event)
			}).Once()

		result, err := f.service.Settle(ctx, SettleParams{
			AccountID:     acc.ID,
			Kind:          shared.AccountKindReceivable,
			Amount:        dec("950"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodCard,
			BankAccountID: bank.ID,
			CorrelationID: "corr-123",
		})

		require.NoError(t, err)
		assert.Equal(t, monetaryaccount.StatusSettled, result.Status)
		require.NotNil(t, result.SettledOn)
		assert.True(t, result.SettledOn.Equal(settledOn))

		require.NotNil(t, captured)
		assert.True(t, captured.FullySettled)
		assert.Equal(t, "950", captured.Amount)
		assert.Equal(t, "corr-123", captured.CorrelationID)
	})

	t.Run("ExcessAmountRejected", func(t *testing.T) {
		f := newSettlementFixture(3)
		companyID := uuid.New()
		acc := newOpenAccount(t, shared.AccountKindPayable, companyID)

		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, acc.ID).Return(acc, nil).Once()

		// The excess amount must be rejected before the bank account is
		// even looked up.
		_, err := f.service.Settle(ctx, SettleParams{
			AccountID:     acc.ID,
			Kind:          shared.AccountKindPayable,
			Amount:        dec("950.01"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodCash,
			BankAccountID: uuid.New(),
		})

		assert.ErrorIs(t, err, shared.ValidationError{})
		f.bankRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		f.cashFlowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		f.bankRepo.AssertNotCalled(t, "ApplyDelta", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		f.hook.AssertNotCalled(t, "AfterSettlement", mock.Anything)
	})

	t.Run("SettledAccountRejected", func(t *testing.T) {
		f := newSettlementFixture(3)
		companyID := uuid.New()
		acc := newOpenAccount(t, shared.AccountKindPayable, companyID)
		require.NoError(t, acc.RecordSettlement(dec("950"), settledOn, shared.PaymentMethodCash))

		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, acc.ID).Return(acc, nil).Once()

		_, err := f.service.Settle(ctx, SettleParams{
			AccountID:     acc.ID,
			Kind:          shared.AccountKindPayable,
			Amount:        dec("1"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodCash,
			BankAccountID: uuid.New(),
		})

		assert.ErrorIs(t, err, monetaryaccount.ErrInvalidState{})
		f.bankRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("BankAccountOfAnotherCompanyRejected", func(t *testing.T) {
		f := newSettlementFixture(3)
		acc := newOpenAccount(t, shared.AccountKindPayable, uuid.New())
		bank := newBank(uuid.New(), "5000")

		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("GetByID", ctx, bank.ID).Return(bank, nil).Once()

		_, err := f.service.Settle(ctx, SettleParams{
			AccountID:     acc.ID,
			Kind:          shared.AccountKindPayable,
			Amount:        dec("100"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodPix,
			BankAccountID: bank.ID,
		})

		assert.ErrorIs(t, err, shared.ValidationError{})
	})

	t.Run("RetriesOnBalanceVersionRace", func(t *testing.T) {
		f := newSettlementFixture(3)
		companyID := uuid.New()
		bank := newBank(companyID, "5000")

		// Each attempt re-reads the account inside a fresh transaction.
		first := newOpenAccount(t, shared.AccountKindPayable, companyID)
		second := newOpenAccount(t, shared.AccountKindPayable, companyID)
		second.ID = first.ID

		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, first.ID).Return(first, nil).Once()
		f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, first.ID).Return(second, nil).Once()
		f.bankRepo.On("GetByID", ctx, bank.ID).Return(bank, nil).Twice()
		f.accountRepo.On("Update", ctx, mock.AnythingOfType("*monetaryaccount.Account")).Return(nil).Twice()
		f.cashFlowRepo.On("Create", ctx, mock.AnythingOfType("*cashflow.Entry")).Return(nil).Twice()
		f.bankRepo.On("ApplyDelta", ctx, bank.ID, dec("-200"), bank.Version).
			Return(bankaccount.ErrConcurrentModification{BankAccountID: bank.ID}).Once()
		f.bankRepo.On("ApplyDelta", ctx, bank.ID, dec("-200"), bank.Version).Return(nil).Once()
		f.hook.On("AfterSettlement", mock.AnythingOfType("*settlement.Event")).Once()

		result, err := f.service.Settle(ctx, SettleParams{
			AccountID:     first.ID,
			Kind:          shared.AccountKindPayable,
			Amount:        dec("200"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodTransfer,
			BankAccountID: bank.ID,
		})

		require.NoError(t, err)
		assert.True(t, result.Settled.Equal(dec("200")))
		f.bankRepo.AssertExpectations(t)
	})

	t.Run("GivesUpAfterMaxRetries", func(t *testing.T) {
		f := newSettlementFixture(2)
		companyID := uuid.New()
		bank := newBank(companyID, "5000")

		for i := 0; i < 2; i++ {
			acc := newOpenAccount(t, shared.AccountKindPayable, companyID)
			f.accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, mock.AnythingOfType("uuid.UUID")).Return(acc, nil).Once()
		}
		f.bankRepo.On("GetByID", ctx, bank.ID).Return(bank, nil).Twice()
		f.accountRepo.On("Update", ctx, mock.AnythingOfType("*monetaryaccount.Account")).Return(nil).Twice()
		f.cashFlowRepo.On("Create", ctx, mock.AnythingOfType("*cashflow.Entry")).Return(nil).Twice()
		f.bankRepo.On("ApplyDelta", ctx, bank.ID, mock.Anything, bank.Version).
			Return(bankaccount.ErrConcurrentModification{BankAccountID: bank.ID}).Twice()

		_, err := f.service.Settle(ctx, SettleParams{
			AccountID:     uuid.New(),
			Kind:          shared.AccountKindPayable,
			Amount:        dec("200"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodTransfer,
			BankAccountID: bank.ID,
		})

		assert.ErrorIs(t, err, bankaccount.ErrConcurrentModification{})
		f.hook.AssertNotCalled(t, "AfterSettlement", mock.Anything)
	})

	t.Run("FinalFailedAttemptNotLoggedAsRetry", func(t *testing.T) {
		var logBuf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&logBuf, nil))

		accountRepo := new(MockMonetaryAccountRepository)
		bankRepo := new(MockBankAccountRepository)
		cashFlowRepo := new(MockCashFlowRepository)
		service := NewSettlementService(logger, accountRepo, bankRepo, cashFlowRepo, fakeTxRunner{}, nil, nil, 2)

		companyID := uuid.New()
		bank := newBank(companyID, "5000")
		for i := 0; i < 2; i++ {
			acc := newOpenAccount(t, shared.AccountKindPayable, companyID)
			accountRepo.On("LockForUpdate", ctx, shared.AccountKindPayable, mock.AnythingOfType("uuid.UUID")).Return(acc, nil).Once()
		}
		bankRepo.On("GetByID", ctx, bank.ID).Return(bank, nil).Twice()
		accountRepo.On("Update", ctx, mock.AnythingOfType("*monetaryaccount.Account")).Return(nil).Twice()
		cashFlowRepo.On("Create", ctx, mock.AnythingOfType("*cashflow.Entry")).Return(nil).Twice()
		bankRepo.On("ApplyDelta", ctx, bank.ID, mock.Anything, bank.Version).
			Return(bankaccount.ErrConcurrentModification{BankAccountID: bank.ID}).Twice()

		_, err := service.Settle(ctx, SettleParams{
			AccountID:     uuid.New(),
			Kind:          shared.AccountKindPayable,
			Amount:        dec("200"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethodTransfer,
			BankAccountID: bank.ID,
		})

		require.Error(t, err)
		// Only the first attempt has a retry after it.
		assert.Equal(t, 1, strings.Count(logBuf.String(), "retrying"))
	})

	t.Run("InvalidMethodRejectedUpfront", func(t *testing.T) {
		f := newSettlementFixture(3)

		_, err := f.service.Settle(ctx, SettleParams{
			AccountID:     uuid.New(),
			Kind:          shared.AccountKindPayable,
			Amount:        dec("10"),
			SettledOn:     settledOn,
			Method:        shared.PaymentMethod("IOU"),
			BankAccountID: uuid.New(),
		})

		assert.ErrorIs(t, err, shared.ValidationError{})
		f.accountRepo.AssertNotCalled(t, "LockForUpdate", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSettlementServiceImpl_History(t *testing.T) {
	ctx := context.Background()

	t.Run("ReadsJournalMostRecentFirst", func(t *testing.T) {
		f := newSettlementFixture(3)
		accountID := uuid.New()
		events := []*settlement.Event{
			{EventID: uuid.New(), AccountID: accountID, Amount: "550", FullySettled: true},
			{EventID: uuid.New(), AccountID: accountID, Amount: "400"},
		}
		f.journal.On("ListByAccount", ctx, accountID, 20).Return(events, nil).Once()

		got, err := f.service.History(ctx, accountID, 0)

		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "550", got[0].Amount)
		f.journal.AssertExpectations(t)
	})

	t.Run("EmptyTrailWithoutJournal", func(t *testing.T) {
		service := NewSettlementService(testLogger(), new(MockMonetaryAccountRepository),
			new(MockBankAccountRepository), new(MockCashFlowRepository), fakeTxRunner{}, nil, nil, 3)

		got, err := service.History(ctx, uuid.New(), 5)

		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
