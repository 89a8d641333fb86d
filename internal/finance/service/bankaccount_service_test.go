package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

type bankFixture struct {
	bankRepo     *MockBankAccountRepository
	cashFlowRepo *MockCashFlowRepository
	refs         *MockReferenceChecker
	service      BankAccountService
}

func newBankFixture() *bankFixture {
	f := &bankFixture{
		bankRepo:     new(MockBankAccountRepository),
		cashFlowRepo: new(MockCashFlowRepository),
		refs:         new(MockReferenceChecker),
	}
	f.service = NewBankAccountService(testLogger(), f.bankRepo, f.cashFlowRepo, f.refs, fakeTxRunner{})
	return f
}

func TestBankAccountServiceImpl_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("PrincipalDemotesPreviousOne", func(t *testing.T) {
		f := newBankFixture()
		companyID := uuid.New()

		f.refs.On("CompanyExists", ctx, companyID).Return(true, nil).Once()
		f.bankRepo.On("ClearPrincipal", ctx, companyID).Return(nil).Once()
		f.bankRepo.On("Create", ctx, mock.AnythingOfType("*bankaccount.BankAccount")).Return(nil).Once()

		acc, err := f.service.Create(ctx, CreateBankAccountParams{
			CompanyID:      companyID,
			Name:           "Conta Corrente",
			BankCode:       "001",
			Agency:         "1234",
			Number:         "56789-0",
			IsPrincipal:    true,
			OpeningBalance: dec("10000"),
		})

		require.NoError(t, err)
		assert.True(t, acc.IsPrincipal)
		assert.True(t, acc.CurrentBalance.Equal(dec("10000")))
		f.bankRepo.AssertExpectations(t)
	})

	t.Run("NonPrincipalSkipsDemotion", func(t *testing.T) {
		f := newBankFixture()
		companyID := uuid.New()

		f.refs.On("CompanyExists", ctx, companyID).Return(true, nil).Once()
		f.bankRepo.On("Create", ctx, mock.AnythingOfType("*bankaccount.BankAccount")).Return(nil).Once()

		_, err := f.service.Create(ctx, CreateBankAccountParams{
			CompanyID: companyID,
			Name:      "Conta Secundária",
		})

		require.NoError(t, err)
		f.bankRepo.AssertNotCalled(t, "ClearPrincipal", mock.Anything, mock.Anything)
	})

	t.Run("CompanyNotFound", func(t *testing.T) {
		f := newBankFixture()
		companyID := uuid.New()

		f.refs.On("CompanyExists", ctx, companyID).Return(false, nil).Once()

		_, err := f.service.Create(ctx, CreateBankAccountParams{CompanyID: companyID, Name: "Conta"})

		assert.ErrorIs(t, err, ErrCompanyNotFound{})
	})
}

func TestBankAccountServiceImpl_AdjustBalance(t *testing.T) {
	ctx := context.Background()

	newAccount := func(companyID uuid.UUID, balance string) *bankaccount.BankAccount {
		acc, _ := bankaccount.NewBankAccount(companyID, "Conta Principal", "341", "0001", "12345-6", true, dec(balance))
		return acc
	}

	t.Run("SetsBalanceWithoutJournalEntry", func(t *testing.T) {
		f := newBankFixture()
		acc := newAccount(uuid.New(), "1000")

		f.bankRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("SetBalance", ctx, acc.ID, dec("1250.50")).Return(nil).Once()

		adjusted, err := f.service.AdjustBalance(ctx, AdjustBalanceParams{
			BankAccountID: acc.ID,
			NewBalance:    dec("1250.50"),
		})

		require.NoError(t, err)
		assert.True(t, adjusted.CurrentBalance.Equal(dec("1250.50")))
		f.cashFlowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("JournalsDownwardCorrectionAsOutflow", func(t *testing.T) {
		f := newBankFixture()
		acc := newAccount(uuid.New(), "1000")
		categoryID := uuid.New()

		f.bankRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("SetBalance", ctx, acc.ID, dec("800")).Return(nil).Once()
		f.refs.On("CategoryExists", ctx, categoryID, shared.CategoryKindExpense).Return(true, nil).Once()
		f.cashFlowRepo.On("Create", ctx, mock.AnythingOfType("*cashflow.Entry")).Return(nil).Once()

		_, err := f.service.AdjustBalance(ctx, AdjustBalanceParams{
			BankAccountID: acc.ID,
			NewBalance:    dec("800"),
			CategoryID:    &categoryID,
		})

		require.NoError(t, err)
		entry := f.cashFlowRepo.Calls[0].Arguments.Get(1).(*cashflow.Entry)
		assert.Equal(t, shared.DirectionOut, entry.Direction)
		assert.True(t, entry.Amount.Equal(dec("200")))
		assert.Equal(t, categoryID, entry.CategoryID)
	})

	t.Run("UnknownCategoryRejected", func(t *testing.T) {
		f := newBankFixture()
		acc := newAccount(uuid.New(), "1000")
		categoryID := uuid.New()

		f.bankRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("SetBalance", ctx, acc.ID, dec("1200")).Return(nil).Once()
		f.refs.On("CategoryExists", ctx, categoryID, shared.CategoryKindRevenue).Return(false, nil).Once()

		_, err := f.service.AdjustBalance(ctx, AdjustBalanceParams{
			BankAccountID: acc.ID,
			NewBalance:    dec("1200"),
			CategoryID:    &categoryID,
		})

		assert.ErrorIs(t, err, ErrCategoryNotFound{})
		f.cashFlowRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("NoOpWhenBalanceUnchanged", func(t *testing.T) {
		f := newBankFixture()
		acc := newAccount(uuid.New(), "1000")

		f.bankRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()

		_, err := f.service.AdjustBalance(ctx, AdjustBalanceParams{
			BankAccountID: acc.ID,
			NewBalance:    dec("1000"),
		})

		require.NoError(t, err)
		f.bankRepo.AssertNotCalled(t, "SetBalance", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestBankAccountServiceImpl_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("PromotionClearsPreviousPrincipal", func(t *testing.T) {
		f := newBankFixture()
		acc, _ := bankaccount.NewBankAccount(uuid.New(), "Conta Secundária", "237", "0002", "9999-1", false, dec("0"))

		f.bankRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()
		f.bankRepo.On("ClearPrincipal", ctx, acc.CompanyID).Return(nil).Once()
		f.bankRepo.On("Update", ctx, acc).Return(nil).Once()

		principal := true
		updated, err := f.service.Update(ctx, acc.ID, UpdateBankAccountParams{IsPrincipal: &principal})

		require.NoError(t, err)
		assert.True(t, updated.IsPrincipal)
		f.bankRepo.AssertExpectations(t)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		f := newBankFixture()
		acc, _ := bankaccount.NewBankAccount(uuid.New(), "Conta", "237", "0002", "9999-1", false, dec("0"))

		f.bankRepo.On("LockForUpdate", ctx, acc.ID).Return(acc, nil).Once()

		name := ""
		_, err := f.service.Update(ctx, acc.ID, UpdateBankAccountParams{Name: &name})

		assert.ErrorIs(t, err, shared.ValidationError{})
	})
}
