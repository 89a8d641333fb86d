package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/clinic-finance-ledger/internal/domain/appointment"
	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/settlement"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTxRunner runs the function directly; the nil tx is fine because the
// repository mocks return themselves from WithTx.
type fakeTxRunner struct{}

func (fakeTxRunner) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type MockMonetaryAccountRepository struct {
	mock.Mock
}

func (m *MockMonetaryAccountRepository) Create(ctx context.Context, acc *monetaryaccount.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockMonetaryAccountRepository) GetByID(ctx context.Context, kind shared.AccountKind, id uuid.UUID) (*monetaryaccount.Account, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monetaryaccount.Account), args.Error(1)
}

func (m *MockMonetaryAccountRepository) Update(ctx context.Context, acc *monetaryaccount.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockMonetaryAccountRepository) Delete(ctx context.Context, kind shared.AccountKind, id uuid.UUID) error {
	args := m.Called(ctx, kind, id)
	return args.Error(0)
}

func (m *MockMonetaryAccountRepository) List(ctx context.Context, kind shared.AccountKind, filters monetaryaccount.ListFilters) ([]*monetaryaccount.Account, error) {
	args := m.Called(ctx, kind, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*monetaryaccount.Account), args.Error(1)
}

func (m *MockMonetaryAccountRepository) FindOverdue(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, today time.Time) ([]*monetaryaccount.Account, error) {
	args := m.Called(ctx, kind, companyID, today)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*monetaryaccount.Account), args.Error(1)
}

func (m *MockMonetaryAccountRepository) FindDueWithin(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, today time.Time, days int) ([]*monetaryaccount.Account, error) {
	args := m.Called(ctx, kind, companyID, today, days)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*monetaryaccount.Account), args.Error(1)
}

func (m *MockMonetaryAccountRepository) FindPending(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID) ([]*monetaryaccount.Account, error) {
	args := m.Called(ctx, kind, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*monetaryaccount.Account), args.Error(1)
}

func (m *MockMonetaryAccountRepository) SumOutstanding(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, kind, companyID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockMonetaryAccountRepository) SumBuckets(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, from, to, today time.Time) (monetaryaccount.OutstandingBuckets, error) {
	args := m.Called(ctx, kind, companyID, from, to, today)
	return args.Get(0).(monetaryaccount.OutstandingBuckets), args.Error(1)
}

func (m *MockMonetaryAccountRepository) LockForUpdate(ctx context.Context, kind shared.AccountKind, id uuid.UUID) (*monetaryaccount.Account, error) {
	args := m.Called(ctx, kind, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*monetaryaccount.Account), args.Error(1)
}

func (m *MockMonetaryAccountRepository) WithTx(tx pgx.Tx) monetaryaccount.Repository {
	return m
}

type MockBankAccountRepository struct {
	mock.Mock
}

func (m *MockBankAccountRepository) Create(ctx context.Context, acc *bankaccount.BankAccount) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockBankAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*bankaccount.BankAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankaccount.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) Update(ctx context.Context, acc *bankaccount.BankAccount) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockBankAccountRepository) ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, version int) error {
	args := m.Called(ctx, id, delta, version)
	return args.Error(0)
}

func (m *MockBankAccountRepository) SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *MockBankAccountRepository) ClearPrincipal(ctx context.Context, companyID uuid.UUID) error {
	args := m.Called(ctx, companyID)
	return args.Error(0)
}

func (m *MockBankAccountRepository) FindPrincipal(ctx context.Context, companyID uuid.UUID) (*bankaccount.BankAccount, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankaccount.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) List(ctx context.Context, filters bankaccount.ListFilters) ([]*bankaccount.BankAccount, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*bankaccount.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*bankaccount.BankAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bankaccount.BankAccount), args.Error(1)
}

func (m *MockBankAccountRepository) WithTx(tx pgx.Tx) bankaccount.Repository {
	return m
}

type MockCashFlowRepository struct {
	mock.Mock
}

func (m *MockCashFlowRepository) Create(ctx context.Context, entry *cashflow.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCashFlowRepository) GetByID(ctx context.Context, id uuid.UUID) (*cashflow.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cashflow.Entry), args.Error(1)
}

func (m *MockCashFlowRepository) Update(ctx context.Context, entry *cashflow.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCashFlowRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockCashFlowRepository) DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCashFlowRepository) List(ctx context.Context, filters cashflow.ListFilters) ([]*cashflow.Entry, error) {
	args := m.Called(ctx, filters)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cashflow.Entry), args.Error(1)
}

func (m *MockCashFlowRepository) PeriodTotals(ctx context.Context, companyID uuid.UUID, from, to time.Time) (cashflow.PeriodTotals, error) {
	args := m.Called(ctx, companyID, from, to)
	return args.Get(0).(cashflow.PeriodTotals), args.Error(1)
}

func (m *MockCashFlowRepository) CategoryBreakdown(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]cashflow.CategoryTotal, error) {
	args := m.Called(ctx, companyID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]cashflow.CategoryTotal), args.Error(1)
}

func (m *MockCashFlowRepository) Unreconciled(ctx context.Context, companyID uuid.UUID) ([]*cashflow.Entry, error) {
	args := m.Called(ctx, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*cashflow.Entry), args.Error(1)
}

func (m *MockCashFlowRepository) CountUnreconciled(ctx context.Context, companyID uuid.UUID) (int64, error) {
	args := m.Called(ctx, companyID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockCashFlowRepository) WithTx(tx pgx.Tx) cashflow.Repository {
	return m
}

type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) Link(ctx context.Context, accountID uuid.UUID, appointmentIDs []uuid.UUID) error {
	args := m.Called(ctx, accountID, appointmentIDs)
	return args.Error(0)
}

func (m *MockAppointmentRepository) IDsByAccount(ctx context.Context, accountID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]uuid.UUID), args.Error(1)
}

func (m *MockAppointmentRepository) DeleteLinksByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAppointmentRepository) MarkPaid(ctx context.Context, appointmentIDs []uuid.UUID) error {
	args := m.Called(ctx, appointmentIDs)
	return args.Error(0)
}

func (m *MockAppointmentRepository) ClearPaidFlag(ctx context.Context, appointmentIDs []uuid.UUID) error {
	args := m.Called(ctx, appointmentIDs)
	return args.Error(0)
}

func (m *MockAppointmentRepository) DemoteArchived(ctx context.Context, appointmentIDs []uuid.UUID) error {
	args := m.Called(ctx, appointmentIDs)
	return args.Error(0)
}

func (m *MockAppointmentRepository) WithTx(tx pgx.Tx) appointment.Repository {
	return m
}

type MockReferenceChecker struct {
	mock.Mock
}

func (m *MockReferenceChecker) CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, companyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockReferenceChecker) CategoryExists(ctx context.Context, categoryID uuid.UUID, kind shared.CategoryKind) (bool, error) {
	args := m.Called(ctx, categoryID, kind)
	return args.Bool(0), args.Error(1)
}

type MockSettlementHook struct {
	mock.Mock
}

func (m *MockSettlementHook) AfterSettlement(event *settlement.Event) {
	m.Called(event)
}

type MockSettlementJournal struct {
	mock.Mock
}

func (m *MockSettlementJournal) Append(ctx context.Context, event *settlement.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockSettlementJournal) ListByAccount(ctx context.Context, accountID uuid.UUID, limit int) ([]*settlement.Event, error) {
	args := m.Called(ctx, accountID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*settlement.Event), args.Error(1)
}
