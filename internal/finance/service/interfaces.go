// Package service implements the ledger core use cases: payable and
// receivable lifecycles, the settlement workflow, the cash-flow journal,
// the bank account registry, and the read-only reports. Services hold no
// state beyond their wired dependencies; every multi-record mutation runs
// inside one database transaction.
package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/settlement"
	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// TxRunner runs a function inside one database transaction, rolling back
// on error or panic. Satisfied by *persistence.PostgresDB.
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// ReferenceChecker answers existence checks against records owned by the
// surrounding system (companies, financial categories).
type ReferenceChecker interface {
	CompanyExists(ctx context.Context, companyID uuid.UUID) (bool, error)
	CategoryExists(ctx context.Context, categoryID uuid.UUID, kind shared.CategoryKind) (bool, error)
}

// SettlementHook receives events after a settlement has committed.
// Implementations must never fail the caller; delivery is best-effort.
type SettlementHook interface {
	AfterSettlement(event *settlement.Event)
}

// CreateAccountParams carries the fields for creating a payable or receivable
type CreateAccountParams struct {
	CompanyID       uuid.UUID
	CategoryID      uuid.UUID
	BankAccountID   *uuid.UUID
	Counterparty    string
	Description     string
	Original        decimal.Decimal
	Discount        decimal.Decimal
	Interest        decimal.Decimal
	Penalty         decimal.Decimal
	IssueDate       time.Time
	DueDate         time.Time
	Notes           string
	Recurring       bool
	RecurrenceEvery string
	AppointmentIDs  []uuid.UUID
	CreatedBy       uuid.UUID
}

// AccountService manages the lifecycle of one account kind. There are two
// instances: one for payables, one for receivables.
type AccountService interface {
	Create(ctx context.Context, params CreateAccountParams) (*monetaryaccount.Account, error)
	Get(ctx context.Context, id uuid.UUID) (*monetaryaccount.Account, error)
	Update(ctx context.Context, id uuid.UUID, patch monetaryaccount.UpdatePatch) (*monetaryaccount.Account, error)
	Cancel(ctx context.Context, id uuid.UUID, reason string) (*monetaryaccount.Account, error)

	// Delete removes a non-settled account together with its appointment
	// links and cash-flow entries, all-or-nothing.
	Delete(ctx context.Context, id uuid.UUID) error

	List(ctx context.Context, filters monetaryaccount.ListFilters) ([]*monetaryaccount.Account, error)
	FindOverdue(ctx context.Context, companyID uuid.UUID) ([]*monetaryaccount.Account, error)
	FindDueWithin(ctx context.Context, companyID uuid.UUID, days int) ([]*monetaryaccount.Account, error)
	FindPending(ctx context.Context, companyID uuid.UUID) ([]*monetaryaccount.Account, error)
	SumOutstanding(ctx context.Context, companyID uuid.UUID) (decimal.Decimal, error)
}

// SettleParams carries one payment or receipt instruction
type SettleParams struct {
	AccountID     uuid.UUID
	Kind          shared.AccountKind
	Amount        decimal.Decimal
	SettledOn     time.Time
	Method        shared.PaymentMethod
	BankAccountID uuid.UUID
	Notes         string
	CorrelationID string
	RecordedBy    uuid.UUID
}

// SettlementService records payments and receipts. It is the only
// component that mutates more than one ledger per operation.
type SettlementService interface {
	Settle(ctx context.Context, params SettleParams) (*monetaryaccount.Account, error)

	// History reads the account's settlement trail from the journal,
	// most recent first.
	History(ctx context.Context, accountID uuid.UUID, limit int) ([]*settlement.Event, error)
}

// CreateEntryParams carries the fields for a manually recorded movement
type CreateEntryParams struct {
	CompanyID     uuid.UUID
	BankAccountID uuid.UUID
	Direction     shared.Direction
	CategoryID    uuid.UUID
	Description   string
	Amount        decimal.Decimal
	MovementDate  time.Time
	Method        shared.PaymentMethod
	CreatedBy     uuid.UUID
}

// CashFlowService manages the movement journal
type CashFlowService interface {
	Create(ctx context.Context, params CreateEntryParams) (*cashflow.Entry, error)
	Get(ctx context.Context, id uuid.UUID) (*cashflow.Entry, error)
	Update(ctx context.Context, id uuid.UUID, patch cashflow.UpdatePatch) (*cashflow.Entry, error)
	Reconcile(ctx context.Context, id uuid.UUID, at *time.Time) (*cashflow.Entry, error)
	// Delete removes a manual entry. Reconciled entries are frozen and
	// can only disappear through the account deletion cascade.
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filters cashflow.ListFilters) ([]*cashflow.Entry, error)
	PeriodTotals(ctx context.Context, companyID uuid.UUID, from, to time.Time) (cashflow.PeriodTotals, error)
	Unreconciled(ctx context.Context, companyID uuid.UUID) ([]*cashflow.Entry, error)
}

// CreateBankAccountParams carries the fields for registering a bank account
type CreateBankAccountParams struct {
	CompanyID      uuid.UUID
	Name           string
	BankCode       string
	Agency         string
	Number         string
	IsPrincipal    bool
	OpeningBalance decimal.Decimal
}

// UpdateBankAccountParams carries optional bank account field updates
type UpdateBankAccountParams struct {
	Name        *string
	BankCode    *string
	Agency      *string
	Number      *string
	IsPrincipal *bool
	Active      *bool
}

// AdjustBalanceParams carries an explicit balance correction. When
// CategoryID is set the correction is also recorded as a manual cash-flow
// entry so the journal stays coherent with the materialized balance.
type AdjustBalanceParams struct {
	BankAccountID uuid.UUID
	NewBalance    decimal.Decimal
	CategoryID    *uuid.UUID
	AdjustedBy    uuid.UUID
}

// BankAccountService manages the bank account registry
type BankAccountService interface {
	Create(ctx context.Context, params CreateBankAccountParams) (*bankaccount.BankAccount, error)
	Get(ctx context.Context, id uuid.UUID) (*bankaccount.BankAccount, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateBankAccountParams) (*bankaccount.BankAccount, error)
	AdjustBalance(ctx context.Context, params AdjustBalanceParams) (*bankaccount.BankAccount, error)
	FindPrincipal(ctx context.Context, companyID uuid.UUID) (*bankaccount.BankAccount, error)
	List(ctx context.Context, filters bankaccount.ListFilters) ([]*bankaccount.BankAccount, error)
}

// Dashboard aggregates the period's movements for a company
type Dashboard struct {
	Totals            cashflow.PeriodTotals    `json:"totals"`
	UnreconciledCount int64                    `json:"unreconciled_count"`
	Categories        []cashflow.CategoryTotal `json:"categories"`
}

// Report extends the dashboard with payable/receivable due-date buckets
type Report struct {
	Dashboard
	Payables    monetaryaccount.OutstandingBuckets `json:"payables"`
	Receivables monetaryaccount.OutstandingBuckets `json:"receivables"`
}

// ReportService provides read-only aggregation over the three ledgers
type ReportService interface {
	Dashboard(ctx context.Context, companyID uuid.UUID, from, to time.Time) (*Dashboard, error)
	Report(ctx context.Context, companyID uuid.UUID, from, to time.Time) (*Report, error)
}
