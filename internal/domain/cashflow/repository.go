package cashflow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// ListFilters narrows List results. Zero values mean "no filter".
type ListFilters struct {
	CompanyID     uuid.UUID
	BankAccountID *uuid.UUID
	Direction     *shared.Direction
	CategoryID    *uuid.UUID
	Reconciled    *bool
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}

// PeriodTotals aggregates movements over a date range by direction
type PeriodTotals struct {
	Inflow  decimal.Decimal `json:"inflow"`
	Outflow decimal.Decimal `json:"outflow"`
	Net     decimal.Decimal `json:"net"`
}

// CategoryTotal is a per-category aggregate within a period
type CategoryTotal struct {
	CategoryID uuid.UUID       `json:"category_id"`
	Inflow     decimal.Decimal `json:"inflow"`
	Outflow    decimal.Decimal `json:"outflow"`
}

// Repository manages cash-flow journal persistence
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	Update(ctx context.Context, entry *Entry) error

	// Delete removes an entry unconditionally; the deletion cascade of a
	// monetary account uses DeleteByAccountID regardless of reconciliation.
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteByAccountID(ctx context.Context, accountID uuid.UUID) (int64, error)

	List(ctx context.Context, filters ListFilters) ([]*Entry, error)
	PeriodTotals(ctx context.Context, companyID uuid.UUID, from, to time.Time) (PeriodTotals, error)
	CategoryBreakdown(ctx context.Context, companyID uuid.UUID, from, to time.Time) ([]CategoryTotal, error)
	Unreconciled(ctx context.Context, companyID uuid.UUID) ([]*Entry, error)
	CountUnreconciled(ctx context.Context, companyID uuid.UUID) (int64, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates a missing cash-flow entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "cash-flow entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrEntryReconciled indicates an attempt to alter a reconciled entry
type ErrEntryReconciled struct {
	EntryID uuid.UUID
}

func (e ErrEntryReconciled) Error() string {
	return "cannot alter a reconciled movement: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryReconciled
func (e ErrEntryReconciled) Is(target error) bool {
	t, ok := target.(ErrEntryReconciled)
	if !ok {
		return false
	}
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}
