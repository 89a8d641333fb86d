package monetaryaccount

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
	Counterparty  string
	Status        *Status
	DueFrom       *time.Time
	DueTo         *time.Time
	Limit         int
	Offset        int
}

// OutstandingBuckets is the due-within-period breakdown used by reports:
// open totals as Σ(net − settled), the settled bucket as Σ settled.
type OutstandingBuckets struct {
	Pending decimal.Decimal `json:"pending"`
	Overdue decimal.Decimal `json:"overdue"`
	Settled decimal.Decimal `json:"settled"`
}

// Repository defines monetary account persistence operations. All methods
// are scoped to a Kind so payables and receivables never mix.
type Repository interface {
	Create(ctx context.Context, acc *Account) error
	GetByID(ctx context.Context, kind shared.AccountKind, id uuid.UUID) (*Account, error)

	// Update persists all mutable fields using optimistic locking on Version.
	// Returns ErrConcurrentModification if the row changed since it was read.
	Update(ctx context.Context, acc *Account) error

	Delete(ctx context.Context, kind shared.AccountKind, id uuid.UUID) error

	List(ctx context.Context, kind shared.AccountKind, filters ListFilters) ([]*Account, error)
	FindOverdue(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, today time.Time) ([]*Account, error)
	FindDueWithin(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, today time.Time, days int) ([]*Account, error)
	FindPending(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID) ([]*Account, error)
	SumOutstanding(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID) (decimal.Decimal, error)
	SumBuckets(ctx context.Context, kind shared.AccountKind, companyID uuid.UUID, from, to, today time.Time) (OutstandingBuckets, error)

	// LockForUpdate acquires a per-row pessimistic lock for the settlement
	// read-modify-write. Must be called inside a transaction.
	LockForUpdate(ctx context.Context, kind shared.AccountKind, id uuid.UUID) (*Account, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrAccountNotFound indicates a missing monetary account
type ErrAccountNotFound struct {
	AccountID uuid.UUID
}

func (e ErrAccountNotFound) Error() string {
	return "monetary account not found: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrAccountNotFound
func (e ErrAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrAccountNotFound)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// ErrInvalidState indicates an operation that is illegal for the account's
// current status, e.g. settling a cancelled account.
type ErrInvalidState struct {
	AccountID uuid.UUID
	Status    Status
	Operation string
}

func (e ErrInvalidState) Error() string {
	return "cannot " + e.Operation + " account " + e.AccountID.String() + " in status " + string(e.Status)
}

// Is implements the errors.Is interface for ErrInvalidState
func (e ErrInvalidState) Is(target error) bool {
	t, ok := target.(ErrInvalidState)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil && t.Status == "" && t.Operation == "" {
		return true
	}
	return e.AccountID == t.AccountID && e.Status == t.Status && e.Operation == t.Operation
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	AccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for monetary account: " + e.AccountID.String()
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID
}

// CascadeError indicates a failed step of the account deletion cascade.
// The whole deletion is rolled back when any step fails.
type CascadeError struct {
	AccountID uuid.UUID
	Step      string
	Err       error
}

func (e CascadeError) Error() string {
	return "deletion cascade failed at " + e.Step + " for account " + e.AccountID.String() + ": " + e.Err.Error()
}

func (e CascadeError) Unwrap() error {
	return e.Err
}
