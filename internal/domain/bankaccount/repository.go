package bankaccount

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ListFilters narrows List results
type ListFilters struct {
	CompanyID  uuid.UUID
	ActiveOnly bool
}

// Repository defines bank account persistence operations
type Repository interface {
	Create(ctx context.Context, acc *BankAccount) error
	GetByID(ctx context.Context, id uuid.UUID) (*BankAccount, error)
	Update(ctx context.Context, acc *BankAccount) error

	// ApplyDelta atomically moves the current balance by the signed amount
	// using optimistic locking on the version read alongside the balance.
	ApplyDelta(ctx context.Context, id uuid.UUID, delta decimal.Decimal, version int) error

	// SetBalance overwrites the current balance (explicit correction)
	SetBalance(ctx context.Context, id uuid.UUID, balance decimal.Decimal) error

	// ClearPrincipal unsets the principal flag on every account of the
	// company; used before promoting another account to principal.
	ClearPrincipal(ctx context.Context, companyID uuid.UUID) error

	FindPrincipal(ctx context.Context, companyID uuid.UUID) (*BankAccount, error)
	List(ctx context.Context, filters ListFilters) ([]*BankAccount, error)

	// LockForUpdate acquires a per-row pessimistic lock inside a transaction
	LockForUpdate(ctx context.Context, id uuid.UUID) (*BankAccount, error)

	WithTx(tx pgx.Tx) Repository
}

// ErrBankAccountNotFound indicates a missing bank account
type ErrBankAccountNotFound struct {
	BankAccountID uuid.UUID
}

func (e ErrBankAccountNotFound) Error() string {
	return "bank account not found: " + e.BankAccountID.String()
}

// Is implements the errors.Is interface for ErrBankAccountNotFound
func (e ErrBankAccountNotFound) Is(target error) bool {
	t, ok := target.(ErrBankAccountNotFound)
	if !ok {
		return false
	}
	if t.BankAccountID == uuid.Nil {
		return true
	}
	return e.BankAccountID == t.BankAccountID
}

// ErrConcurrentModification indicates optimistic lock failure on a balance move
type ErrConcurrentModification struct {
	BankAccountID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for bank account: " + e.BankAccountID.String()
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	if t.BankAccountID == uuid.Nil {
		return true
	}
	return e.BankAccountID == t.BankAccountID
}
