package cashflow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// Entry is one monetary movement in the cash-flow journal. Entries are
// append-mostly: mutable only while unreconciled, frozen afterwards except
// for the deletion cascade of the owning monetary account.
type Entry struct {
	ID               uuid.UUID            `json:"id"`
	CompanyID        uuid.UUID            `json:"company_id"`
	BankAccountID    uuid.UUID            `json:"bank_account_id"`
	Direction        shared.Direction     `json:"direction"`
	CategoryID       uuid.UUID            `json:"category_id"`
	Description      string               `json:"description"`
	Amount           decimal.Decimal      `json:"amount"`
	MovementDate     time.Time            `json:"movement_date"`
	Method           shared.PaymentMethod `json:"method"`
	AccountID        *uuid.UUID           `json:"account_id,omitempty"` // linked payable or receivable
	AccountKind      *shared.AccountKind  `json:"account_kind,omitempty"`
	Reconciled       bool                 `json:"reconciled"`
	ReconciliationAt *time.Time           `json:"reconciliation_at,omitempty"`
	CreatedBy        uuid.UUID            `json:"created_by"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// NewEntryParams carries the caller-supplied fields for NewEntry
type NewEntryParams struct {
	CompanyID     uuid.UUID
	BankAccountID uuid.UUID
	Direction     shared.Direction
	CategoryID    uuid.UUID
	Description   string
	Amount        decimal.Decimal
	MovementDate  time.Time
	Method        shared.PaymentMethod
	AccountID     *uuid.UUID
	AccountKind   *shared.AccountKind
	CreatedBy     uuid.UUID
}

// NewEntry creates an unreconciled entry, validating direction and amount
func NewEntry(p NewEntryParams) (*Entry, error) {
	if !p.Direction.IsValid() {
		return nil, shared.ValidationError{Field: "direction", Reason: "must be IN or OUT"}
	}
	if !p.Amount.IsPositive() {
		return nil, shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}
	if (p.AccountID == nil) != (p.AccountKind == nil) {
		return nil, shared.ValidationError{Field: "account_id", Reason: "linked account requires both id and kind"}
	}

	now := time.Now()
	return &Entry{
		ID:            uuid.New(),
		CompanyID:     p.CompanyID,
		BankAccountID: p.BankAccountID,
		Direction:     p.Direction,
		CategoryID:    p.CategoryID,
		Description:   p.Description,
		Amount:        p.Amount,
		MovementDate:  p.MovementDate,
		Method:        p.Method,
		AccountID:     p.AccountID,
		AccountKind:   p.AccountKind,
		Reconciled:    false,
		CreatedBy:     p.CreatedBy,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// UpdatePatch carries optional entry field updates
type UpdatePatch struct {
	BankAccountID *uuid.UUID
	CategoryID    *uuid.UUID
	Description   *string
	Amount        *decimal.Decimal
	MovementDate  *time.Time
	Method        *shared.PaymentMethod
}

// ApplyPatch merges the patch into the entry. Reconciled entries are frozen.
func (e *Entry) ApplyPatch(p UpdatePatch) error {
	if e.Reconciled {
		return ErrEntryReconciled{EntryID: e.ID}
	}

	if p.Amount != nil {
		if !p.Amount.IsPositive() {
			return shared.ValidationError{Field: "amount", Reason: "must be positive"}
		}
		e.Amount = *p.Amount
	}
	if p.BankAccountID != nil {
		e.BankAccountID = *p.BankAccountID
	}
	if p.CategoryID != nil {
		e.CategoryID = *p.CategoryID
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.MovementDate != nil {
		e.MovementDate = *p.MovementDate
	}
	if p.Method != nil {
		e.Method = *p.Method
	}

	e.UpdatedAt = time.Now()
	return nil
}

// Reconcile marks the entry as verified against a bank statement, freezing
// it. Reconciling twice is an error.
func (e *Entry) Reconcile(at time.Time) error {
	if e.Reconciled {
		return ErrEntryReconciled{EntryID: e.ID}
	}

	e.Reconciled = true
	e.ReconciliationAt = &at
	e.UpdatedAt = time.Now()
	return nil
}
