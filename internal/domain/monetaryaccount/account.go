package monetaryaccount

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// Status is the lifecycle state of a monetary account. It is derived from
// (settled, net, cancelled) by DeriveStatus and never set directly, except
// by cancellation which is terminal.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusPartial   Status = "PARTIAL"
	StatusSettled   Status = "SETTLED"
	StatusCancelled Status = "CANCELLED"
)

// IsValid reports whether the status is one of the known values
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusSettled, StatusCancelled:
		return true
	}
	return false
}

// Account represents money owed by the clinic (payable) or owed to the
// clinic (receivable). Which side it sits on is fixed at creation by Kind.
type Account struct {
	ID            uuid.UUID            `json:"id"`
	CompanyID     uuid.UUID            `json:"company_id"`
	Kind          shared.AccountKind   `json:"kind"`
	CategoryID    uuid.UUID            `json:"category_id"`
	BankAccountID *uuid.UUID           `json:"bank_account_id,omitempty"`
	Counterparty  string               `json:"counterparty"`
	Description   string               `json:"description"`
	Original      decimal.Decimal      `json:"original"`
	Discount      decimal.Decimal      `json:"discount"`
	Interest      decimal.Decimal      `json:"interest"`
	Penalty       decimal.Decimal      `json:"penalty"`
	Net           decimal.Decimal      `json:"net"`
	Settled       decimal.Decimal      `json:"settled"`
	IssueDate     time.Time            `json:"issue_date"`
	DueDate       time.Time            `json:"due_date"`
	SettledOn     *time.Time           `json:"settled_on,omitempty"`
	Method        shared.PaymentMethod `json:"method,omitempty"`
	Status        Status               `json:"status"`
	Notes         string               `json:"notes,omitempty"`
	Recurring     bool                 `json:"recurring"`
	RecurrenceEvery string             `json:"recurrence_every,omitempty"` // e.g. MONTHLY, YEARLY
	CreatedBy     uuid.UUID            `json:"created_by"`
	UpdatedBy     uuid.UUID            `json:"updated_by"`
	Version       int                  `json:"version"` // For optimistic locking
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// NewAccountParams carries the caller-supplied fields for NewAccount
type NewAccountParams struct {
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
	CreatedBy       uuid.UUID
}

// ComputeNet returns original − discount + interest + penalty
func ComputeNet(original, discount, interest, penalty decimal.Decimal) decimal.Decimal {
	return original.Sub(discount).Add(interest).Add(penalty)
}

// DeriveStatus is the single source of truth for the account status.
// Cancellation is terminal and wins over any arithmetic state.
func DeriveStatus(settled, net decimal.Decimal, cancelled bool) Status {
	switch {
	case cancelled:
		return StatusCancelled
	case settled.GreaterThanOrEqual(net):
		return StatusSettled
	case settled.IsPositive():
		return StatusPartial
	default:
		return StatusPending
	}
}

// NewAccount creates a pending account of the given kind, validating the
// amount invariants: original > 0, adjustments non-negative, net > 0.
func NewAccount(kind shared.AccountKind, p NewAccountParams) (*Account, error) {
	if !p.Original.IsPositive() {
		return nil, shared.ValidationError{Field: "original", Reason: "must be positive"}
	}
	for _, f := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"discount", p.Discount},
		{"interest", p.Interest},
		{"penalty", p.Penalty},
	} {
		if f.value.IsNegative() {
			return nil, shared.ValidationError{Field: f.name, Reason: "must not be negative"}
		}
	}

	net := ComputeNet(p.Original, p.Discount, p.Interest, p.Penalty)
	if !net.IsPositive() {
		return nil, shared.ValidationError{Field: "net", Reason: "must be positive"}
	}

	now := time.Now()
	return &Account{
		ID:              uuid.New(),
		CompanyID:       p.CompanyID,
		Kind:            kind,
		CategoryID:      p.CategoryID,
		BankAccountID:   p.BankAccountID,
		Counterparty:    p.Counterparty,
		Description:     p.Description,
		Original:        p.Original,
		Discount:        p.Discount,
		Interest:        p.Interest,
		Penalty:         p.Penalty,
		Net:             net,
		Settled:         decimal.Zero,
		IssueDate:       p.IssueDate,
		DueDate:         p.DueDate,
		Status:          StatusPending,
		Notes:           p.Notes,
		Recurring:       p.Recurring,
		RecurrenceEvery: p.RecurrenceEvery,
		CreatedBy:       p.CreatedBy,
		UpdatedBy:       p.CreatedBy,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// UpdatePatch carries optional field updates. Nil pointers leave the
// existing value untouched; amount fields trigger a net recomputation.
type UpdatePatch struct {
	CategoryID      *uuid.UUID
	BankAccountID   *uuid.UUID
	Counterparty    *string
	Description     *string
	Original        *decimal.Decimal
	Discount        *decimal.Decimal
	Interest        *decimal.Decimal
	Penalty         *decimal.Decimal
	IssueDate       *time.Time
	DueDate         *time.Time
	Notes           *string
	Recurring       *bool
	RecurrenceEvery *string
	UpdatedBy       uuid.UUID
}

func (p UpdatePatch) touchesAmounts() bool {
	return p.Original != nil || p.Discount != nil || p.Interest != nil || p.Penalty != nil
}

// ApplyPatch merges the patch into the account. When any amount field is
// present the net is recomputed from the merged values. Amounts are frozen
// once settlement has begun or the account left the PENDING state.
func (a *Account) ApplyPatch(p UpdatePatch) error {
	if p.touchesAmounts() {
		if a.Status == StatusCancelled || a.Status == StatusSettled {
			return ErrInvalidState{AccountID: a.ID, Status: a.Status, Operation: "update amounts"}
		}
		if a.Settled.IsPositive() {
			return ErrInvalidState{AccountID: a.ID, Status: a.Status, Operation: "update amounts"}
		}

		original := a.Original
		discount := a.Discount
		interest := a.Interest
		penalty := a.Penalty
		if p.Original != nil {
			original = *p.Original
		}
		if p.Discount != nil {
			discount = *p.Discount
		}
		if p.Interest != nil {
			interest = *p.Interest
		}
		if p.Penalty != nil {
			penalty = *p.Penalty
		}

		if !original.IsPositive() {
			return shared.ValidationError{Field: "original", Reason: "must be positive"}
		}
		if discount.IsNegative() || interest.IsNegative() || penalty.IsNegative() {
			return shared.ValidationError{Field: "amounts", Reason: "adjustments must not be negative"}
		}
		net := ComputeNet(original, discount, interest, penalty)
		if !net.IsPositive() {
			return shared.ValidationError{Field: "net", Reason: "must be positive"}
		}

		a.Original = original
		a.Discount = discount
		a.Interest = interest
		a.Penalty = penalty
		a.Net = net
	}

	if p.CategoryID != nil {
		a.CategoryID = *p.CategoryID
	}
	if p.BankAccountID != nil {
		a.BankAccountID = p.BankAccountID
	}
	if p.Counterparty != nil {
		a.Counterparty = *p.Counterparty
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.IssueDate != nil {
		a.IssueDate = *p.IssueDate
	}
	if p.DueDate != nil {
		a.DueDate = *p.DueDate
	}
	if p.Notes != nil {
		a.Notes = *p.Notes
	}
	if p.Recurring != nil {
		a.Recurring = *p.Recurring
	}
	if p.RecurrenceEvery != nil {
		a.RecurrenceEvery = *p.RecurrenceEvery
	}
	if p.UpdatedBy != uuid.Nil {
		a.UpdatedBy = p.UpdatedBy
	}

	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// RecordSettlement applies a payment (payable) or receipt (receivable) to
// the account and re-derives the status. The settlement date is stamped
// only when the account becomes fully settled.
func (a *Account) RecordSettlement(amount decimal.Decimal, on time.Time, method shared.PaymentMethod) error {
	switch a.Status {
	case StatusSettled:
		return ErrInvalidState{AccountID: a.ID, Status: a.Status, Operation: "settle"}
	case StatusCancelled:
		return ErrInvalidState{AccountID: a.ID, Status: a.Status, Operation: "settle"}
	}

	if !amount.IsPositive() {
		return shared.ValidationError{Field: "amount", Reason: "must be positive"}
	}

	newSettled := a.Settled.Add(amount)
	if newSettled.GreaterThan(a.Net) {
		return shared.ValidationError{Field: "amount", Reason: "settlement cannot exceed net amount"}
	}

	a.Settled = newSettled
	a.Status = DeriveStatus(a.Settled, a.Net, false)
	a.Method = method
	if a.Status == StatusSettled {
		settledOn := on
		a.SettledOn = &settledOn
	}
	a.UpdatedAt = time.Now()
	a.Version++
	return nil
}

// Cancel marks the account cancelled, recording the reason in the notes
// with a timestamped marker. Fully settled accounts cannot be cancelled.
func (a *Account) Cancel(reason string) error {
	if a.Status == StatusSettled {
		return ErrInvalidState{AccountID: a.ID, Status: a.Status, Operation: "cancel"}
	}
	if a.Status == StatusCancelled {
		return ErrInvalidState{AccountID: a.ID, Status: a.Status, Operation: "cancel"}
	}

	now := time.Now()
	if reason != "" {
		marker := fmt.Sprintf("[cancelled %s] %s", now.Format("2006-01-02 15:04"), reason)
		if a.Notes != "" {
			a.Notes += "\n"
		}
		a.Notes += marker
	}

	a.Status = StatusCancelled
	a.UpdatedAt = now
	a.Version++
	return nil
}

// Outstanding returns net − settled, the amount still open on the account
func (a *Account) Outstanding() decimal.Decimal {
	return a.Net.Sub(a.Settled)
}

// IsOverdue reports whether the account is past due and still open
func (a *Account) IsOverdue(today time.Time) bool {
	if a.Status != StatusPending && a.Status != StatusPartial {
		return false
	}
	return a.DueDate.Before(today)
}

// Direction returns the cash-flow direction a settlement of this account
// produces: OUT for payables, IN for receivables.
func (a *Account) Direction() shared.Direction {
	if a.Kind == shared.AccountKindPayable {
		return shared.DirectionOut
	}
	return shared.DirectionIn
}
