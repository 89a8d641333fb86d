package bankaccount

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/shared"
)

// BankAccount holds a company's bank account and its materialized running
// balance. The balance is only ever moved by settlements and explicit
// corrections, never recomputed from history on read.
type BankAccount struct {
	ID             uuid.UUID       `json:"id"`
	CompanyID      uuid.UUID       `json:"company_id"`
	Name           string          `json:"name"`
	BankCode       string          `json:"bank_code"`
	Agency         string          `json:"agency"`
	Number         string          `json:"number"`
	IsPrincipal    bool            `json:"is_principal"`
	Active         bool            `json:"active"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Version        int             `json:"version"` // For optimistic locking
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// NewBankAccount creates an active bank account whose current balance
// starts at the opening balance.
func NewBankAccount(companyID uuid.UUID, name, bankCode, agency, number string, isPrincipal bool, openingBalance decimal.Decimal) (*BankAccount, error) {
	if name == "" {
		return nil, shared.ValidationError{Field: "name", Reason: "must not be empty"}
	}

	now := time.Now()
	return &BankAccount{
		ID:             uuid.New(),
		CompanyID:      companyID,
		Name:           name,
		BankCode:       bankCode,
		Agency:         agency,
		Number:         number,
		IsPrincipal:    isPrincipal,
		Active:         true,
		OpeningBalance: openingBalance,
		CurrentBalance: openingBalance,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// ApplyDelta moves the current balance by the given signed amount
func (b *BankAccount) ApplyDelta(delta decimal.Decimal) {
	b.CurrentBalance = b.CurrentBalance.Add(delta)
	b.UpdatedAt = time.Now()
	b.Version++
}
