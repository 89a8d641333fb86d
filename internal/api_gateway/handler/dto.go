package handler

// Amounts travel as JSON strings and are parsed into decimals at the
// boundary, so "199.90" survives the trip without float rounding.

// CreateAccountRequest represents a request to create a payable or receivable
type CreateAccountRequest struct {
	CompanyID       string   `json:"company_id" binding:"required,uuid"`
	CategoryID      string   `json:"category_id" binding:"required,uuid"`
	BankAccountID   string   `json:"bank_account_id,omitempty" binding:"omitempty,uuid"`
	Counterparty    string   `json:"counterparty" binding:"required"`
	Description     string   `json:"description" binding:"required"`
	Original        string   `json:"original" binding:"required"`
	Discount        string   `json:"discount,omitempty"`
	Interest        string   `json:"interest,omitempty"`
	Penalty         string   `json:"penalty,omitempty"`
	IssueDate       string   `json:"issue_date" binding:"required"`
	DueDate         string   `json:"due_date" binding:"required"`
	Notes           string   `json:"notes,omitempty"`
	Recurring       bool     `json:"recurring,omitempty"`
	RecurrenceEvery string   `json:"recurrence_every,omitempty" binding:"omitempty,oneof=WEEKLY MONTHLY YEARLY"`
	AppointmentIDs  []string `json:"appointment_ids,omitempty" binding:"omitempty,dive,uuid"`
	CreatedBy       string   `json:"created_by" binding:"required,uuid"`
}

// UpdateAccountRequest represents a partial update; absent fields are untouched
type UpdateAccountRequest struct {
	CategoryID      *string `json:"category_id,omitempty" binding:"omitempty,uuid"`
	BankAccountID   *string `json:"bank_account_id,omitempty" binding:"omitempty,uuid"`
	Counterparty    *string `json:"counterparty,omitempty"`
	Description     *string `json:"description,omitempty"`
	Original        *string `json:"original,omitempty"`
	Discount        *string `json:"discount,omitempty"`
	Interest        *string `json:"interest,omitempty"`
	Penalty         *string `json:"penalty,omitempty"`
	IssueDate       *string `json:"issue_date,omitempty"`
	DueDate         *string `json:"due_date,omitempty"`
	Notes           *string `json:"notes,omitempty"`
	Recurring       *bool   `json:"recurring,omitempty"`
	RecurrenceEvery *string `json:"recurrence_every,omitempty" binding:"omitempty,oneof=WEEKLY MONTHLY YEARLY"`
	UpdatedBy       string  `json:"updated_by" binding:"required,uuid"`
}

// CancelAccountRequest carries the optional cancellation reason
type CancelAccountRequest struct {
	Reason string `json:"reason,omitempty"`
}

// AccountResponse represents a payable or receivable in API responses
type AccountResponse struct {
	ID              string `json:"id"`
	CompanyID       string `json:"company_id"`
	Kind            string `json:"kind"`
	CategoryID      string `json:"category_id"`
	BankAccountID   string `json:"bank_account_id,omitempty"`
	Counterparty    string `json:"counterparty"`
	Description     string `json:"description"`
	Original        string `json:"original"`
	Discount        string `json:"discount"`
	Interest        string `json:"interest"`
	Penalty         string `json:"penalty"`
	Net             string `json:"net"`
	Settled         string `json:"settled"`
	Outstanding     string `json:"outstanding"`
	IssueDate       string `json:"issue_date"`
	DueDate         string `json:"due_date"`
	SettledOn       string `json:"settled_on,omitempty"`
	Method          string `json:"method,omitempty"`
	Status          string `json:"status"`
	Notes           string `json:"notes,omitempty"`
	Recurring       bool   `json:"recurring"`
	RecurrenceEvery string `json:"recurrence_every,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// SettleRequest represents a payment or receipt instruction
type SettleRequest struct {
	Amount        string `json:"amount" binding:"required"`
	SettledOn     string `json:"settled_on" binding:"required"`
	Method        string `json:"method" binding:"required,oneof=CASH CARD TRANSFER PIX BOLETO CHECK"`
	BankAccountID string `json:"bank_account_id" binding:"required,uuid"`
	Notes         string `json:"notes,omitempty"`
	RecordedBy    string `json:"recorded_by" binding:"required,uuid"`
}

// CreateEntryRequest represents a manually recorded cash-flow movement
type CreateEntryRequest struct {
	CompanyID     string `json:"company_id" binding:"required,uuid"`
	BankAccountID string `json:"bank_account_id" binding:"required,uuid"`
	Direction     string `json:"direction" binding:"required,oneof=IN OUT"`
	CategoryID    string `json:"category_id" binding:"required,uuid"`
	Description   string `json:"description" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	MovementDate  string `json:"movement_date" binding:"required"`
	Method        string `json:"method" binding:"required,oneof=CASH CARD TRANSFER PIX BOLETO CHECK"`
	CreatedBy     string `json:"created_by" binding:"required,uuid"`
}

// UpdateEntryRequest represents a partial cash-flow entry update
type UpdateEntryRequest struct {
	BankAccountID *string `json:"bank_account_id,omitempty" binding:"omitempty,uuid"`
	CategoryID    *string `json:"category_id,omitempty" binding:"omitempty,uuid"`
	Description   *string `json:"description,omitempty"`
	Amount        *string `json:"amount,omitempty"`
	MovementDate  *string `json:"movement_date,omitempty"`
	Method        *string `json:"method,omitempty" binding:"omitempty,oneof=CASH CARD TRANSFER PIX BOLETO CHECK"`
}

// ReconcileEntryRequest carries the optional reconciliation timestamp
type ReconcileEntryRequest struct {
	ReconciledAt string `json:"reconciled_at,omitempty"`
}

// EntryResponse represents a cash-flow entry in API responses
type EntryResponse struct {
	ID               string `json:"id"`
	CompanyID        string `json:"company_id"`
	BankAccountID    string `json:"bank_account_id"`
	Direction        string `json:"direction"`
	CategoryID       string `json:"category_id"`
	Description      string `json:"description"`
	Amount           string `json:"amount"`
	MovementDate     string `json:"movement_date"`
	Method           string `json:"method"`
	AccountID        string `json:"account_id,omitempty"`
	AccountKind      string `json:"account_kind,omitempty"`
	Reconciled       bool   `json:"reconciled"`
	ReconciliationAt string `json:"reconciliation_at,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// CreateBankAccountRequest represents a bank account registration
type CreateBankAccountRequest struct {
	CompanyID      string `json:"company_id" binding:"required,uuid"`
	Name           string `json:"name" binding:"required"`
	BankCode       string `json:"bank_code,omitempty"`
	Agency         string `json:"agency,omitempty"`
	Number         string `json:"number,omitempty"`
	IsPrincipal    bool   `json:"is_principal,omitempty"`
	OpeningBalance string `json:"opening_balance,omitempty"`
}

// UpdateBankAccountRequest represents a partial bank account update
type UpdateBankAccountRequest struct {
	Name        *string `json:"name,omitempty"`
	BankCode    *string `json:"bank_code,omitempty"`
	Agency      *string `json:"agency,omitempty"`
	Number      *string `json:"number,omitempty"`
	IsPrincipal *bool   `json:"is_principal,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// AdjustBalanceRequest represents an explicit balance correction
type AdjustBalanceRequest struct {
	NewBalance string `json:"new_balance" binding:"required"`
	CategoryID string `json:"category_id,omitempty" binding:"omitempty,uuid"`
	AdjustedBy string `json:"adjusted_by" binding:"required,uuid"`
}

// BankAccountResponse represents a bank account in API responses
type BankAccountResponse struct {
	ID             string `json:"id"`
	CompanyID      string `json:"company_id"`
	Name           string `json:"name"`
	BankCode       string `json:"bank_code,omitempty"`
	Agency         string `json:"agency,omitempty"`
	Number         string `json:"number,omitempty"`
	IsPrincipal    bool   `json:"is_principal"`
	Active         bool   `json:"active"`
	OpeningBalance string `json:"opening_balance"`
	CurrentBalance string `json:"current_balance"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

// AccountListResponse represents a list of payables or receivables
type AccountListResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

// EntryListResponse represents a list of cash-flow entries
type EntryListResponse struct {
	Entries []EntryResponse `json:"entries"`
}

// BankAccountListResponse represents a list of bank accounts
type BankAccountListResponse struct {
	BankAccounts []BankAccountResponse `json:"bank_accounts"`
}

// OutstandingResponse represents the total open amount of one ledger side
type OutstandingResponse struct {
	CompanyID   string `json:"company_id"`
	Kind        string `json:"kind"`
	Outstanding string `json:"outstanding"`
}

// PeriodParams represents the from/to query range shared by report endpoints
type PeriodParams struct {
	CompanyID string `form:"company_id" binding:"required,uuid"`
	From      string `form:"from" binding:"required"`
	To        string `form:"to" binding:"required"`
}
