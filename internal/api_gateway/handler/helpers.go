package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/finance/service"
)

const dateLayout = "2006-01-02"

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or RFC3339", value)
	}
	return t, nil
}

func parseAmount(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s %q", field, value)
	}
	return d, nil
}

// parseOptionalAmount treats the empty string as zero
func parseOptionalAmount(field, value string) (decimal.Decimal, error) {
	if value == "" {
		return decimal.Zero, nil
	}
	return parseAmount(field, value)
}

func optionalUUID(value string) (*uuid.UUID, error) {
	if value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// respondServiceError translates domain and service errors into HTTP
// responses: validation problems map to 400, missing resources to 404,
// lifecycle violations and lost version races to 409, cascade failures
// and everything unexpected to 500.
func respondServiceError(c *gin.Context, logger *slog.Logger, err error) {
	var validationErr shared.ValidationError
	if errors.As(err, &validationErr) {
		RespondBadRequest(c, validationErr.Error())
		return
	}

	switch {
	case errors.Is(err, monetaryaccount.ErrAccountNotFound{}):
		RespondNotFound(c, "Account not found")
		return
	case errors.Is(err, bankaccount.ErrBankAccountNotFound{}):
		RespondNotFound(c, "Bank account not found")
		return
	case errors.Is(err, cashflow.ErrEntryNotFound{}):
		RespondNotFound(c, "Cash flow entry not found")
		return
	case errors.Is(err, service.ErrCompanyNotFound{}):
		RespondNotFound(c, "Company not found")
		return
	case errors.Is(err, service.ErrCategoryNotFound{}):
		RespondNotFound(c, "Financial category not found")
		return
	}

	var invalidState monetaryaccount.ErrInvalidState
	if errors.As(err, &invalidState) {
		RespondConflict(c, invalidState.Error())
		return
	}
	if errors.Is(err, cashflow.ErrEntryReconciled{}) {
		RespondConflict(c, "Cash flow entry is already reconciled")
		return
	}
	if errors.Is(err, monetaryaccount.ErrConcurrentModification{}) ||
		errors.Is(err, bankaccount.ErrConcurrentModification{}) {
		RespondConflict(c, "The record was modified concurrently, please retry")
		return
	}

	var cascadeErr monetaryaccount.CascadeError
	if errors.As(err, &cascadeErr) {
		logger.Error("Deletion cascade failed",
			"account_id", cascadeErr.AccountID.String(),
			"step", cascadeErr.Step,
			"error", cascadeErr.Err)
		RespondInternalError(c)
		return
	}

	logger.Error("Unhandled service error", "error", err)
	RespondInternalError(c)
}

func mapAccountToResponse(acc *monetaryaccount.Account) AccountResponse {
	resp := AccountResponse{
		ID:              acc.ID.String(),
		CompanyID:       acc.CompanyID.String(),
		Kind:            string(acc.Kind),
		CategoryID:      acc.CategoryID.String(),
		Counterparty:    acc.Counterparty,
		Description:     acc.Description,
		Original:        acc.Original.String(),
		Discount:        acc.Discount.String(),
		Interest:        acc.Interest.String(),
		Penalty:         acc.Penalty.String(),
		Net:             acc.Net.String(),
		Settled:         acc.Settled.String(),
		Outstanding:     acc.Outstanding().String(),
		IssueDate:       acc.IssueDate.Format(dateLayout),
		DueDate:         acc.DueDate.Format(dateLayout),
		Method:          string(acc.Method),
		Status:          string(acc.Status),
		Notes:           acc.Notes,
		Recurring:       acc.Recurring,
		RecurrenceEvery: acc.RecurrenceEvery,
		CreatedAt:       acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       acc.UpdatedAt.Format(time.RFC3339),
	}
	if acc.BankAccountID != nil {
		resp.BankAccountID = acc.BankAccountID.String()
	}
	if acc.SettledOn != nil {
		resp.SettledOn = acc.SettledOn.Format(dateLayout)
	}
	return resp
}

func mapAccountsToResponse(accounts []*monetaryaccount.Account) AccountListResponse {
	list := AccountListResponse{Accounts: make([]AccountResponse, 0, len(accounts))}
	for _, acc := range accounts {
		list.Accounts = append(list.Accounts, mapAccountToResponse(acc))
	}
	return list
}

func mapEntryToResponse(entry *cashflow.Entry) EntryResponse {
	resp := EntryResponse{
		ID:            entry.ID.String(),
		CompanyID:     entry.CompanyID.String(),
		BankAccountID: entry.BankAccountID.String(),
		Direction:     string(entry.Direction),
		CategoryID:    entry.CategoryID.String(),
		Description:   entry.Description,
		Amount:        entry.Amount.String(),
		MovementDate:  entry.MovementDate.Format(dateLayout),
		Method:        string(entry.Method),
		Reconciled:    entry.Reconciled,
		CreatedAt:     entry.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     entry.UpdatedAt.Format(time.RFC3339),
	}
	if entry.AccountID != nil {
		resp.AccountID = entry.AccountID.String()
	}
	if entry.AccountKind != nil {
		resp.AccountKind = string(*entry.AccountKind)
	}
	if entry.ReconciliationAt != nil {
		resp.ReconciliationAt = entry.ReconciliationAt.Format(time.RFC3339)
	}
	return resp
}

func mapEntriesToResponse(entries []*cashflow.Entry) EntryListResponse {
	list := EntryListResponse{Entries: make([]EntryResponse, 0, len(entries))}
	for _, entry := range entries {
		list.Entries = append(list.Entries, mapEntryToResponse(entry))
	}
	return list
}

func mapBankAccountToResponse(acc *bankaccount.BankAccount) BankAccountResponse {
	return BankAccountResponse{
		ID:             acc.ID.String(),
		CompanyID:      acc.CompanyID.String(),
		Name:           acc.Name,
		BankCode:       acc.BankCode,
		Agency:         acc.Agency,
		Number:         acc.Number,
		IsPrincipal:    acc.IsPrincipal,
		Active:         acc.Active,
		OpeningBalance: acc.OpeningBalance.String(),
		CurrentBalance: acc.CurrentBalance.String(),
		CreatedAt:      acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      acc.UpdatedAt.Format(time.RFC3339),
	}
}
