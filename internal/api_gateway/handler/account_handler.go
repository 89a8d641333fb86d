package handler

import (
	"errors"
	"io"
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/domain/monetaryaccount"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/finance/service"
)

// AccountHandler handles HTTP requests for one monetary account kind. The
// payable and receivable route groups share this handler with different
// service instances.
type AccountHandler struct {
	accountService service.AccountService
	kind           shared.AccountKind
	logger         *slog.Logger
}

// NewAccountHandler creates an account handler for the given kind
func NewAccountHandler(logger *slog.Logger, kind shared.AccountKind, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		kind:           kind,
		logger:         logger,
	}
}

// Create handles creation of a new payable or receivable
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	params, err := h.buildCreateParams(req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	acc, err := h.accountService.Create(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

func (h *AccountHandler) buildCreateParams(req CreateAccountRequest) (service.CreateAccountParams, error) {
	var params service.CreateAccountParams
	var err error

	if params.CompanyID, err = uuid.Parse(req.CompanyID); err != nil {
		return params, err
	}
	if params.CategoryID, err = uuid.Parse(req.CategoryID); err != nil {
		return params, err
	}
	if params.BankAccountID, err = optionalUUID(req.BankAccountID); err != nil {
		return params, err
	}
	if params.CreatedBy, err = uuid.Parse(req.CreatedBy); err != nil {
		return params, err
	}
	if params.Original, err = parseAmount("original", req.Original); err != nil {
		return params, err
	}
	if params.Discount, err = parseOptionalAmount("discount", req.Discount); err != nil {
		return params, err
	}
	if params.Interest, err = parseOptionalAmount("interest", req.Interest); err != nil {
		return params, err
	}
	if params.Penalty, err = parseOptionalAmount("penalty", req.Penalty); err != nil {
		return params, err
	}
	if params.IssueDate, err = parseDate(req.IssueDate); err != nil {
		return params, err
	}
	if params.DueDate, err = parseDate(req.DueDate); err != nil {
		return params, err
	}
	for _, raw := range req.AppointmentIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return params, err
		}
		params.AppointmentIDs = append(params.AppointmentIDs, id)
	}

	params.Counterparty = req.Counterparty
	params.Description = req.Description
	params.Notes = req.Notes
	params.Recurring = req.Recurring
	params.RecurrenceEvery = req.RecurrenceEvery
	return params, nil
}

// GetByID retrieves an account by its ID, returning 404 if not found
func (h *AccountHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	acc, err := h.accountService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Update applies a partial update to the account
func (h *AccountHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	patch, err := buildUpdatePatch(req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	acc, err := h.accountService.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

func buildUpdatePatch(req UpdateAccountRequest) (monetaryaccount.UpdatePatch, error) {
	var patch monetaryaccount.UpdatePatch

	updatedBy, err := uuid.Parse(req.UpdatedBy)
	if err != nil {
		return patch, err
	}
	patch.UpdatedBy = updatedBy

	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return patch, err
		}
		patch.CategoryID = &id
	}
	if req.BankAccountID != nil {
		id, err := uuid.Parse(*req.BankAccountID)
		if err != nil {
			return patch, err
		}
		patch.BankAccountID = &id
	}
	if req.Original != nil {
		d, err := parseAmount("original", *req.Original)
		if err != nil {
			return patch, err
		}
		patch.Original = &d
	}
	if req.Discount != nil {
		d, err := parseAmount("discount", *req.Discount)
		if err != nil {
			return patch, err
		}
		patch.Discount = &d
	}
	if req.Interest != nil {
		d, err := parseAmount("interest", *req.Interest)
		if err != nil {
			return patch, err
		}
		patch.Interest = &d
	}
	if req.Penalty != nil {
		d, err := parseAmount("penalty", *req.Penalty)
		if err != nil {
			return patch, err
		}
		patch.Penalty = &d
	}
	if req.IssueDate != nil {
		t, err := parseDate(*req.IssueDate)
		if err != nil {
			return patch, err
		}
		patch.IssueDate = &t
	}
	if req.DueDate != nil {
		t, err := parseDate(*req.DueDate)
		if err != nil {
			return patch, err
		}
		patch.DueDate = &t
	}

	patch.Counterparty = req.Counterparty
	patch.Description = req.Description
	patch.Notes = req.Notes
	patch.Recurring = req.Recurring
	patch.RecurrenceEvery = req.RecurrenceEvery
	return patch, nil
}

// Cancel marks the account cancelled; fully settled accounts return 409
func (h *AccountHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	// The body is optional; an absent reason still cancels
	var req CancelAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.Cancel(c.Request.Context(), id, req.Reason)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// Delete removes the account and its dependent records
func (h *AccountHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	if err := h.accountService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// List retrieves accounts filtered by the query parameters
func (h *AccountHandler) List(c *gin.Context) {
	filters, err := buildListFilters(c)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	accounts, err := h.accountService.List(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

func buildListFilters(c *gin.Context) (monetaryaccount.ListFilters, error) {
	var filters monetaryaccount.ListFilters

	if raw := c.Query("company_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, err
		}
		filters.CompanyID = id
	}
	if raw := c.Query("bank_account_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, err
		}
		filters.BankAccountID = &id
	}
	if raw := c.Query("status"); raw != "" {
		status := monetaryaccount.Status(raw)
		if !status.IsValid() {
			return filters, shared.ValidationError{Field: "status", Reason: "unknown status"}
		}
		filters.Status = &status
	}
	if raw := c.Query("due_from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.DueFrom = &t
	}
	if raw := c.Query("due_to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.DueTo = &t
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return filters, shared.ValidationError{Field: "limit", Reason: "must be a non-negative integer"}
		}
		filters.Limit = limit
	}
	if raw := c.Query("offset"); raw != "" {
		offset, err := strconv.Atoi(raw)
		if err != nil || offset < 0 {
			return filters, shared.ValidationError{Field: "offset", Reason: "must be a non-negative integer"}
		}
		filters.Offset = offset
	}

	filters.Counterparty = c.Query("counterparty")
	return filters, nil
}

// Overdue lists open accounts past their due date
func (h *AccountHandler) Overdue(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	accounts, err := h.accountService.FindOverdue(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

// Pending lists accounts still awaiting full settlement
func (h *AccountHandler) Pending(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	accounts, err := h.accountService.FindPending(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

// DueWithin lists open accounts due in the next N days (default 7)
func (h *AccountHandler) DueWithin(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	days := 7
	if raw := c.Query("days"); raw != "" {
		days, err = strconv.Atoi(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid days parameter")
			return
		}
	}

	accounts, err := h.accountService.FindDueWithin(c.Request.Context(), companyID, days)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountsToResponse(accounts))
}

// Outstanding returns the company's total open amount on this ledger side
func (h *AccountHandler) Outstanding(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	total, err := h.accountService.SumOutstanding(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, OutstandingResponse{
		CompanyID:   companyID.String(),
		Kind:        string(h.kind),
		Outstanding: total.String(),
	})
}
