package handler

import (
	"errors"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/domain/cashflow"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/finance/service"
)

// CashFlowHandler handles HTTP requests for the movement journal
type CashFlowHandler struct {
	cashFlowService service.CashFlowService
	logger          *slog.Logger
}

// NewCashFlowHandler creates a new cash-flow handler
func NewCashFlowHandler(logger *slog.Logger, cashFlowService service.CashFlowService) *CashFlowHandler {
	return &CashFlowHandler{
		cashFlowService: cashFlowService,
		logger:          logger,
	}
}

// Create records a manual movement
func (h *CashFlowHandler) Create(c *gin.Context) {
	var req CreateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		RespondBadRequest(c, "Invalid company ID")
		return
	}
	bankAccountID, err := uuid.Parse(req.BankAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid bank account ID")
		return
	}
	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		RespondBadRequest(c, "Invalid category ID")
		return
	}
	createdBy, err := uuid.Parse(req.CreatedBy)
	if err != nil {
		RespondBadRequest(c, "Invalid created_by ID")
		return
	}
	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	movementDate, err := parseDate(req.MovementDate)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entry, err := h.cashFlowService.Create(c.Request.Context(), service.CreateEntryParams{
		CompanyID:     companyID,
		BankAccountID: bankAccountID,
		Direction:     shared.Direction(req.Direction),
		CategoryID:    categoryID,
		Description:   req.Description,
		Amount:        amount,
		MovementDate:  movementDate,
		Method:        shared.PaymentMethod(req.Method),
		CreatedBy:     createdBy,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

// GetByID retrieves a cash-flow entry by its ID
func (h *CashFlowHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	entry, err := h.cashFlowService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// Delete removes an unreconciled entry; reconciled entries return 409
func (h *CashFlowHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	if err := h.cashFlowService.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondNoContent(c)
}

// Update applies a partial update; reconciled entries return 409
func (h *CashFlowHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	var req UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	patch, err := buildEntryPatch(req)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entry, err := h.cashFlowService.Update(c.Request.Context(), id, patch)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

func buildEntryPatch(req UpdateEntryRequest) (cashflow.UpdatePatch, error) {
	var patch cashflow.UpdatePatch

	if req.BankAccountID != nil {
		id, err := uuid.Parse(*req.BankAccountID)
		if err != nil {
			return patch, err
		}
		patch.BankAccountID = &id
	}
	if req.CategoryID != nil {
		id, err := uuid.Parse(*req.CategoryID)
		if err != nil {
			return patch, err
		}
		patch.CategoryID = &id
	}
	if req.Amount != nil {
		d, err := parseAmount("amount", *req.Amount)
		if err != nil {
			return patch, err
		}
		patch.Amount = &d
	}
	if req.MovementDate != nil {
		t, err := parseDate(*req.MovementDate)
		if err != nil {
			return patch, err
		}
		patch.MovementDate = &t
	}
	if req.Method != nil {
		method := shared.PaymentMethod(*req.Method)
		patch.Method = &method
	}

	patch.Description = req.Description
	return patch, nil
}

// Reconcile marks the entry as verified against a bank statement
func (h *CashFlowHandler) Reconcile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid entry ID")
		return
	}

	// The body is optional; an absent timestamp reconciles at now
	var req ReconcileEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var at *time.Time
	if req.ReconciledAt != "" {
		t, err := parseDate(req.ReconciledAt)
		if err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
		at = &t
	}

	entry, err := h.cashFlowService.Reconcile(c.Request.Context(), id, at)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEntryToResponse(entry))
}

// List retrieves entries filtered by the query parameters
func (h *CashFlowHandler) List(c *gin.Context) {
	filters, err := buildEntryListFilters(c)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	entries, err := h.cashFlowService.List(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEntriesToResponse(entries))
}

func buildEntryListFilters(c *gin.Context) (cashflow.ListFilters, error) {
	var filters cashflow.ListFilters

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
	if raw := c.Query("direction"); raw != "" {
		direction := shared.Direction(raw)
		if !direction.IsValid() {
			return filters, shared.ValidationError{Field: "direction", Reason: "must be IN or OUT"}
		}
		filters.Direction = &direction
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, err
		}
		filters.CategoryID = &id
	}
	if raw := c.Query("reconciled"); raw != "" {
		reconciled, err := strconv.ParseBool(raw)
		if err != nil {
			return filters, shared.ValidationError{Field: "reconciled", Reason: "must be a boolean"}
		}
		filters.Reconciled = &reconciled
	}
	if raw := c.Query("from"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.From = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := parseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.To = &t
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

	return filters, nil
}

// Unreconciled lists entries not yet verified against a statement
func (h *CashFlowHandler) Unreconciled(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	entries, err := h.cashFlowService.Unreconciled(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapEntriesToResponse(entries))
}
