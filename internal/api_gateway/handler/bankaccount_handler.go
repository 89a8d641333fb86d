package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/domain/bankaccount"
	"github.com/clinic-finance-ledger/internal/finance/service"
)

// BankAccountHandler handles HTTP requests for the bank account registry
type BankAccountHandler struct {
	bankAccountService service.BankAccountService
	logger             *slog.Logger
}

// NewBankAccountHandler creates a new bank account handler
func NewBankAccountHandler(logger *slog.Logger, bankAccountService service.BankAccountService) *BankAccountHandler {
	return &BankAccountHandler{
		bankAccountService: bankAccountService,
		logger:             logger,
	}
}

// Create registers a new bank account
func (h *BankAccountHandler) Create(c *gin.Context) {
	var req CreateBankAccountRequest
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
	openingBalance, err := parseOptionalAmount("opening_balance", req.OpeningBalance)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	acc, err := h.bankAccountService.Create(c.Request.Context(), service.CreateBankAccountParams{
		CompanyID:      companyID,
		Name:           req.Name,
		BankCode:       req.BankCode,
		Agency:         req.Agency,
		Number:         req.Number,
		IsPrincipal:    req.IsPrincipal,
		OpeningBalance: openingBalance,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondCreated(c, mapBankAccountToResponse(acc))
}

// GetByID retrieves a bank account by its ID
func (h *BankAccountHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid bank account ID")
		return
	}

	acc, err := h.bankAccountService.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBankAccountToResponse(acc))
}

// Update applies a partial update to the bank account
func (h *BankAccountHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid bank account ID")
		return
	}

	var req UpdateBankAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.bankAccountService.Update(c.Request.Context(), id, service.UpdateBankAccountParams{
		Name:        req.Name,
		BankCode:    req.BankCode,
		Agency:      req.Agency,
		Number:      req.Number,
		IsPrincipal: req.IsPrincipal,
		Active:      req.Active,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBankAccountToResponse(acc))
}

// AdjustBalance overwrites the current balance with an explicit correction
func (h *BankAccountHandler) AdjustBalance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid bank account ID")
		return
	}

	var req AdjustBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	newBalance, err := parseAmount("new_balance", req.NewBalance)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	categoryID, err := optionalUUID(req.CategoryID)
	if err != nil {
		RespondBadRequest(c, "Invalid category ID")
		return
	}
	adjustedBy, err := uuid.Parse(req.AdjustedBy)
	if err != nil {
		RespondBadRequest(c, "Invalid adjusted_by ID")
		return
	}

	acc, err := h.bankAccountService.AdjustBalance(c.Request.Context(), service.AdjustBalanceParams{
		BankAccountID: id,
		NewBalance:    newBalance,
		CategoryID:    categoryID,
		AdjustedBy:    adjustedBy,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBankAccountToResponse(acc))
}

// List retrieves the company's bank accounts, principal first
func (h *BankAccountHandler) List(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	activeOnly := false
	if raw := c.Query("active_only"); raw != "" {
		activeOnly, err = strconv.ParseBool(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid active_only parameter")
			return
		}
	}

	accounts, err := h.bankAccountService.List(c.Request.Context(), bankaccount.ListFilters{
		CompanyID:  companyID,
		ActiveOnly: activeOnly,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	list := BankAccountListResponse{BankAccounts: make([]BankAccountResponse, 0, len(accounts))}
	for _, acc := range accounts {
		list.BankAccounts = append(list.BankAccounts, mapBankAccountToResponse(acc))
	}
	RespondOK(c, list)
}

// Principal retrieves the company's active principal account
func (h *BankAccountHandler) Principal(c *gin.Context) {
	companyID, err := uuid.Parse(c.Query("company_id"))
	if err != nil {
		RespondBadRequest(c, "Invalid or missing company_id")
		return
	}

	acc, err := h.bankAccountService.FindPrincipal(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapBankAccountToResponse(acc))
}
