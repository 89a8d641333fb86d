package handler

import (
	"log/slog"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/api_gateway/middleware"
	"github.com/clinic-finance-ledger/internal/domain/shared"
	"github.com/clinic-finance-ledger/internal/finance/service"
)

// SettlementHandler handles payment and receipt recording
type SettlementHandler struct {
	settlementService service.SettlementService
	kind              shared.AccountKind
	logger            *slog.Logger
}

// NewSettlementHandler creates a settlement handler for the given kind
func NewSettlementHandler(logger *slog.Logger, kind shared.AccountKind, settlementService service.SettlementService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		kind:              kind,
		logger:            logger,
	}
}

// Settle records a payment against a payable or a receipt against a
// receivable. The account, the cash-flow entry and the bank balance move in
// one transaction; a 409 means the settlement lost its retries to
// concurrent writers and can simply be resubmitted.
func (h *SettlementHandler) Settle(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	var req SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	settledOn, err := parseDate(req.SettledOn)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}
	bankAccountID, err := uuid.Parse(req.BankAccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid bank account ID")
		return
	}
	recordedBy, err := uuid.Parse(req.RecordedBy)
	if err != nil {
		RespondBadRequest(c, "Invalid recorded_by ID")
		return
	}

	acc, err := h.settlementService.Settle(c.Request.Context(), service.SettleParams{
		AccountID:     accountID,
		Kind:          h.kind,
		Amount:        amount,
		SettledOn:     settledOn,
		Method:        shared.PaymentMethod(req.Method),
		BankAccountID: bankAccountID,
		Notes:         req.Notes,
		CorrelationID: middleware.GetCorrelationID(c),
		RecordedBy:    recordedBy,
	})
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// History returns the account's settlement trail from the journal, most
// recent first. The trail is written asynchronously after commit, so a
// settlement recorded moments ago may not appear yet.
func (h *SettlementHandler) History(c *gin.Context) {
	accountID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			RespondBadRequest(c, "Invalid limit: must be a non-negative integer")
			return
		}
	}

	events, err := h.settlementService.History(c.Request.Context(), accountID, limit)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, events)
}
