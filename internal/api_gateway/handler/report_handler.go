package handler

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clinic-finance-ledger/internal/finance/service"
)

// ReportHandler handles the read-only aggregation endpoints
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Dashboard returns the period's totals, unreconciled count and category
// breakdown for a company.
func (h *ReportHandler) Dashboard(c *gin.Context) {
	companyID, from, to, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	dashboard, err := h.reportService.Dashboard(c.Request.Context(), companyID, from, to)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, dashboard)
}

// Report returns the dashboard plus the payable and receivable buckets
func (h *ReportHandler) Report(c *gin.Context) {
	companyID, from, to, ok := h.bindPeriod(c)
	if !ok {
		return
	}

	report, err := h.reportService.Report(c.Request.Context(), companyID, from, to)
	if err != nil {
		respondServiceError(c, h.logger, err)
		return
	}

	RespondOK(c, report)
}

func (h *ReportHandler) bindPeriod(c *gin.Context) (uuid.UUID, time.Time, time.Time, bool) {
	var params PeriodParams
	if err := c.ShouldBindQuery(&params); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return uuid.Nil, time.Time{}, time.Time{}, false
	}

	companyID, err := uuid.Parse(params.CompanyID)
	if err != nil {
		RespondBadRequest(c, "Invalid company ID")
		return uuid.Nil, time.Time{}, time.Time{}, false
	}
	from, err := parseDate(params.From)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return uuid.Nil, time.Time{}, time.Time{}, false
	}
	to, err := parseDate(params.To)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return uuid.Nil, time.Time{}, time.Time{}, false
	}

	return companyID, from, to, true
}
