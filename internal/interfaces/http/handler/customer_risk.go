package handler

import (
	"context"
	"fmt"
	"net/http"

	riskapp "github.com/erp/customer-risk/internal/application/risk"
	"github.com/erp/customer-risk/internal/domain/risk"
	"github.com/erp/customer-risk/internal/interfaces/http/dto"
	"github.com/erp/customer-risk/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReportService is the application service behind the customer risk API
type ReportService interface {
	Generate(ctx context.Context, input riskapp.GenerateInput) (*risk.Report, error)
	Recompute(ctx context.Context, id uuid.UUID) (*risk.Report, error)
	Get(ctx context.Context, id uuid.UUID) (*risk.Report, error)
	Delete(ctx context.Context, id uuid.UUID) error
	PendingLines(ctx context.Context, id, customerID uuid.UUID) ([]risk.SalesOrderLine, error)
	LedgerEntries(ctx context.Context, id, customerID uuid.UUID) ([]risk.LedgerEntry, error)
	Cheques(ctx context.Context, id, customerID uuid.UUID) ([]risk.Payment, error)
	Export(ctx context.Context, id uuid.UUID, format string) (*riskapp.ExportFile, error)
	Attach(ctx context.Context, id uuid.UUID, format string) (*riskapp.Attachment, error)
}

// CustomerRiskHandler serves /reports/customer-risk
type CustomerRiskHandler struct {
	BaseHandler
	service ReportService
}

// NewCustomerRiskHandler creates a new CustomerRiskHandler
func NewCustomerRiskHandler(service ReportService) *CustomerRiskHandler {
	return &CustomerRiskHandler{service: service}
}

// RegisterRoutes registers the customer risk routes
func (h *CustomerRiskHandler) RegisterRoutes(rg *gin.RouterGroup) {
	reports := rg.Group("/reports/customer-risk")
	reports.POST("", h.Generate)
	reports.GET("/:id", h.Get)
	reports.DELETE("/:id", h.Delete)
	reports.POST("/:id/recompute", h.Recompute)
	reports.GET("/:id/rows/:customer_id/pending-lines", h.PendingLines)
	reports.GET("/:id/rows/:customer_id/ledger-entries", h.LedgerEntries)
	reports.GET("/:id/rows/:customer_id/cheques", h.Cheques)
	reports.GET("/:id/export", h.Export)
	reports.POST("/:id/attachments", h.Attach)
}

// Generate computes, stores and returns a report.
// A missing reference date still answers 201 with zero amounts and one INVALID_REQUEST
// failure per date-dependent amount.
func (h *CustomerRiskHandler) Generate(c *gin.Context) {
	var req dto.GenerateReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	date, err := req.ParseReferenceDate()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidRequest, "reference_date must use the format YYYY-MM-DD")
		return
	}
	ids, err := req.ParseCustomerIDs()
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidRequest, "customer_ids must be UUIDs")
		return
	}

	report, err := h.service.Generate(c.Request.Context(), riskapp.GenerateInput{
		Name:          req.Name,
		ReferenceDate: date,
		CustomerIDs:   ids,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.NewReportResponse(report))
}

// Get returns a stored report
func (h *CustomerRiskHandler) Get(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}
	report, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewReportResponse(report))
}

// Delete discards a stored report
func (h *CustomerRiskHandler) Delete(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Recompute reruns a stored report with its original request
func (h *CustomerRiskHandler) Recompute(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}
	report, err := h.service.Recompute(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewReportResponse(report))
}

// PendingLines lists the order lines behind a row's pending amount
func (h *CustomerRiskHandler) PendingLines(c *gin.Context) {
	id, customerID, ok := h.rowIDs(c)
	if !ok {
		return
	}
	lines, err := h.service.PendingLines(c.Request.Context(), id, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewPendingLineResponses(lines))
}

// LedgerEntries lists the posted receivable moves behind a row's balance
func (h *CustomerRiskHandler) LedgerEntries(c *gin.Context) {
	id, customerID, ok := h.rowIDs(c)
	if !ok {
		return
	}
	entries, err := h.service.LedgerEntries(c.Request.Context(), id, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewLedgerEntryResponses(entries))
}

// Cheques lists the on-hand cheques behind a row's cheques amount
func (h *CustomerRiskHandler) Cheques(c *gin.Context) {
	id, customerID, ok := h.rowIDs(c)
	if !ok {
		return
	}
	payments, err := h.service.Cheques(c.Request.Context(), id, customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.NewChequeResponses(payments))
}

// Export downloads a stored report as xlsx (default) or pdf
func (h *CustomerRiskHandler) Export(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.bindError(c, err)
		return
	}

	file, err := h.service.Export(c.Request.Context(), id, q.FormatOrDefault())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.FileName))
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Attach uploads an export to the attachment store and returns a download link
func (h *CustomerRiskHandler) Attach(c *gin.Context) {
	id, ok := h.reportID(c)
	if !ok {
		return
	}
	var q dto.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.bindError(c, err)
		return
	}

	attachment, err := h.service.Attach(c.Request.Context(), id, q.FormatOrDefault())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, attachment)
}

func (h *CustomerRiskHandler) reportID(c *gin.Context) (uuid.UUID, bool) {
	var req dto.IDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.bindError(c, err)
		return uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidRequest, "invalid report id")
		return uuid.Nil, false
	}
	return id, true
}

func (h *CustomerRiskHandler) rowIDs(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	var req dto.RowRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.bindError(c, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(req.ID)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidRequest, "invalid report id")
		return uuid.Nil, uuid.Nil, false
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		h.ErrorWithCode(c, dto.ErrCodeInvalidRequest, "invalid customer id")
		return uuid.Nil, uuid.Nil, false
	}
	return id, customerID, true
}

func (h *CustomerRiskHandler) bindError(c *gin.Context, err error) {
	if _, ok := err.(validator.ValidationErrors); ok {
		middleware.HandleValidationError(c, err)
		return
	}
	h.ErrorWithCode(c, dto.ErrCodeInvalidJSON, "Malformed request: "+err.Error())
}
