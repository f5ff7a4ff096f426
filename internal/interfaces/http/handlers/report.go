package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/your-org/storefront-backend/internal/domain/report"
	"github.com/your-org/storefront-backend/internal/pkg/apperror"
)

const reportDateLayout = "2006-01-02"

// ReportHandler exposes sales reporting to administrators
type ReportHandler struct {
	reports *report.Service
}

// NewReportHandler creates a new report handler
func NewReportHandler(reports *report.Service) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// SalesReport handles GET /admin/reports/sales?from=YYYY-MM-DD&to=YYYY-MM-DD.
// Both bounds default to today.
func (h *ReportHandler) SalesReport(c *gin.Context) {
	today := time.Now().UTC().Format(reportDateLayout)
	from, err := time.Parse(reportDateLayout, c.DefaultQuery("from", today))
	if err != nil {
		respondError(c, apperror.Validation("from must be a YYYY-MM-DD date"))
		return
	}
	to, err := time.Parse(reportDateLayout, c.DefaultQuery("to", today))
	if err != nil {
		respondError(c, apperror.Validation("to must be a YYYY-MM-DD date"))
		return
	}

	sales, err := h.reports.SalesReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Sales report generated successfully", sales)
}

// Dashboard handles GET /admin/reports/dashboard?period=30days
func (h *ReportHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.reports.Dashboard(c.Request.Context(), report.Period(c.Query("period")))
	if err != nil {
		respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "Dashboard retrieved successfully", dashboard)
}
