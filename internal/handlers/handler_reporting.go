package handlers

import (
	"log/slog"
	"net/http"

	portssvc "github.com/SscSPs/cashdesk/internal/core/ports/services"
	"github.com/SscSPs/cashdesk/internal/dto"
	"github.com/SscSPs/cashdesk/internal/middleware"
	"github.com/gin-gonic/gin"
)

// reportingHandler handles HTTP requests for cash reports
type reportingHandler struct {
	reportingService portssvc.CashReportingSvc
}

func newReportingHandler(rs portssvc.CashReportingSvc) *reportingHandler {
	return &reportingHandler{
		reportingService: rs,
	}
}

// registerReportingRoutes registers routes related to cash reports
func registerReportingRoutes(rg *gin.RouterGroup, reportingService portssvc.CashReportingSvc) {
	h := newReportingHandler(reportingService)

	reportingGroup := rg.Group("/reports")
	{
		reportingGroup.GET("/daily-summary", h.getDailySummary)
		reportingGroup.GET("/history", h.getHistory)
		reportingGroup.GET("/cash-report", h.getCashReport)
	}
}

// getDailySummary godoc
// @Summary Daily cash summary
// @Description Aggregates every movement dated on the given day across open and closed sessions.
// @Tags reports
// @Produce json
// @Param date query string false "Day (YYYY-MM-DD) in the operating timezone" default(today)
// @Param branchId query string false "Branch ID"
// @Success 200 {object} domain.DailySummary
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} errorResponse "Failed to generate report"
// @Security BearerAuth
// @Router /cash/reports/daily-summary [get]
func (h *reportingHandler) getDailySummary(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.DailySummaryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	summary, err := h.reportingService.DailySummary(c.Request.Context(), params.Date, params.BranchID)
	if err != nil {
		respondError(c, logger, err, "Failed to generate daily summary")
		return
	}

	logger.Info("Daily summary generated", slog.String("date", summary.Date))
	c.JSON(http.StatusOK, summary)
}

// getHistory godoc
// @Summary Session history
// @Description Pages through sessions, most recently opened first, with income, expenses and balance per session.
// @Tags reports
// @Produce json
// @Param branchId query string false "Branch ID"
// @Param status query string false "Session status" Enums(OPEN, CLOSED)
// @Param startDate query string false "First opening day (YYYY-MM-DD), inclusive"
// @Param endDate query string false "Last opening day (YYYY-MM-DD), inclusive"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Page size" default(20)
// @Success 200 {object} domain.HistoryPage
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} errorResponse "Failed to generate report"
// @Security BearerAuth
// @Router /cash/reports/history [get]
func (h *reportingHandler) getHistory(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.HistoryParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	page, err := h.reportingService.History(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to generate session history")
		return
	}
	c.JSON(http.StatusOK, page)
}

// getCashReport godoc
// @Summary Cash report for a date range
// @Description Lists sessions opened, closed or still running within the range, with summary totals.
// @Tags reports
// @Produce json
// @Param branchId query string false "Branch ID"
// @Param startDate query string true "First day (YYYY-MM-DD), inclusive"
// @Param endDate query string true "Last day (YYYY-MM-DD), inclusive"
// @Success 200 {object} domain.CashReport
// @Failure 400 {object} errorResponse "Invalid input"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} errorResponse "Failed to generate report"
// @Security BearerAuth
// @Router /cash/reports/cash-report [get]
func (h *reportingHandler) getCashReport(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.CashReportParams
	if err := c.ShouldBindQuery(&params); err != nil {
		bindError(c, logger, err)
		return
	}

	report, err := h.reportingService.CashReport(c.Request.Context(), params)
	if err != nil {
		respondError(c, logger, err, "Failed to generate cash report")
		return
	}

	logger.Info("Cash report generated",
		slog.String("start_date", params.StartDate),
		slog.String("end_date", params.EndDate),
		slog.Int("session_count", report.Summary.SessionCount))
	c.JSON(http.StatusOK, report)
}
