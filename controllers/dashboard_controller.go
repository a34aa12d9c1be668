package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"attendance-backend/services"

	"github.com/gin-gonic/gin"
)

type DashboardController struct {
	ReportSvc *services.ReportService
}

func NewDashboardController(svc *services.ReportService) *DashboardController {
	return &DashboardController{ReportSvc: svc}
}

// reportRange prefers an explicit start_date/end_date pair and falls back
// to the last `days` days (30 by default).
func (dc *DashboardController) reportRange(c *gin.Context) (string, string, bool) {
	start := strings.TrimSpace(c.Query("start_date"))
	end := strings.TrimSpace(c.Query("end_date"))
	if start != "" && end != "" {
		return start, end, true
	}

	days := services.DefaultReportDays
	if raw := strings.TrimSpace(c.Query("days")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "error.invalid_date_range", "days must be a number")
			return "", "", false
		}
		days = n
	}
	start, end, err := dc.ReportSvc.RangeFromDays(days)
	if err != nil {
		respondServiceError(c, err)
		return "", "", false
	}
	return start, end, true
}

func (dc *DashboardController) Stats(c *gin.Context) {
	stats, err := dc.ReportSvc.DashboardStats(c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (dc *DashboardController) Trends(c *gin.Context) {
	start, end, ok := dc.reportRange(c)
	if !ok {
		return
	}
	trends, err := dc.ReportSvc.Trends(start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (dc *DashboardController) UserSummary(c *gin.Context) {
	start, end, ok := dc.reportRange(c)
	if !ok {
		return
	}
	summary, err := dc.ReportSvc.UserSummary(start, end)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
