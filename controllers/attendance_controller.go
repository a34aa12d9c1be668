package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"attendance-backend/middleware"
	"attendance-backend/services"

	"github.com/gin-gonic/gin"
)

type markLatePayload struct {
	Date string `json:"date"`
}

type AttendanceController struct {
	AttendanceSvc *services.AttendanceService
	ReportSvc     *services.ReportService
	StatusSvc     *services.StatusService
}

func NewAttendanceController(att *services.AttendanceService, reports *services.ReportService, status *services.StatusService) *AttendanceController {
	return &AttendanceController{AttendanceSvc: att, ReportSvc: reports, StatusSvc: status}
}

// ---------------------------
// Check-in / check-out
// ---------------------------

func (ac *AttendanceController) CheckIn(c *gin.Context) {
	var req services.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)

	res, err := ac.AttendanceSvc.CheckIn(c.Request.Context(), user, req)
	if err != nil {
		respondCheckError(c, err, res.Verification)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ac *AttendanceController) CheckOut(c *gin.Context) {
	var req services.CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadPayload(c, err)
		return
	}
	user, _ := middleware.CurrentUser(c)

	res, err := ac.AttendanceSvc.CheckOut(c.Request.Context(), user, req)
	if err != nil {
		respondCheckError(c, err, res.Verification)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (ac *AttendanceController) TodayStatus(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	rec, date, err := ac.AttendanceSvc.TodayStatus(user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if rec == nil {
		c.JSON(http.StatusOK, gin.H{
			"status":  "absent",
			"date":    date,
			"message": "You have not checked in today",
		})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ---------------------------
// Records
// ---------------------------

func (ac *AttendanceController) ListRecords(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)
	list, err := ac.AttendanceSvc.ListRecords(user, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ac *AttendanceController) GetRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	rec, err := ac.AttendanceSvc.GetRecord(user, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ac *AttendanceController) UpdateRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var patch services.RecordPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondBadPayload(c, err)
		return
	}
	admin, _ := middleware.CurrentUser(c)
	rec, err := ac.AttendanceSvc.UpdateRecord(admin, id, patch)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (ac *AttendanceController) DeleteRecord(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	admin, _ := middleware.CurrentUser(c)
	if err := ac.AttendanceSvc.DeleteRecord(admin, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ac *AttendanceController) DailySummary(c *gin.Context) {
	summary, err := ac.ReportSvc.DailySummary(c.Query("date"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

// MarkLate accepts the date as a query parameter or JSON body; today by default.
func (ac *AttendanceController) MarkLate(c *gin.Context) {
	date := c.Query("date")
	if date == "" && c.Request.ContentLength > 0 {
		var payload markLatePayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBadPayload(c, err)
			return
		}
		date = payload.Date
	}

	n, err := ac.StatusSvc.ApplyLateness(strings.TrimSpace(date))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_late": n})
}

// ---------------------------
// Logs
// ---------------------------

func (ac *AttendanceController) ListLogs(c *gin.Context) {
	var recordID *uint
	if raw := strings.TrimSpace(c.Query("record_id")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "error.invalid_id", "invalid record_id")
			return
		}
		v := uint(id)
		recordID = &v
	}

	user, _ := middleware.CurrentUser(c)
	logs, err := ac.AttendanceSvc.ListLogs(user, recordID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}
