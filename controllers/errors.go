package controllers

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"attendance-backend/services"
	"attendance-backend/utils"

	"github.com/gin-gonic/gin"
)

type errorMapping struct {
	target  error
	status  int
	code    string
	message string
}

// First match wins. Check-in wraps the QR reason in ErrInvalidQRCode, so an
// unknown token there is a 400 while a direct lookup miss is a 404.
var errorTable = []errorMapping{
	{services.ErrQRExpired, http.StatusBadRequest, "error.invalid_qr_code", "Invalid QR code: the code has expired"},
	{services.ErrQRInactive, http.StatusBadRequest, "error.invalid_qr_code", "Invalid QR code: the code is no longer active"},
	{services.ErrInvalidQRCode, http.StatusBadRequest, "error.invalid_qr_code", "Invalid QR code"},
	{services.ErrMissingLocation, http.StatusBadRequest, "error.geolocation_required", "Geolocation is required"},
	{services.ErrNoCheckInFound, http.StatusBadRequest, "error.no_check_in_found", "No check-in record found for today"},
	{services.ErrInvalidDate, http.StatusBadRequest, "error.invalid_date", "Invalid date format. Use YYYY-MM-DD."},
	{services.ErrInvalidDateRange, http.StatusBadRequest, "error.invalid_date_range", "Invalid date range"},
	{services.ErrInvalidStatus, http.StatusBadRequest, "error.invalid_status", "Invalid attendance status"},
	{services.ErrInvalidLocationConstraint, http.StatusBadRequest, "error.invalid_location_constraint", "Location constraint must be \"lat,lng,radius_meters\""},
	{services.ErrInvalidUserInput, http.StatusBadRequest, "error.invalid_user_input", "Invalid user data"},
	{services.ErrUsernameTaken, http.StatusBadRequest, "error.username_taken", "A user with that username already exists"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "error.invalid_credentials", "Invalid credentials"},
	{services.ErrForbidden, http.StatusForbidden, "error.forbidden", "You do not have permission to perform this action."},
	{services.ErrQRNotFound, http.StatusNotFound, "error.qr_code_not_found", "QR code not found"},
	{services.ErrRecordNotFound, http.StatusNotFound, "error.record_not_found", "Attendance record not found"},
	{services.ErrUserNotFound, http.StatusNotFound, "error.user_not_found", "User not found"},
}

func respondError(c *gin.Context, status int, code, message string) {
	utils.JSONError(c, status, code, message)
}

func respondBadPayload(c *gin.Context, err error) {
	respondError(c, http.StatusBadRequest, "error.invalid_payload", "invalid payload: "+err.Error())
}

func lookupError(c *gin.Context, err error) errorMapping {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			return m
		}
	}
	log.Printf("❌ %s %s: %v", c.Request.Method, c.FullPath(), err)
	return errorMapping{status: http.StatusInternalServerError, code: "error.internal", message: "internal server error"}
}

// respondServiceError maps service sentinels to HTTP. Anything unknown is a 500.
func respondServiceError(c *gin.Context, err error) {
	m := lookupError(c, err)
	respondError(c, m.status, m.code, m.message)
}

// respondCheckError adds the per-factor report next to the error so the
// client sees every failed factor, not only the one that blocked.
func respondCheckError(c *gin.Context, err error, report services.VerificationReport) {
	m := lookupError(c, err)
	if m.status >= http.StatusInternalServerError || report == (services.VerificationReport{}) {
		respondError(c, m.status, m.code, m.message)
		return
	}
	c.JSON(m.status, gin.H{
		"error": gin.H{
			"code":    m.code,
			"message": m.message,
		},
		"verification": report,
	})
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "error.invalid_id", "invalid id")
		return 0, false
	}
	return uint(id), true
}
