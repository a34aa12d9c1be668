package middleware

import (
	"net/http"

	"attendance-backend/models"
	"attendance-backend/utils"

	"github.com/gin-gonic/gin"
)

type Action string

const (
	ActionQRGenerate      Action = "qrcode.generate"
	ActionQRManage        Action = "qrcode.manage"
	ActionCheckIn         Action = "attendance.check_in"
	ActionCheckOut        Action = "attendance.check_out"
	ActionToday           Action = "attendance.today"
	ActionRecordList      Action = "attendance.list"
	ActionRecordRetrieve  Action = "attendance.retrieve"
	ActionRecordUpdate    Action = "attendance.update"
	ActionDailySummary    Action = "attendance.daily_summary"
	ActionMarkLate        Action = "attendance.mark_late"
	ActionLogList         Action = "logs.list"
	ActionDashboard       Action = "dashboard.view"
	ActionUserList        Action = "users.list"
	ActionUserCreateAdmin Action = "users.create_admin"
	ActionUserSelf        Action = "users.self"
)

var (
	adminOnly  = []string{models.UserTypeAdmin}
	everyone   = []string{models.UserTypeAdmin, models.UserTypeRegular}
	policyRule = map[Action][]string{
		ActionQRGenerate:      everyone,
		ActionQRManage:        adminOnly,
		ActionCheckIn:         everyone,
		ActionCheckOut:        everyone,
		ActionToday:           everyone,
		ActionRecordList:      everyone,
		ActionRecordRetrieve:  everyone,
		ActionRecordUpdate:    adminOnly,
		ActionDailySummary:    adminOnly,
		ActionMarkLate:        adminOnly,
		ActionLogList:         everyone,
		ActionDashboard:       adminOnly,
		ActionUserList:        adminOnly,
		ActionUserCreateAdmin: adminOnly,
		ActionUserSelf:        everyone,
	}
)

// Allowed reports whether role may perform action. Unknown actions are denied.
func Allowed(role string, action Action) bool {
	for _, r := range policyRule[action] {
		if r == role {
			return true
		}
	}
	return false
}

// Require must run after AuthRequired.
func Require(action Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			utils.AbortJSONError(c, http.StatusUnauthorized, "error.unauthorized", "authentication required")
			return
		}
		if !Allowed(user.UserType, action) {
			utils.AbortJSONError(c, http.StatusForbidden, "error.forbidden", "You do not have permission to perform this action.")
			return
		}
		c.Next()
	}
}
