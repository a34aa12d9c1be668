package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendance-backend/controllers"
	"attendance-backend/middleware"
	"attendance-backend/services"
)

// Handlers groups the controllers mounted under /api.
type Handlers struct {
	Auth       *controllers.AuthController
	Users      *controllers.UserController
	QRCodes    *controllers.QRCodeController
	Attendance *controllers.AttendanceController
	Dashboard  *controllers.DashboardController
}

func SetupRouter(h Handlers, tokens *services.TokenManager, users *services.UserService, origins []string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(), middleware.Metrics())

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := middleware.AuthRequired(tokens, users)
	allow := middleware.Require

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", authed, h.Auth.Logout)
		}

		// registration is anonymous; an admin token is needed to create admins
		api.POST("/users", middleware.AuthOptional(tokens, users), h.Users.Register)

		usersGroup := api.Group("/users", authed)
		{
			usersGroup.GET("", allow(middleware.ActionUserList), h.Users.List)
			usersGroup.GET("/me", allow(middleware.ActionUserSelf), h.Users.Me)
			usersGroup.GET("/:id", allow(middleware.ActionUserSelf), h.Users.Get)
			usersGroup.PATCH("/:id", allow(middleware.ActionUserSelf), h.Users.Update)
		}

		attendance := api.Group("/attendance", authed)
		{
			qr := attendance.Group("/qrcodes")
			{
				qr.POST("/generate", allow(middleware.ActionQRGenerate), h.QRCodes.Generate)
				qr.GET("", allow(middleware.ActionQRManage), h.QRCodes.List)
				qr.GET("/:id", allow(middleware.ActionQRManage), h.QRCodes.Get)
				qr.GET("/:id/image", allow(middleware.ActionQRManage), h.QRCodes.Image)
				qr.POST("/:id/deactivate", allow(middleware.ActionQRManage), h.QRCodes.Deactivate)
			}

			records := attendance.Group("/records")
			{
				records.POST("/check-in", allow(middleware.ActionCheckIn), h.Attendance.CheckIn)
				records.POST("/check-out", allow(middleware.ActionCheckOut), h.Attendance.CheckOut)
				records.GET("", allow(middleware.ActionRecordList), h.Attendance.ListRecords)
				records.GET("/today-status", allow(middleware.ActionToday), h.Attendance.TodayStatus)
				records.GET("/daily-summary", allow(middleware.ActionDailySummary), h.Attendance.DailySummary)
				records.POST("/mark-late", allow(middleware.ActionMarkLate), h.Attendance.MarkLate)
				records.GET("/:id", allow(middleware.ActionRecordRetrieve), h.Attendance.GetRecord)
				records.PATCH("/:id", allow(middleware.ActionRecordUpdate), h.Attendance.UpdateRecord)
				records.DELETE("/:id", allow(middleware.ActionRecordUpdate), h.Attendance.DeleteRecord)
			}

			attendance.GET("/logs", allow(middleware.ActionLogList), h.Attendance.ListLogs)
		}

		dashboard := api.Group("/dashboard", authed, allow(middleware.ActionDashboard))
		{
			dashboard.GET("/stats", h.Dashboard.Stats)
			dashboard.GET("/trends", h.Dashboard.Trends)
			dashboard.GET("/user-summary", h.Dashboard.UserSummary)
		}
	}

	return r
}
