package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-backend/config"
	"attendance-backend/controllers"
	"attendance-backend/routes"
	"attendance-backend/services"
	"attendance-backend/utils"
)

func main() {
	cfg := config.Load()
	if cfg.GinMode != "" {
		gin.SetMode(cfg.GinMode)
	}

	if cfg.JWTSecret == "" {
		secret, err := utils.GenerateSecureToken(32)
		if err != nil {
			log.Fatalf("❌ cannot generate JWT secret: %v", err)
		}
		cfg.JWTSecret = secret
		log.Println("⚠️  JWT_SECRET is not set; using a random secret, tokens will not survive a restart")
	}

	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Database connect failed: %v", err)
	}
	log.Printf("✅ Database connection established (%s) and migrations applied.", cfg.DBDriver)

	clock := services.SystemClock{}
	images := services.NewImageStore(cfg.UploadDir)

	var matcher services.FaceMatcher
	if cfg.FaceServiceURL != "" {
		matcher = services.NewHTTPFaceMatcher(cfg.FaceServiceURL, cfg.FaceServiceKey)
		log.Println("✅ Face matching service configured.")
	} else {
		log.Println("⚠️  FACE_SERVICE_URL is not set; submitted face images will not verify")
	}

	// Initialize services
	userService := services.NewUserService(db, images)
	tokenManager := services.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, clock)
	qrService := services.NewQRService(db, clock, cfg.QRTTL)
	faceVerifier := services.NewFaceVerifier(matcher, images, cfg.FaceTolerance, cfg.FaceServiceTimeout)
	verifier := services.NewVerifier(qrService, faceVerifier)
	attendanceService := services.NewAttendanceService(db, clock, verifier, images)
	reportService := services.NewReportService(db, clock)
	statusService := services.NewStatusService(db, clock, cfg.WorkStart, cfg.LateGrace)
	attendanceService.Location = cfg.Location
	reportService.Location = cfg.Location
	statusService.Location = cfg.Location

	// Initialize controllers
	handlers := routes.Handlers{
		Auth:       controllers.NewAuthController(userService, tokenManager),
		Users:      controllers.NewUserController(userService),
		QRCodes:    controllers.NewQRCodeController(qrService),
		Attendance: controllers.NewAttendanceController(attendanceService, reportService, statusService),
		Dashboard:  controllers.NewDashboardController(reportService),
	}

	router := routes.SetupRouter(handlers, tokenManager, userService, cfg.CORSOrigins)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("❌ ListenAndServe(): %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("⚠️  Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("✅ Server stopped gracefully")
}
