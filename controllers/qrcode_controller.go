package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"attendance-backend/middleware"
	"attendance-backend/models"
	"attendance-backend/services"

	"github.com/gin-gonic/gin"
)

type generateQRPayload struct {
	TTLMinutes         int    `json:"ttl_minutes"`
	LocationConstraint string `json:"location_constraint"`
}

type qrCodeResponse struct {
	models.QRCode
	QRImage string `json:"qr_image,omitempty"`
}

type QRCodeController struct {
	QRSvc *services.QRService
}

func NewQRCodeController(svc *services.QRService) *QRCodeController {
	return &QRCodeController{QRSvc: svc}
}

// Generate issues a token. Custom TTLs and geofences are admin-only.
func (qc *QRCodeController) Generate(c *gin.Context) {
	var payload generateQRPayload
	if err := c.ShouldBindJSON(&payload); err != nil && !errors.Is(err, io.EOF) {
		respondBadPayload(c, err)
		return
	}
	if payload.TTLMinutes < 0 {
		respondError(c, http.StatusBadRequest, "error.invalid_payload", "ttl_minutes must be positive")
		return
	}

	actor, _ := middleware.CurrentUser(c)
	customised := payload.TTLMinutes > 0 || strings.TrimSpace(payload.LocationConstraint) != ""
	if customised && !middleware.Allowed(actor.UserType, middleware.ActionQRManage) {
		respondServiceError(c, services.ErrForbidden)
		return
	}

	qr, err := qc.QRSvc.Issue(time.Duration(payload.TTLMinutes)*time.Minute, payload.LocationConstraint)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	png, err := qc.QRSvc.RenderPNG(qr.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, qrCodeResponse{QRCode: qr, QRImage: services.PNGDataURI(png)})
}

func (qc *QRCodeController) List(c *gin.Context) {
	list, err := qc.QRSvc.List()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (qc *QRCodeController) Get(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	qr, err := qc.QRSvc.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (qc *QRCodeController) Image(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	qr, err := qc.QRSvc.Get(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	png, err := qc.QRSvc.RenderPNG(qr.Code)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (qc *QRCodeController) Deactivate(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	qr, err := qc.QRSvc.Deactivate(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}
