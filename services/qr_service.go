package services

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"attendance-backend/models"

	"github.com/google/uuid"
	qrcode "github.com/skip2/go-qrcode"
	"gorm.io/gorm"
)

const (
	DefaultQRTTL = 24 * time.Hour
	qrImageSize  = 256
)

// QRService issues and validates the time-bounded check-in tokens.
type QRService struct {
	DB    *gorm.DB
	Clock Clock
	TTL   time.Duration
}

func NewQRService(db *gorm.DB, clock Clock, ttl time.Duration) *QRService {
	if ttl <= 0 {
		ttl = DefaultQRTTL
	}
	return &QRService{DB: db, Clock: clockOrSystem(clock), TTL: ttl}
}

// Issue creates a fresh active token. ttl <= 0 uses the service default and
// an empty constraint means the token is not geofenced.
func (s *QRService) Issue(ttl time.Duration, constraint string) (models.QRCode, error) {
	if ttl <= 0 {
		ttl = s.TTL
	}

	var lc *string
	if raw := strings.TrimSpace(constraint); raw != "" {
		parsed, err := ParseLocationConstraint(raw)
		if err != nil {
			return models.QRCode{}, err
		}
		normalized := parsed.String()
		lc = &normalized
	}

	now := s.Clock.Now()
	var qr models.QRCode
	const maxRetries = 3
	var createErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		qr = models.QRCode{
			Code:               uuid.NewString(),
			CreatedAt:          now,
			ExpiresAt:          now.Add(ttl),
			IsActive:           true,
			LocationConstraint: lc,
		}
		createErr = s.DB.Create(&qr).Error
		if createErr == nil {
			break
		}
		if !isDuplicateKey(createErr) {
			return models.QRCode{}, fmt.Errorf("failed to create qr code: %w", createErr)
		}
		log.Printf("⚠️ qr code collision on attempt %d, retrying", attempt+1)
	}
	if createErr != nil {
		return models.QRCode{}, fmt.Errorf("failed to create qr code after retries: %w", createErr)
	}

	recordEvent("qr_issue", nil)
	return qr, nil
}

// Validate looks a token up without mutating it.
func (s *QRService) Validate(code string) (models.QRCode, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.QRCode{}, ErrQRNotFound
	}

	var qr models.QRCode
	if err := s.DB.Where("code = ?", code).First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QRCode{}, ErrQRNotFound
		}
		return models.QRCode{}, fmt.Errorf("failed to find qr code: %w", err)
	}
	if !qr.IsActive {
		return qr, ErrQRInactive
	}
	if qr.IsExpired(s.Clock.Now()) {
		return qr, ErrQRExpired
	}
	return qr, nil
}

func (s *QRService) Get(id uint) (models.QRCode, error) {
	var qr models.QRCode
	if err := s.DB.First(&qr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.QRCode{}, ErrQRNotFound
		}
		return models.QRCode{}, fmt.Errorf("failed to find qr code: %w", err)
	}
	return qr, nil
}

func (s *QRService) List() ([]models.QRCode, error) {
	var list []models.QRCode
	if err := s.DB.Order("created_at DESC, id DESC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list qr codes: %w", err)
	}
	return list, nil
}

// Deactivate revokes a token. Calling it twice is harmless.
func (s *QRService) Deactivate(id uint) (models.QRCode, error) {
	qr, err := s.Get(id)
	if err != nil {
		return models.QRCode{}, err
	}
	if !qr.IsActive {
		return qr, nil
	}
	if err := s.DB.Model(&qr).Update("is_active", false).Error; err != nil {
		return models.QRCode{}, fmt.Errorf("failed to deactivate qr code: %w", err)
	}
	qr.IsActive = false
	log.Printf("🔒 qr code %d deactivated", qr.ID)
	return qr, nil
}

// RenderPNG encodes the token payload as a QR image.
func (s *QRService) RenderPNG(code string) ([]byte, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrQRNotFound
	}
	png, err := qrcode.Encode(code, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to render qr image: %w", err)
	}
	return png, nil
}

func PNGDataURI(png []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png)
}
