package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"attendance-backend/models"
	"attendance-backend/utils"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const DateLayout = "2006-01-02"

// createAttempts bounds the retry when a concurrent check-in wins the
// (user, date) key.
const createAttempts = 2

// AttendanceService owns the per-user-per-day attendance record.
type AttendanceService struct {
	DB       *gorm.DB
	Clock    Clock
	Verifier *Verifier
	Images   *ImageStore
	Location *time.Location
}

func NewAttendanceService(db *gorm.DB, clock Clock, verifier *Verifier, images *ImageStore) *AttendanceService {
	return &AttendanceService{
		DB:       db,
		Clock:    clockOrSystem(clock),
		Verifier: verifier,
		Images:   images,
	}
}

// CheckRequest is the body of a check-in or check-out.
type CheckRequest struct {
	QRCodeData  string `json:"qr_code_data"`
	Geolocation string `json:"geolocation"`
	FaceImage   string `json:"face_image"`
}

type CheckResult struct {
	Record       models.AttendanceRecord `json:"record"`
	Verification VerificationReport      `json:"verification"`
}

// RecordPatch is an administrative correction. Nil fields are left alone.
type RecordPatch struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

// ---------------------------
// Dates
// ---------------------------

func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

func (s *AttendanceService) now() time.Time {
	now := s.Clock.Now()
	if s.Location != nil {
		now = now.In(s.Location)
	}
	return now
}

// Today is the acting clock's local date.
func (s *AttendanceService) Today() string {
	return DateKey(s.now())
}

// ---------------------------
// Check-in / check-out
// ---------------------------

type faceUpload struct {
	data    []byte
	ext     string
	invalid bool
}

func decodeFace(raw string) faceUpload {
	if strings.TrimSpace(raw) == "" {
		return faceUpload{}
	}
	data, ext, err := utils.DecodeBase64Image(raw)
	if err != nil {
		return faceUpload{invalid: true}
	}
	return faceUpload{data: data, ext: ext}
}

func (f faceUpload) submitted() bool { return len(f.data) > 0 || f.invalid }

// isQRRejection separates a token the client got wrong from a lookup that
// could not run.
func isQRRejection(err error) bool {
	return errors.Is(err, ErrQRNotFound) || errors.Is(err, ErrQRExpired) || errors.Is(err, ErrQRInactive)
}

func (s *AttendanceService) verify(ctx context.Context, user models.User, req CheckRequest, face faceUpload) (VerificationReport, error) {
	report, _, qrErr := s.Verifier.Evaluate(ctx, user, req.QRCodeData, req.Geolocation, face.data)
	if face.invalid {
		report.Face = FactorResult{Reason: "invalid face image"}
	}
	if qrErr != nil {
		if !isQRRejection(qrErr) {
			return report, qrErr
		}
		return report, fmt.Errorf("%w: %w", ErrInvalidQRCode, qrErr)
	}
	if strings.TrimSpace(req.Geolocation) == "" {
		return report, ErrMissingLocation
	}
	return report, nil
}

func (s *AttendanceService) storeFace(face faceUpload, subdir string) *string {
	if len(face.data) == 0 || s.Images == nil {
		return nil
	}
	path, err := s.Images.Save(face.data, face.ext, subdir)
	if err != nil {
		log.Printf("⚠️ failed to store face image: %v", err)
		return nil
	}
	return &path
}

// CheckIn creates today's record or overwrites the check-in fields of an
// existing one. The latest check-in wins.
func (s *AttendanceService) CheckIn(ctx context.Context, user models.User, req CheckRequest) (CheckResult, error) {
	face := decodeFace(req.FaceImage)
	report, err := s.verify(ctx, user, req, face)
	if err != nil {
		recordEvent("check_in", err)
		return CheckResult{Verification: report}, err
	}

	now := s.now()
	date := DateKey(now)
	qrData := strings.TrimSpace(req.QRCodeData)
	location := strings.TrimSpace(req.Geolocation)
	facePath := s.storeFace(face, "faces/check_in")

	var recordID uint
	for attempt := 0; attempt < createAttempts; attempt++ {
		err = s.DB.Transaction(func(tx *gorm.DB) error {
			var rec models.AttendanceRecord
			findErr := forUpdate(tx).Where("user_id = ? AND date = ?", user.ID, date).First(&rec).Error
			if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
				return fmt.Errorf("failed to load attendance record: %w", findErr)
			}
			exists := findErr == nil

			rec.UserID = user.ID
			rec.Date = date
			rec.CheckInTime = &now
			rec.Status = models.StatusPresent
			rec.QRCodeData = &qrData
			rec.QRVerified = true
			rec.CheckInLocation = &location
			rec.GeoVerified = report.Geo.Passed
			rec.FaceVerified = report.Face.Passed
			if facePath != nil {
				rec.FaceImageCheckIn = facePath
			}

			if exists {
				if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
					return fmt.Errorf("failed to update attendance record: %w", err)
				}
			} else if err := tx.Omit(clause.Associations).Create(&rec).Error; err != nil {
				return err
			}

			entry := models.AttendanceLog{
				AttendanceRecordID: rec.ID,
				Timestamp:          now,
				LogType:            models.LogCheckIn,
				Description:        "Checked in via QR code",
				LocationData:       &location,
				QRData:             &qrData,
				Details:            report.JSON(),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to write attendance log: %w", err)
			}
			recordID = rec.ID
			return nil
		})
		if err == nil || !isRetryableWrite(err) {
			break
		}
		log.Printf("⚠️ concurrent check-in for user %d on %s, retrying as update", user.ID, date)
	}
	recordEvent("check_in", err)
	if err != nil {
		return CheckResult{Verification: report}, err
	}

	rec, err := s.loadRecord(s.DB, recordID)
	if err != nil {
		return CheckResult{Verification: report}, err
	}
	log.Printf("✅ user %d checked in on %s (geo=%t face=%t)", user.ID, date, report.Geo.Passed, report.Face.Passed)
	return CheckResult{Record: rec, Verification: report}, nil
}

// CheckOut requires a check-in today. That is checked before any verification.
func (s *AttendanceService) CheckOut(ctx context.Context, user models.User, req CheckRequest) (CheckResult, error) {
	date := s.Today()

	var existing models.AttendanceRecord
	if err := s.DB.Where("user_id = ? AND date = ?", user.ID, date).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			recordEvent("check_out", ErrNoCheckInFound)
			return CheckResult{}, ErrNoCheckInFound
		}
		return CheckResult{}, fmt.Errorf("failed to load attendance record: %w", err)
	}
	if existing.CheckInTime == nil {
		recordEvent("check_out", ErrNoCheckInFound)
		return CheckResult{}, ErrNoCheckInFound
	}

	face := decodeFace(req.FaceImage)
	report, err := s.verify(ctx, user, req, face)
	if err != nil {
		recordEvent("check_out", err)
		return CheckResult{Verification: report}, err
	}

	now := s.now()
	qrData := strings.TrimSpace(req.QRCodeData)
	location := strings.TrimSpace(req.Geolocation)
	facePath := s.storeFace(face, "faces/check_out")

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var rec models.AttendanceRecord
		if err := forUpdate(tx).First(&rec, existing.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoCheckInFound
			}
			return fmt.Errorf("failed to load attendance record: %w", err)
		}

		rec.CheckOutTime = &now
		rec.CheckOutLocation = &location
		if face.submitted() {
			rec.FaceVerified = report.Face.Passed
		}
		if facePath != nil {
			rec.FaceImageCheckOut = facePath
		}
		if err := tx.Omit(clause.Associations).Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}

		entry := models.AttendanceLog{
			AttendanceRecordID: rec.ID,
			Timestamp:          now,
			LogType:            models.LogCheckOut,
			Description:        "Checked out via QR code",
			LocationData:       &location,
			QRData:             &qrData,
			Details:            report.JSON(),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to write attendance log: %w", err)
		}
		return nil
	})
	recordEvent("check_out", err)
	if err != nil {
		return CheckResult{Verification: report}, err
	}

	rec, err := s.loadRecord(s.DB, existing.ID)
	if err != nil {
		return CheckResult{Verification: report}, err
	}
	log.Printf("✅ user %d checked out on %s", user.ID, date)
	return CheckResult{Record: rec, Verification: report}, nil
}

// ---------------------------
// Queries
// ---------------------------

func preloadLogs(db *gorm.DB) *gorm.DB {
	return db.Order("timestamp DESC, id DESC")
}

func (s *AttendanceService) loadRecord(db *gorm.DB, id uint) (models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	if err := db.Preload("User").Preload("Logs", preloadLogs).First(&rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.AttendanceRecord{}, ErrRecordNotFound
		}
		return models.AttendanceRecord{}, fmt.Errorf("failed to load attendance record: %w", err)
	}
	return rec, nil
}

// TodayStatus returns today's record for user, or nil when there is none.
func (s *AttendanceService) TodayStatus(user models.User) (*models.AttendanceRecord, string, error) {
	date := s.Today()
	var rec models.AttendanceRecord
	err := s.DB.Preload("Logs", preloadLogs).Where("user_id = ? AND date = ?", user.ID, date).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, date, nil
		}
		return nil, date, fmt.Errorf("failed to load today's record: %w", err)
	}
	return &rec, date, nil
}

// GetRecord hides other users' records from non-admins.
func (s *AttendanceService) GetRecord(viewer models.User, id uint) (models.AttendanceRecord, error) {
	rec, err := s.loadRecord(s.DB, id)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	if !viewer.IsAdmin() && rec.UserID != viewer.ID {
		return models.AttendanceRecord{}, ErrRecordNotFound
	}
	return rec, nil
}

// ListRecords returns records in [start, end]; either bound may be empty.
func (s *AttendanceService) ListRecords(viewer models.User, start, end string) ([]models.AttendanceRecord, error) {
	q := s.DB.Model(&models.AttendanceRecord{}).Preload("User").Preload("Logs", preloadLogs)
	if !viewer.IsAdmin() {
		q = q.Where("user_id = ?", viewer.ID)
	}

	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start != "" {
		if _, err := ParseDate(start); err != nil {
			return nil, err
		}
		q = q.Where("date >= ?", start)
	}
	if end != "" {
		if _, err := ParseDate(end); err != nil {
			return nil, err
		}
		q = q.Where("date <= ?", end)
	}
	if start != "" && end != "" && start > end {
		return nil, ErrInvalidDateRange
	}

	var list []models.AttendanceRecord
	if err := q.Order("date DESC, user_id ASC").Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance records: %w", err)
	}
	return list, nil
}

// ListLogs returns logs newest first, optionally for a single record.
func (s *AttendanceService) ListLogs(viewer models.User, recordID *uint) ([]models.AttendanceLog, error) {
	q := s.DB.Model(&models.AttendanceLog{})
	if !viewer.IsAdmin() {
		q = q.Where("attendance_record_id IN (?)",
			s.DB.Model(&models.AttendanceRecord{}).Select("id").Where("user_id = ?", viewer.ID))
	}
	if recordID != nil {
		q = q.Where("attendance_record_id = ?", *recordID)
	}

	var logs []models.AttendanceLog
	if err := q.Order("timestamp DESC, id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list attendance logs: %w", err)
	}
	return logs, nil
}

// ---------------------------
// Administration
// ---------------------------

// UpdateRecord applies an administrative correction and logs it.
func (s *AttendanceService) UpdateRecord(admin models.User, id uint, patch RecordPatch) (models.AttendanceRecord, error) {
	if !admin.IsAdmin() {
		return models.AttendanceRecord{}, ErrForbidden
	}
	if patch.Status != nil && !models.ValidStatus(*patch.Status) {
		return models.AttendanceRecord{}, fmt.Errorf("%w: %q", ErrInvalidStatus, *patch.Status)
	}

	now := s.now()
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		var rec models.AttendanceRecord
		if err := forUpdate(tx).First(&rec, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecordNotFound
			}
			return fmt.Errorf("failed to load attendance record: %w", err)
		}

		previous := rec.Status
		updates := map[string]interface{}{}
		var changes []string
		if patch.Status != nil && *patch.Status != rec.Status {
			updates["status"] = *patch.Status
			changes = append(changes, fmt.Sprintf("status %s -> %s", previous, *patch.Status))
		}
		if patch.Notes != nil && *patch.Notes != rec.Notes {
			updates["notes"] = *patch.Notes
			changes = append(changes, "notes updated")
		}
		if len(updates) == 0 {
			return nil
		}
		if err := tx.Model(&rec).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to update attendance record: %w", err)
		}

		details := datatypes.JSONMap{
			"previous_status": previous,
			"updated_by":      admin.ID,
		}
		for k, v := range updates {
			details[k] = v
		}
		detailsJSON, _ := json.Marshal(details)

		entry := models.AttendanceLog{
			AttendanceRecordID: rec.ID,
			Timestamp:          now,
			LogType:            models.LogManualEntry,
			Description:        fmt.Sprintf("Manual update by %s: %s", admin.Username, strings.Join(changes, ", ")),
			Details:            datatypes.JSON(detailsJSON),
		}
		if err := tx.Create(&entry).Error; err != nil {
			return fmt.Errorf("failed to write attendance log: %w", err)
		}
		return nil
	})
	recordEvent("manual_update", err)
	if err != nil {
		return models.AttendanceRecord{}, err
	}
	return s.loadRecord(s.DB, id)
}

// DeleteRecord removes a record. Its logs go with it through the cascade.
func (s *AttendanceService) DeleteRecord(admin models.User, id uint) error {
	if !admin.IsAdmin() {
		return ErrForbidden
	}
	res := s.DB.Delete(&models.AttendanceRecord{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete attendance record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	log.Printf("🗑️ attendance record %d deleted by %s", id, admin.Username)
	return nil
}
