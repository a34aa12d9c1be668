package services

import (
	"fmt"
	"log"
	"time"

	"attendance-backend/models"

	"gorm.io/gorm"
)

const (
	DefaultWorkStart = "09:00:00"
	DefaultLateGrace = 5 * time.Minute
)

// StatusService marks present records as late after the fact. Check-in
// itself never decides lateness.
type StatusService struct {
	DB        *gorm.DB
	Clock     Clock
	WorkStart string // HH:MM:SS
	Grace     time.Duration
	Location  *time.Location
}

func NewStatusService(db *gorm.DB, clock Clock, workStart string, grace time.Duration) *StatusService {
	if workStart == "" {
		workStart = DefaultWorkStart
	}
	if grace < 0 {
		grace = DefaultLateGrace
	}
	return &StatusService{DB: db, Clock: clockOrSystem(clock), WorkStart: workStart, Grace: grace}
}

func (s *StatusService) location() *time.Location {
	if s.Location != nil {
		return s.Location
	}
	return time.Local
}

// lateThreshold is work start plus grace on the given day.
func lateThreshold(day time.Time, workStart string, grace time.Duration, loc *time.Location) (time.Time, error) {
	ws, err := time.Parse("15:04:05", workStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid work start %q: %w", workStart, err)
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), ws.Hour(), ws.Minute(), ws.Second(), 0, loc)
	return start.Add(grace), nil
}

func isLate(checkIn time.Time, threshold time.Time) bool {
	return checkIn.After(threshold)
}

// ApplyLateness sets status=late on every present record of date whose
// check-in is past the threshold and returns how many were changed.
func (s *StatusService) ApplyLateness(date string) (int, error) {
	if date == "" {
		date = DateKey(s.Clock.Now().In(s.location()))
	}
	day, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	threshold, err := lateThreshold(day, s.WorkStart, s.Grace, s.location())
	if err != nil {
		return 0, err
	}

	now := s.Clock.Now()
	changed := 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var records []models.AttendanceRecord
		if err := forUpdate(tx).
			Where("date = ? AND status = ? AND check_in_time IS NOT NULL", date, models.StatusPresent).
			Find(&records).Error; err != nil {
			return fmt.Errorf("failed to load records: %w", err)
		}

		for _, rec := range records {
			if !isLate(rec.CheckInTime.In(s.location()), threshold) {
				continue
			}
			if err := tx.Model(&models.AttendanceRecord{}).Where("id = ?", rec.ID).
				Update("status", models.StatusLate).Error; err != nil {
				return fmt.Errorf("failed to mark record %d late: %w", rec.ID, err)
			}
			minutes := int(rec.CheckInTime.In(s.location()).Sub(threshold.Add(-s.Grace)).Minutes())
			entry := models.AttendanceLog{
				AttendanceRecordID: rec.ID,
				Timestamp:          now,
				LogType:            models.LogSystem,
				Description:        fmt.Sprintf("Marked late: checked in %d minutes after %s", minutes, s.WorkStart),
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to write attendance log: %w", err)
			}
			changed++
		}
		return nil
	})
	recordEvent("mark_late", err)
	if err != nil {
		return 0, err
	}
	log.Printf("⏰ lateness applied for %s: %d record(s) marked late", date, changed)
	return changed, nil
}
