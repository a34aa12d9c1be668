package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	LogCheckIn     = "check_in"
	LogCheckOut    = "check_out"
	LogManualEntry = "manual_entry"
	LogSystem      = "system"
)

var ErrLogImmutable = errors.New("attendance_log_immutable")

// AttendanceLog is an append-only child of AttendanceRecord. Details holds the
// verification report captured when the event was recorded.
type AttendanceLog struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AttendanceRecordID uint           `gorm:"column:attendance_record_id;not null;index" json:"attendance_record"`
	Timestamp          time.Time      `gorm:"column:timestamp;not null;index" json:"timestamp"`
	LogType            string         `gorm:"column:log_type;size:20;not null" json:"log_type"`
	Description        string         `gorm:"column:description;type:text" json:"description"`
	LocationData       *string        `gorm:"column:location_data;size:255" json:"location_data"`
	QRData             *string        `gorm:"column:qr_data;size:255" json:"qr_data"`
	Details            datatypes.JSON `gorm:"column:details" json:"details,omitempty"`
}

func (l *AttendanceLog) BeforeUpdate(tx *gorm.DB) error {
	return ErrLogImmutable
}

func (l *AttendanceLog) BeforeDelete(tx *gorm.DB) error {
	return ErrLogImmutable
}
