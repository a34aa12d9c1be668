package models

import "time"

const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusHalfDay = "half_day"
)

// ValidStatus reports whether s is one of the record statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusHalfDay:
		return true
	}
	return false
}

// AttendanceRecord is the single per-user-per-day attendance row. The
// (user_id, date) pair is unique at the storage layer.
type AttendanceRecord struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID uint   `gorm:"column:user_id;not null;uniqueIndex:idx_attendance_user_date" json:"user"`
	Date   string `gorm:"column:date;type:varchar(10);not null;uniqueIndex:idx_attendance_user_date;index" json:"date"`

	CheckInTime  *time.Time `gorm:"column:check_in_time" json:"check_in_time"`
	CheckOutTime *time.Time `gorm:"column:check_out_time" json:"check_out_time"`
	Status       string     `gorm:"column:status;size:10;not null;default:absent;index" json:"status"`

	QRCodeData *string `gorm:"column:qr_code_data;size:255" json:"qr_code_data"`
	QRVerified bool    `gorm:"column:qr_verified;not null;default:false" json:"qr_verified"`

	CheckInLocation  *string `gorm:"column:check_in_location;size:255" json:"check_in_location"`
	CheckOutLocation *string `gorm:"column:check_out_location;size:255" json:"check_out_location"`
	GeoVerified      bool    `gorm:"column:geo_verified;not null;default:false" json:"geo_verified"`

	FaceImageCheckIn  *string `gorm:"column:face_image_check_in;size:255" json:"face_image_check_in"`
	FaceImageCheckOut *string `gorm:"column:face_image_check_out;size:255" json:"face_image_check_out"`
	FaceVerified      bool    `gorm:"column:face_verified;not null;default:false" json:"face_verified"`

	Notes string `gorm:"column:notes;type:text" json:"notes"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	User *User           `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user_details,omitempty"`
	Logs []AttendanceLog `gorm:"foreignKey:AttendanceRecordID;constraint:OnDelete:CASCADE" json:"logs"`
}
