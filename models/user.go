package models

import "time"

const (
	UserTypeAdmin   = "admin"
	UserTypeRegular = "regular"
)

// User is an employee or administrator. ProfilePicture is the stored
// reference image used for face verification.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email          string    `gorm:"size:255" json:"email"`
	FirstName      string    `gorm:"size:150" json:"first_name"`
	LastName       string    `gorm:"size:150" json:"last_name"`
	UserType       string    `gorm:"size:10;not null;default:regular;index" json:"user_type"`
	Department     string    `gorm:"size:100;index" json:"department"`
	EmployeeID     *string   `gorm:"uniqueIndex;size:50" json:"employee_id"`
	ProfilePicture string    `gorm:"size:255" json:"profile_picture"`
	Password       string    `gorm:"size:255" json:"-"` // bcrypt hash
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.UserType == UserTypeAdmin
}
