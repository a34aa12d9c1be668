package models

import "time"

// QRCode is a time-bounded check-in token. Rows are never deleted; revocation
// only flips IsActive.
type QRCode struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Code      string    `gorm:"uniqueIndex;size:255;not null" json:"code"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `gorm:"not null;index" json:"expires_at"`
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`

	// "lat,lng,radius_meters"
	LocationConstraint *string `gorm:"size:255" json:"location_constraint,omitempty"`
}

func (q QRCode) IsExpired(now time.Time) bool {
	return now.After(q.ExpiresAt)
}

func (q QRCode) IsUsable(now time.Time) bool {
	return q.IsActive && !q.IsExpired(now)
}
