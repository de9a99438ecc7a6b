package models

import (
	"time"

	"gorm.io/gorm"
)

// OTP model for storing one-time passwords
type OTP struct {
	gorm.Model
	UserID    uint      `json:"user_id"`
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
	Used      bool      `json:"used" gorm:"default:false"`
}

// IsValid checks if the OTP is valid (not expired and not used)
func (o *OTP) IsValid() bool {
	return !o.Used && time.Now().Before(o.ExpiresAt)
}

// Consume marks the OTP as used, but only if it is still unused. Returns
// false when a concurrent verification already consumed it, so two callers
// racing on the same code cannot both succeed.
func (o *OTP) Consume(db *gorm.DB) (bool, error) {
	result := db.Model(&OTP{}).
		Where("id = ? AND used = ?", o.ID, false).
		Update("used", true)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}
	o.Used = true
	return true, nil
}
