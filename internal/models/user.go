package models

import (
	"gorm.io/gorm"
)

type User struct {
	gorm.Model          // This embeds ID, CreatedAt, UpdatedAt, and DeletedAt
	Email        string `gorm:"column:email;unique;not null"`
	IsLegitimate bool   `gorm:"column:is_legitimate;not null;default:false"`

	OTPs []OTP `gorm:"foreignKey:UserID"`
}

// TableName specifies the table name
func (User) TableName() string {
	return "users"
}

// MarkLegitimate flips the legitimacy flag on first successful verification.
// Safe to call repeatedly; an already-legitimate user stays legitimate.
func (u *User) MarkLegitimate(db *gorm.DB) error {
	if err := db.Model(&User{}).Where("id = ?", u.ID).Update("is_legitimate", true).Error; err != nil {
		return err
	}
	u.IsLegitimate = true
	return nil
}
