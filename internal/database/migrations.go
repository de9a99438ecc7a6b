package database

import (
	"github.com/perkpass/perkpass-backend/internal/models"
	"gorm.io/gorm"
)

func RunMigrations(db *gorm.DB) error {
	// Create tables if they don't exist
	err := db.AutoMigrate(
		&models.User{},
		&models.OTP{},
	)
	if err != nil {
		return err
	}

	// Email is the business key. The unique index is what actually prevents two
	// concurrent request-access calls from inserting the same address twice;
	// the handler-level find-or-create alone cannot.
	if err := db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (email)`).Error; err != nil {
		return err
	}

	// Verification always scans one user's codes newest-first.
	if err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_otps_user_created ON otps (user_id, created_at DESC)`).Error; err != nil {
		return err
	}

	return nil
}
