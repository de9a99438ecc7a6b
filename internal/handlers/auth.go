package handlers

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perkpass/perkpass-backend/internal/models"
	"github.com/perkpass/perkpass-backend/pkg/utils"
	"gorm.io/gorm"
)

type RequestAccessInput struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyOTPInput struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required"`
}

// RequestAccess ensures a user row exists for the email, issues a fresh
// access code and delivers it by email. The code itself never appears in the
// response.
func RequestAccess(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RequestAccessInput
		if err := c.ShouldBindBodyWithJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		created := false
		result := db.Where("email = ?", input.Email).First(&user)
		if result.Error != nil {
			if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
				c.JSON(500, gin.H{"error": "Failed to look up user"})
				return
			}

			user = models.User{Email: input.Email, IsLegitimate: false}
			if err := db.Create(&user).Error; err != nil {
				// A concurrent request may have won the insert; the unique
				// index on email makes that loser path safe to re-read.
				if err := db.Where("email = ?", input.Email).First(&user).Error; err != nil {
					c.JSON(500, gin.H{"error": "Failed to create user"})
					return
				}
			} else {
				created = true
			}
		}

		code, err := utils.GenerateAccessCode()
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate access code"})
			return
		}

		otpRecord := models.OTP{
			UserID:    user.ID,
			Code:      code,
			ExpiresAt: time.Now().Add(utils.OTPExpiration),
		}

		if result := db.Create(&otpRecord); result.Error != nil {
			c.JSON(500, gin.H{"error": "Failed to generate access code"})
			return
		}

		// Both sends are best-effort: a dead SMTP server must not undo the
		// rows above or fail the request. The caller can always re-request.
		if created {
			if adminEmail := os.Getenv("ADMIN_EMAIL"); adminEmail != "" {
				if err := utils.SendNewUserAlert(adminEmail, user.Email); err != nil {
					log.Printf("Failed to send new user alert for %s: %v", user.Email, err)
				}
			}
		}
		if err := utils.SendAccessCodeEmail(user.Email, code); err != nil {
			log.Printf("Failed to send access code to %s: %v", user.Email, err)
		}

		c.JSON(200, gin.H{"message": "OTP sent to your email."})
	}
}

// VerifyOTP checks a submitted code against the user's most recent unused,
// unexpired one and marks the user legitimate on a match.
func VerifyOTP(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input VerifyOTPInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var user models.User
		if result := db.Where("email = ?", input.Email).First(&user); result.Error != nil {
			c.JSON(401, gin.H{"error": "user not found"})
			return
		}

		// Latest eligible code wins; the id tie-break keeps selection
		// deterministic when two codes share a created_at.
		var otpRecord models.OTP
		if result := db.Where("user_id = ? AND used = ? AND expires_at > ?",
			user.ID, false, time.Now()).
			Order("created_at DESC, id DESC").
			First(&otpRecord); result.Error != nil {
			c.JSON(400, gin.H{"error": "invalid or expired code"})
			return
		}

		if otpRecord.Code != input.OTP {
			c.JSON(400, gin.H{"error": "invalid or expired code"})
			return
		}

		consumed := false
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			consumed, err = otpRecord.Consume(tx)
			if err != nil {
				return err
			}
			if !consumed {
				return nil
			}
			return user.MarkLegitimate(tx)
		})
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to verify user"})
			return
		}
		if !consumed {
			// A concurrent verification consumed the code first.
			c.JSON(400, gin.H{"error": "invalid or expired code"})
			return
		}

		token, err := utils.GenerateToken(&user)
		if err != nil {
			c.JSON(500, gin.H{"error": "Failed to generate token"})
			return
		}

		c.JSON(200, gin.H{
			"message": "User verified successfully.",
			"token":   token,
		})
	}
}
