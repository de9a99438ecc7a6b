package middleware

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/perkpass/perkpass-backend/internal/services"
)

const (
	otpRequestLimit  = 5
	otpRequestWindow = 15 * time.Minute
)

// OTPRateLimit caps how many access codes a single email can request per
// window. Redis errors fail open: throttling is protection, not a
// correctness requirement, and an unreachable Redis must not take the login
// flow down with it.
func OTPRateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email string `json:"email"`
		}

		if err := c.ShouldBindBodyWithJSON(&input); err != nil || input.Email == "" {
			// Let the handler produce the binding error.
			c.Next()
			return
		}

		count, err := services.CountOTPRequest(c.Request.Context(), input.Email, otpRequestWindow)
		if err != nil {
			log.Printf("Rate limit check failed for %s: %v", input.Email, err)
			c.Next()
			return
		}

		if count > otpRequestLimit {
			c.JSON(429, gin.H{"error": "Too many access requests. Try again later."})
			c.Abort()
			return
		}

		c.Next()
	}
}
