package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/perkpass/perkpass-backend/internal/clients"
)

// GetUserCoupons proxies the caller's coupon list from the finance service.
// The email comes from the verified token, never from the request.
func GetUserCoupons(finance *clients.FinanceClient) gin.HandlerFunc {
	return func(c *gin.Context) {
		email, ok := c.Get("userEmail")
		if !ok {
			c.JSON(401, gin.H{"error": "Authentication required"})
			return
		}

		employeeID := c.Query("employeeId")
		if employeeID == "" {
			c.JSON(400, gin.H{"error": "employeeId query parameter required"})
			return
		}

		coupons, err := finance.GetUserCoupons(c.Request.Context(), email.(string), employeeID)
		if err != nil {
			c.JSON(502, gin.H{"error": "Failed to fetch coupons"})
			return
		}

		c.JSON(200, gin.H{"coupons": coupons})
	}
}
