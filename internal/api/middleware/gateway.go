package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GatewayAuth trusts user info from gateway headers (X-User-ID,
// X-User-Email). Used when the API runs behind a gateway that handles
// authentication; only safe with proper network isolation.
func GatewayAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error":   "Authentication required",
				"message": "Missing X-User-ID header from gateway",
			})
			c.Abort()
			return
		}

		c.Set("user_id", userID)
		c.Set("user_email", c.GetHeader("X-User-Email"))
		c.Next()
	}
}

// NoAuth is a pass-through middleware for when AUTH_MODE=none.
func NoAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", "anonymous")
		c.Next()
	}
}

// GetUserID retrieves the user ID set by the auth middleware.
func GetUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		return "", false
	}
	id, ok := userID.(string)
	return id, ok
}
