package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// RequireOwner reads the caller identity from X-User-Id and stores it in
// the gin context. Requests without an identity are rejected before any
// handler runs; every record access downstream is scoped to this value.
func RequireOwner() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-Id"))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing X-User-Id header"})
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID returns the caller identity set by RequireOwner.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
