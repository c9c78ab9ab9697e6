// internal/middleware/user_middleware.go
package middleware

import (
	"strconv"

	"sooq-service/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

// RequireUser trusts the authenticated user id forwarded by the upstream
// gateway. Session issuance itself lives outside this service.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader("X-User-ID")
		if raw == "" {
			response.Unauthorized(c, "missing user identity")
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			response.Unauthorized(c, "invalid user identity")
			return
		}

		c.Set("user_id", userID)
		c.Next()
	}
}

// GetUserID gets the user ID from context.
func GetUserID(c *gin.Context) (int64, bool) {
	v, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	userID, ok := v.(int64)
	return userID, ok
}

// MustGetUserID gets the user ID from context or panics.
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}
