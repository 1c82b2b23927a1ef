package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"taskhub/internal/api/response"
	"taskhub/internal/services"

	"github.com/gin-gonic/gin"
)

const (
	userIdContextKey = "user_id"
	ADMIN_KEY_HEADER = "X-Admin-Key"
)

func JWTAuth(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			response.Fail(c, http.StatusUnauthorized, response.MESSAGE_UNAUTHORIZED)
			return
		}
		userId, err := auth.ParseToken(token)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Set(userIdContextKey, userId)
		c.Next()
	}
}

// UserId returns the authenticated user, 0 outside JWTAuth.
func UserId(c *gin.Context) int64 {
	return c.GetInt64(userIdContextKey)
}

func tokenFromRequest(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// AdminKey guards operator routes. An empty configured key locks them entirely.
func AdminKey(key string) gin.HandlerFunc {
	expected := []byte(strings.TrimSpace(key))
	return func(c *gin.Context) {
		provided := []byte(strings.TrimSpace(c.GetHeader(ADMIN_KEY_HEADER)))
		if len(expected) == 0 || subtle.ConstantTimeCompare(provided, expected) != 1 {
			response.Fail(c, http.StatusForbidden, response.MESSAGE_FORBIDDEN)
			return
		}
		c.Next()
	}
}
