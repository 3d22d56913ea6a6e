package delivery

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"chatsaid-backend/internal/auth/usecase"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware requires a bearer token and sets "user" and "userID"
func AuthMiddleware(authUsecase usecase.AuthUsecase) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		token := parts[1]
		user, err := authUsecase.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user", user)
		c.Set("userID", user.ID)
		c.Next()
	}
}

// SharedTokenMiddleware guards machine-to-machine webhooks with a static
// token in header. An empty expected token rejects every request.
func SharedTokenMiddleware(header, expected string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(header)
		if expected == "" || subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook token"})
			c.Abort()
			return
		}
		c.Next()
	}
}
