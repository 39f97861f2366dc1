// api/middleware/auth.go
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// contextKey is a type for context keys
type contextKey string

// UserContextKey is where the authenticated user lives in the gin context
const UserContextKey contextKey = "user"

// UserAuth middleware validates API tokens from the Authorization header
// and stores the matching user in the request context.
func UserAuth(svc service.Service, log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid Authorization header format. Expected: 'Bearer {token}'",
			})
			c.Abort()
			return
		}

		user, err := svc.GetUserByAPIToken(c.Request.Context(), parts[1])
		if err != nil {
			log.WithError(err).Warn("Invalid API token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid API token",
			})
			c.Abort()
			return
		}

		if !user.IsActive {
			log.Warnf("Inactive user attempted to authenticate: %s", user.Username)
			c.JSON(http.StatusForbidden, gin.H{
				"error": "User account is inactive",
			})
			c.Abort()
			return
		}

		c.Set(string(UserContextKey), user)
		c.Next()
	}
}

// RequireManager rejects requests from users below the manager role.
// It must run after UserAuth.
func RequireManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := GetUserFromContext(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authentication required",
			})
			c.Abort()
			return
		}

		if !user.CanManage() {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserFromContext retrieves the authenticated user from the context
func GetUserFromContext(c *gin.Context) (*models.User, error) {
	userVal, exists := c.Get(string(UserContextKey))
	if !exists {
		return nil, errors.New("user not found in context")
	}

	user, ok := userVal.(*models.User)
	if !ok {
		return nil, errors.New("user in context has incorrect type")
	}

	return user, nil
}
