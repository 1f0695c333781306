package middleware

import (
	"github.com/gin-gonic/gin"

	"incidentlog/internal/apperr"
	"incidentlog/internal/auth"
)

// RequireRole must be mounted after Gate.Required. A request that reaches
// it without an identity is rejected as unauthenticated.
func RequireRole(allowedRoles ...auth.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := auth.CurrentUser(c)
		if !ok {
			_ = c.Error(apperr.Unauthenticated(msgAuthRequired))
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if user.Role == allowed {
				c.Next()
				return
			}
		}

		_ = c.Error(apperr.Forbidden(msgAdminRequired))
		c.Abort()
	}
}
