package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFromContext(c)

		if !ok || p.Role == "" {
			m.prom.IncAuthFailure("missing_token")
			abort(c, http.StatusUnauthorized, "unauthorized", "Missing identity context")
			return
		}
		if p.Role != required {
			m.prom.IncAuthFailure("forbidden")
			abort(c, http.StatusForbidden, "forbidden", "Access denied: "+required+" role required")
			return
		}
		c.Next()
	}
}
