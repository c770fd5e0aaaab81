package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/erp-console/internal/http/response"
)

// RequirePermission lets the request through when the principal holds at
// least one of codes. It must run after Auth.
func RequirePermission(codes ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := MustPrincipal(c)
		if !ok {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing principal")
			return
		}
		if len(codes) > 0 && !principal.CanAny(codes...) {
			response.Error(c, http.StatusForbidden, response.CodePermissionDenied, "permission denied")
			return
		}
		c.Next()
	}
}
