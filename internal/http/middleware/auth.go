package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nurpe/erp-console/internal/auth"
	"github.com/nurpe/erp-console/internal/http/response"
	"github.com/nurpe/erp-console/internal/model"
	"github.com/nurpe/erp-console/internal/service"
)

const principalKey = "principal"

type TokenParser interface {
	Parse(raw string) (auth.Claims, error)
}

type PrincipalResolver interface {
	Resolve(ctx context.Context, claims auth.Claims) (model.Principal, error)
}

// Auth authenticates the Bearer token and stores the caller's principal.
func Auth(parser TokenParser, resolver PrincipalResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, found := strings.CutPrefix(header, "Bearer ")
		raw = strings.TrimSpace(raw)
		if !found || raw == "" {
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "missing bearer token")
			return
		}

		claims, err := parser.Parse(raw)
		if err != nil {
			if errors.Is(err, auth.ErrTokenExpired) {
				response.Error(c, http.StatusUnauthorized, response.CodeSessionExpired, "session expired")
				return
			}
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token")
			return
		}

		principal, err := resolver.Resolve(c.Request.Context(), claims)
		switch {
		case errors.Is(err, service.ErrSessionExpired):
			response.Error(c, http.StatusUnauthorized, response.CodeSessionExpired, "session expired")
			return
		case errors.Is(err, service.ErrUserBlocked):
			response.Error(c, http.StatusUnauthorized, response.CodeUserBlocked, "user is blocked")
			return
		case err != nil:
			response.Error(c, http.StatusInternalServerError, response.CodeInternal, "internal error")
			return
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func MustPrincipal(c *gin.Context) (model.Principal, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return model.Principal{}, false
	}
	principal, ok := value.(model.Principal)
	return principal, ok
}
