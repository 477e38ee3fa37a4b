package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/ednar28/user-admin/internal/core/domain"
)

// Authorizer decides whether an identity holds a permission.
type Authorizer interface {
	Authorize(identity *domain.Identity, permission domain.Permission) bool
}

// RequirePermission rejects callers whose role does not grant perm.
// It must run after Auth.
func RequirePermission(authz Authorizer, perm domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identity, _ := c.Get(IdentityKey).(*domain.Identity)
			if identity == nil {
				return domain.ErrUnauthenticated
			}
			if !authz.Authorize(identity, perm) {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
