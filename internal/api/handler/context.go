package handler

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ednar28/user-admin/internal/api/middleware"
	"github.com/ednar28/user-admin/internal/core/domain"
)

// ctxIdentity returns the caller injected by the Auth middleware. A missing
// identity means the route was mounted without Auth and is treated as 401.
func ctxIdentity(c echo.Context) (*domain.Identity, error) {
	identity, _ := c.Get(middleware.IdentityKey).(*domain.Identity)
	if identity == nil {
		return nil, domain.ErrUnauthenticated
	}
	return identity, nil
}

// pathID parses the :id route parameter. Anything that is not a positive
// integer cannot name a user, so it is reported as not found.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.ErrUserNotFound
	}
	return id, nil
}
