package auth

import (
	"github.com/labstack/echo/v4"
)

// RequireAdmin rejects anonymous callers with 401 and non-admins with 403.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := RequireAdminIdentity(c.Request().Context()); err != nil {
				return err
			}
			return next(c)
		}
	}
}
