package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Provider resolves the caller of a request. nil means anonymous.
type Provider interface {
	Authenticate(r *http.Request) *Identity
}

// Middleware attaches the caller's identity to the request context. It never
// rejects a request; route groups decide with RequireAuthenticated and
// RequireAdmin.
func Middleware(p Provider) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id := p.Authenticate(c.Request()); id != nil {
				ctx := WithIdentity(c.Request().Context(), id)
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// RequireAuthenticated rejects anonymous callers with 401 and a login hint.
func RequireAuthenticated() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, err := Require(c.Request().Context()); err != nil {
				return err
			}
			return next(c)
		}
	}
}
