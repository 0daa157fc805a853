package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/mdt/mdt/internal/platform/apperr"
)

// RequestTimeout bounds each request with a context deadline. The handler
// runs on the request goroutine; when it gives up with the bare deadline
// error the client gets 504 with the standard error body. Service errors
// (including Unavailable from a store deadline) pass through unchanged.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	if timeout <= 0 {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return echomw.ContextTimeoutWithConfig(echomw.ContextTimeoutConfig{
		Timeout:      timeout,
		ErrorHandler: timeoutError,
	})
}

func timeoutError(err error, c echo.Context) error {
	var appErr *apperr.AppError
	if errors.Is(err, context.DeadlineExceeded) && !errors.As(err, &appErr) {
		return gatewayTimeout(c)
	}
	return err
}

func gatewayTimeout(c echo.Context) error {
	if c.Response().Committed {
		return nil
	}
	return c.JSON(http.StatusGatewayTimeout, ErrorBody{
		Code:    "TIMEOUT",
		Message: "request processing exceeded the allowed time limit",
	})
}
