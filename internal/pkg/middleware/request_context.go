package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/jkarimi/pesaflow/internal/pkg/requestcontext"
)

// RequestContextMiddleware attaches a per-request context carrying the
// request, trace and user identifiers, and echoes the identifiers back as
// response headers so callers can correlate callbacks with support tickets.
func RequestContextMiddleware(serviceName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqCtx := requestcontext.FromEchoContext(c)
			reqCtx.ServiceName = serviceName

			ctx := requestcontext.WithRequestContext(c.Request().Context(), reqCtx)
			c.SetRequest(c.Request().WithContext(ctx))

			c.Response().Header().Set("X-Request-ID", reqCtx.RequestID)
			c.Response().Header().Set("X-Trace-ID", reqCtx.TraceID)

			return next(c)
		}
	}
}
