package middleware

import (
	"time"

	applogger "MacroPulse/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RequestLogging logs each request at debug, slow ones at warn and 5xx at error.
func RequestLogging(l *applogger.Logger, slow time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			status := c.Response().Status
			elapsed := time.Since(start)
			fields := []applogger.Field{
				applogger.String("method", req.Method),
				applogger.String("route", routeOf(c)),
				applogger.Int("status", status),
				applogger.Duration("duration_ms", elapsed),
				applogger.String("remote", c.RealIP()),
			}

			switch {
			case status >= 500:
				l.Error("http request failed", fields...)
			case slow > 0 && elapsed >= slow:
				l.Warn("http request slow", fields...)
			default:
				l.Debug("http request", fields...)
			}
			return nil
		}
	}
}

// routeOf prefers the registered route template to keep label cardinality low.
func routeOf(c echo.Context) string {
	if p := c.Path(); p != "" {
		return p
	}
	return c.Request().URL.Path
}
