package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get("request_id").(string)

			err := next(c)
			if err != nil {
				// Let echo write the error response so the logged status is final.
				c.Error(err)
			}
			status := c.Response().Status

			evt := logger.Info()
			switch {
			case status >= 500:
				evt = logger.Error().Err(err)
			case status >= 400:
				evt = logger.Warn().Err(err)
			}

			if sc := trace.SpanContextFromContext(req.Context()); sc.IsValid() {
				evt = evt.Str("trace_id", sc.TraceID().String())
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("route", c.Path()).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return nil
		}
	}
}
