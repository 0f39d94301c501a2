package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger emits one structured line per request. Successful health probes are
// skipped so the stream stays about API traffic. Client errors log at warn,
// server errors at error.
func Logger(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()

			err := next(c)

			if req.URL.Path == "/health" && err == nil {
				return nil
			}

			status := c.Response().Status
			if httpErr, ok := err.(*echo.HTTPError); ok {
				status = httpErr.Code
			}

			evt := logger.Info()
			switch {
			case status >= 500 || (err != nil && status < 400):
				evt = logger.Error().Err(err)
			case status >= 400:
				evt = logger.Warn().Err(err)
			}

			evt.
				Str("request_id", requestID(c)).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", status).
				Dur("latency", time.Since(start)).
				Int64("bytes_out", c.Response().Size).
				Str("remote_ip", c.RealIP()).
				Msg("request")

			return err
		}
	}
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}
