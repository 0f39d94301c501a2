package middleware

import (
	"net/http"
	"runtime"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recovery converts handler panics into 500 responses so one bad request
// cannot take the server down. The panic value and stack are logged with the
// request that triggered them.
func Recovery(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					stack := make([]byte, 4096)
					n := runtime.Stack(stack, false)

					logger.Error().
						Str("request_id", requestID(c)).
						Str("method", c.Request().Method).
						Str("path", c.Request().URL.Path).
						Interface("panic", r).
						Str("stack", string(stack[:n])).
						Msg("panic recovered")

					err = echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
				}
			}()
			return next(c)
		}
	}
}
