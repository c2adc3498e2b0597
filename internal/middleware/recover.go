package middleware

import (
	"fmt"
	"net/http"

	"github.com/dukerupert/vatcheck/internal/telemetry"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Recover turns panics into 500 responses and reports them to Sentry.
func Recover(logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				r := recover()
				if r == nil {
					return
				}
				if r == http.ErrAbortHandler {
					panic(r)
				}

				perr, ok := r.(error)
				if !ok {
					perr = fmt.Errorf("%v", r)
				}
				ctx := c.Request().Context()
				GetLogger(ctx, logger).Error().Err(perr).Msg("panic recovered")
				telemetry.CaptureError(ctx, perr, map[string]any{
					"request_id": GetRequestID(c),
					"route":      c.Path(),
				})
				err = echo.NewHTTPError(http.StatusInternalServerError).SetInternal(perr)
			}()
			return next(c)
		}
	}
}
