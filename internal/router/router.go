// Package router assembles the HTTP server routes.
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/dukerupert/vatcheck/internal/handler"
	"github.com/dukerupert/vatcheck/internal/handler/api"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Config holds the handlers and middleware the router wires together.
// Addresses may be nil when no database is configured.
type Config struct {
	Logger    zerolog.Logger
	Metrics   *middleware.Metrics
	VAT       *api.VATHandler
	Addresses *api.AddressHandler
	Settings  *api.SettingsHandler
	Tax       *api.TaxHandler

	// Ping checks dependencies for /health. Nil means always healthy.
	Ping func(ctx context.Context) error
}

// New builds the echo server with global middleware and every route.
func New(cfg Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewRequestValidator()
	e.HTTPErrorHandler = handler.HTTPErrorHandler(cfg.Logger)

	// Order matters: the request ID must exist before the logger reads it,
	// and Recover must sit inside the logger so panics are logged as 500s.
	e.Use(middleware.RequestID())
	if cfg.Metrics != nil {
		e.Use(cfg.Metrics.Middleware())
	}
	e.Use(middleware.RequestLogger(cfg.Logger))
	e.Use(middleware.Recover(cfg.Logger))

	e.GET("/health", health(cfg.Ping))
	if cfg.Metrics != nil {
		e.GET("/metrics", cfg.Metrics.Handler())
	}

	g := e.Group("/api")

	if cfg.VAT != nil {
		g.POST("/vat/validate", cfg.VAT.Validate)
		g.GET("/vat/countries", cfg.VAT.Countries)
		g.GET("/vat/countries/:country", cfg.VAT.Country)
	}
	if cfg.Settings != nil {
		g.GET("/vat/settings", cfg.Settings.Get)
		g.PUT("/vat/settings", cfg.Settings.Update)
	}
	if cfg.Tax != nil {
		g.POST("/tax/quote", cfg.Tax.Quote)
	}
	if cfg.Addresses != nil {
		g.POST("/addresses", cfg.Addresses.Create)
		g.GET("/addresses/:id", cfg.Addresses.Get)
	}

	return e
}

func health(ping func(ctx context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}
