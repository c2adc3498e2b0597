package api

import (
	"net/http"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// SettingsHandler reads and writes the VAT configuration.
type SettingsHandler struct {
	source settings.Source
	logger zerolog.Logger
}

// NewSettingsHandler creates a SettingsHandler. Writes are only possible
// when src is a settings.Store.
func NewSettingsHandler(src settings.Source, logger zerolog.Logger) *SettingsHandler {
	return &SettingsHandler{source: src, logger: logger}
}

// Get handles GET /api/vat/settings
func (h *SettingsHandler) Get(c echo.Context) error {
	cfg, err := h.source.Load(c.Request().Context())
	if err != nil {
		return domain.Internal(err, "settings.get", "failed to load VAT settings")
	}
	return c.JSON(http.StatusOK, cfg)
}

// Update handles PUT /api/vat/settings
func (h *SettingsHandler) Update(c echo.Context) error {
	const op = "settings.update"
	ctx := c.Request().Context()

	store, ok := h.source.(settings.Store)
	if !ok {
		return domain.NotImplemented(op, "VAT settings are read-only in this deployment")
	}

	// Save normalizes the country before validating it.
	var cfg vat.Config
	if err := c.Bind(&cfg); err != nil {
		return domain.WrapError(err, domain.EINVALID, op, "malformed request body")
	}

	logger := middleware.GetLogger(ctx, h.logger)
	if err := store.Save(ctx, cfg); err != nil {
		if domain.IsCode(err, domain.EINVALID) {
			logger.Warn().Err(err).Msg("rejected VAT settings update")
		}
		return err
	}

	logger.Info().
		Bool("management_enabled", cfg.ManagementEnabled).
		Bool("manual_mode_enabled", cfg.ManualModeEnabled).
		Bool("auto_check_enabled", cfg.AutoCheckEnabled).
		Str("excluded_country", cfg.ExcludedCountry).
		Msg("VAT settings updated")

	saved, err := store.Load(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to reload VAT settings")
	}
	return c.JSON(http.StatusOK, saved)
}
