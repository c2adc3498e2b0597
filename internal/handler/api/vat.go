// Package api serves the JSON VAT endpoints.
package api

import (
	"net/http"

	"github.com/dukerupert/vatcheck/internal/address"
	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/handler"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// VATHandler answers VAT number checks.
type VATHandler struct {
	validator *vat.Validator
	settings  settings.Source
	logger    zerolog.Logger
}

// NewVATHandler creates a VATHandler.
func NewVATHandler(v *vat.Validator, src settings.Source, logger zerolog.Logger) *VATHandler {
	return &VATHandler{validator: v, settings: src, logger: logger}
}

// ValidateRequest is the body of POST /api/vat/validate.
type ValidateRequest struct {
	Country            string `json:"country" validate:"required,vat_country"`
	Company            string `json:"company" validate:"max=255"`
	VATNumber          string `json:"vat_number" validate:"max=32"`
	ExemptionRequested bool   `json:"exemption_requested"`
}

// ValidateResponse reports a decision. VATNumber is the value to store.
type ValidateResponse struct {
	Valid     bool                      `json:"valid"`
	VATNumber string                    `json:"vat_number"`
	Exempt    bool                      `json:"exempt"`
	Registry  string                    `json:"registry,omitempty"`
	Errors    []address.ValidationError `json:"errors,omitempty"`
}

// Validate handles POST /api/vat/validate
func (h *VATHandler) Validate(c echo.Context) error {
	const op = "vat.validate"
	ctx := c.Request().Context()

	var req ValidateRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	cfg, err := h.settings.Load(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to load VAT settings")
	}

	addr := vat.Address{
		Country:            req.Country,
		Company:            req.Company,
		VATNumber:          vat.DecodeLegacy(req.VATNumber),
		ExemptionRequested: req.ExemptionRequested,
	}
	d := h.validator.Validate(ctx, addr, cfg)
	addr.VATNumber = d.Number

	resp := ValidateResponse{
		Valid:     d.Accepted(),
		VATNumber: d.Number.Legacy(),
		Exempt:    d.Accepted() && vat.ExemptionApplies(addr, cfg),
	}
	if d.Registry != nil {
		resp.Registry = d.Registry.Status.String()
	}
	if d.Accepted() {
		return c.JSON(http.StatusOK, resp)
	}

	middleware.GetLogger(ctx, h.logger).Info().
		Str("country", req.Country).
		Str("reason", string(d.Reason)).
		Msg("VAT number rejected")

	field := "vat_number"
	if d.Reason == vat.ReasonMissingCompany {
		field = "company"
	}
	resp.Errors = []address.ValidationError{{Field: field, Message: d.Reason.Message()}}
	return c.JSON(http.StatusUnprocessableEntity, resp)
}

// CountryResponse describes VAT handling for one country.
type CountryResponse struct {
	Country    string `json:"country"`
	Applicable bool   `json:"applicable"`
	Prefix     string `json:"prefix,omitempty"`
}

// Country handles GET /api/vat/countries/:country
func (h *VATHandler) Country(c echo.Context) error {
	return c.JSON(http.StatusOK, countryInfo(c.Param("country")))
}

// Countries handles GET /api/vat/countries
func (h *VATHandler) Countries(c echo.Context) error {
	codes := vat.Countries()
	out := make([]CountryResponse, 0, len(codes))
	for _, code := range codes {
		out = append(out, countryInfo(code))
	}
	return c.JSON(http.StatusOK, out)
}

func countryInfo(country string) CountryResponse {
	prefix, ok := vat.PrefixFor(country)
	return CountryResponse{
		Country:    country,
		Applicable: ok,
		Prefix:     prefix,
	}
}
