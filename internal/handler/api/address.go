package api

import (
	"context"
	"net/http"

	"github.com/dukerupert/vatcheck/internal/address"
	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/handler"
	"github.com/dukerupert/vatcheck/internal/middleware"
	"github.com/dukerupert/vatcheck/internal/postgres"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
)

// AddressStore persists addresses. *postgres.AddressStore satisfies it.
type AddressStore interface {
	Create(ctx context.Context, customerID string, addr address.Address) (*postgres.AddressRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*postgres.AddressRecord, error)
}

// ExemptionSyncer pushes a customer's exemption status to the payment
// provider. *billing.TaxExemptionSync satisfies it.
type ExemptionSyncer interface {
	Sync(ctx context.Context, customerID string, addr vat.Address, cfg vat.Config) (stripe.CustomerTaxExempt, error)
}

// AddressHandler validates and stores customer addresses. Each request
// works from a single settings snapshot shared by the VAT check and the
// exemption sync.
type AddressHandler struct {
	basic    address.Validator
	vat      *vat.Validator
	store    AddressStore
	settings settings.Source
	sync     ExemptionSyncer // nil when Stripe is not configured
	logger   zerolog.Logger
}

// NewAddressHandler creates an AddressHandler. basic runs before the VAT
// check; sync may be nil.
func NewAddressHandler(basic address.Validator, v *vat.Validator, store AddressStore, src settings.Source, sync ExemptionSyncer, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		basic:    basic,
		vat:      v,
		store:    store,
		settings: src,
		sync:     sync,
		logger:   logger,
	}
}

// CreateAddressRequest is the body of POST /api/addresses.
type CreateAddressRequest struct {
	CustomerID       string `json:"customer_id" validate:"required,max=64"`
	StripeCustomerID string `json:"stripe_customer_id" validate:"omitempty,startswith=cus_"`

	// Address fields are checked by the address validators after trimming.
	address.Address `validate:"-"`
}

// AddressResponse is a stored address.
type AddressResponse struct {
	*postgres.AddressRecord
	TaxExempt string `json:"tax_exempt,omitempty"`
}

// Create handles POST /api/addresses
func (h *AddressHandler) Create(c echo.Context) error {
	const op = "address.create"
	ctx := c.Request().Context()
	logger := middleware.GetLogger(ctx, h.logger)

	var req CreateAddressRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	cfg, err := h.settings.Load(ctx)
	if err != nil {
		return domain.Internal(err, op, "failed to load VAT settings")
	}

	chain := address.Chain{h.basic, address.NewVATValidator(h.vat, settings.Static(cfg))}
	result, err := chain.Validate(ctx, req.Address)
	if err != nil {
		return err
	}
	if !result.IsValid {
		return resultError(op, result.Errors)
	}

	rec, err := h.store.Create(ctx, req.CustomerID, *result.NormalizedAddress)
	if err != nil {
		return err
	}

	resp := AddressResponse{AddressRecord: rec}
	if h.sync != nil && req.StripeCustomerID != "" {
		resp.TaxExempt = h.syncExemption(ctx, logger, req.StripeCustomerID, rec, cfg)
	}

	logger.Info().
		Str("address_id", rec.ID.String()).
		Str("country", rec.Address.Country).
		Str("vat_kind", rec.VAT().Kind().String()).
		Msg("address created")

	return c.JSON(http.StatusCreated, resp)
}

// syncExemption returns the status pushed to Stripe, or "" when the push
// failed. The stored address is kept either way.
func (h *AddressHandler) syncExemption(ctx context.Context, logger *zerolog.Logger, customerID string, rec *postgres.AddressRecord, cfg vat.Config) string {
	status, err := h.sync.Sync(ctx, customerID, vat.Address{
		Country:   rec.Address.Country,
		Company:   rec.Address.Company,
		VATNumber: rec.VAT(),
	}, cfg)
	if err != nil {
		logger.Error().Err(err).
			Str("stripe_customer_id", customerID).
			Msg("failed to sync tax exemption")
		return ""
	}
	return string(status)
}

// Get handles GET /api/addresses/:id
func (h *AddressHandler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return domain.Invalid("address.get", "invalid address id")
	}

	rec, err := h.store.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AddressResponse{AddressRecord: rec})
}

// resultError keeps the first message reported for each field.
func resultError(op string, errs []address.ValidationError) error {
	var err error
	for _, e := range errs {
		if err == nil {
			err = domain.NewValidationError(op, e.Field, e.Message)
			continue
		}
		if _, seen := domain.GetValidationFields(err)[e.Field]; !seen {
			err = domain.AddFieldError(err, e.Field, e.Message)
		}
	}
	if err == nil {
		err = domain.NewValidationError(op, "address", "Address is invalid")
	}
	return err
}
