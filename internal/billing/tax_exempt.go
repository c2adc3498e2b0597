package billing

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/customer"
	"github.com/stripe/stripe-go/v82/taxid"
)

// customerAPI is the part of the Stripe API the sync needs.
type customerAPI interface {
	SetTaxExempt(ctx context.Context, customerID string, status stripe.CustomerTaxExempt) error
	AddVATID(ctx context.Context, customerID, value string) error
}

// StripeMetrics observes Stripe call latency. *telemetry.VATMetrics satisfies it.
type StripeMetrics interface {
	ObserveStripeCall(operation string, d time.Duration)
}

// TaxExemptionSync pushes a customer's VAT exemption to Stripe so that
// Stripe invoices and Stripe Tax apply the reverse charge.
type TaxExemptionSync struct {
	api    customerAPI
	logger zerolog.Logger
}

// NewTaxExemptionSync creates a sync that talks to Stripe with apiKey.
func NewTaxExemptionSync(apiKey string, logger zerolog.Logger, metrics StripeMetrics) (*TaxExemptionSync, error) {
	if !strings.HasPrefix(apiKey, "sk_") && !strings.HasPrefix(apiKey, "rk_") {
		return nil, ErrInvalidAPIKey
	}

	backend := stripe.GetBackend(stripe.APIBackend)
	api := &stripeCustomerAPI{
		customers: &customer.Client{B: backend, Key: apiKey},
		taxIDs:    &taxid.Client{B: backend, Key: apiKey},
		metrics:   metrics,
	}
	return newTaxExemptionSync(api, logger), nil
}

func newTaxExemptionSync(api customerAPI, logger zerolog.Logger) *TaxExemptionSync {
	return &TaxExemptionSync{api: api, logger: logger}
}

// ExemptStatus returns the Stripe tax_exempt value for an address.
func ExemptStatus(addr vat.Address, cfg vat.Config) stripe.CustomerTaxExempt {
	switch {
	case !vat.ExemptionApplies(addr, cfg):
		return stripe.CustomerTaxExemptNone
	case addr.VATNumber.IsManualExemption():
		return stripe.CustomerTaxExemptExempt
	default:
		return stripe.CustomerTaxExemptReverse
	}
}

// Sync sets the Stripe customer's tax_exempt status from addr and, for the
// reverse charge, attaches the VAT number as an eu_vat tax ID.
func (s *TaxExemptionSync) Sync(ctx context.Context, customerID string, addr vat.Address, cfg vat.Config) (stripe.CustomerTaxExempt, error) {
	if customerID == "" {
		return "", ErrMissingCustomer
	}

	status := ExemptStatus(addr, cfg)
	if err := s.api.SetTaxExempt(ctx, customerID, status); err != nil {
		return "", err
	}

	if status == stripe.CustomerTaxExemptReverse {
		err := s.api.AddVATID(ctx, customerID, addr.VATNumber.String())
		var stripeErr *StripeError
		if errors.As(err, &stripeErr) && stripeErr.IsInvalidTaxID() {
			// Keep the exemption; the registry already accepted the number.
			s.logger.Warn().Err(err).
				Str("customer_id", customerID).
				Str("vat_number", addr.VATNumber.String()).
				Msg("stripe rejected VAT number as tax ID")
		} else if err != nil {
			return "", err
		}
	}

	s.logger.Info().
		Str("customer_id", customerID).
		Str("tax_exempt", string(status)).
		Msg("stripe tax exemption synced")

	return status, nil
}

type stripeCustomerAPI struct {
	customers *customer.Client
	taxIDs    *taxid.Client
	metrics   StripeMetrics
}

func (a *stripeCustomerAPI) SetTaxExempt(ctx context.Context, customerID string, status stripe.CustomerTaxExempt) error {
	params := &stripe.CustomerParams{
		TaxExempt: stripe.String(string(status)),
	}
	params.Context = ctx

	defer a.observe("update_customer", time.Now())
	_, err := a.customers.Update(customerID, params)
	return wrapStripeError(err, "failed to update customer tax status")
}

func (a *stripeCustomerAPI) AddVATID(ctx context.Context, customerID, value string) error {
	params := &stripe.TaxIDParams{
		Customer: stripe.String(customerID),
		Type:     stripe.String(string(stripe.TaxIDTypeEUVAT)),
		Value:    stripe.String(value),
	}
	params.Context = ctx

	defer a.observe("create_tax_id", time.Now())
	_, err := a.taxIDs.New(params)
	return wrapStripeError(err, "failed to attach VAT number")
}

func (a *stripeCustomerAPI) observe(operation string, start time.Time) {
	if a.metrics != nil {
		a.metrics.ObserveStripeCall(operation, time.Since(start))
	}
}
