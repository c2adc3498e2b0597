package tax

import (
	"context"

	"github.com/google/uuid"
)

// Calculator defines the interface for tax calculation.
// Implementations: PercentageCalculator, NoTaxCalculator, VATExemptCalculator
type Calculator interface {
	// CalculateTax computes tax for order line items and shipping.
	// Returns tax amount in cents.
	CalculateTax(ctx context.Context, params TaxParams) (*TaxResult, error)
}

// TaxParams contains all information needed for tax calculation.
type TaxParams struct {
	ShippingAddress Address
	LineItems       []LineItem
	ShippingCents   int32
	CustomerType    string // "retail" or "wholesale"

	// Company and VATNumber come from the customer's address. VATNumber is
	// the stored single-string form.
	Company   string
	VATNumber string
}

// Address represents a physical address for tax purposes.
type Address struct {
	Line1      string
	Line2      string
	City       string
	State      string
	PostalCode string
	Country    string
}

// LineItem represents a single item being taxed.
type LineItem struct {
	ProductID   uuid.UUID
	Description string
	Quantity    int32
	UnitPrice   int32
	TotalPrice  int32
	TaxCategory string // "standard", "reduced", etc.
}

// TaxResult contains the calculated tax amount and breakdown.
type TaxResult struct {
	TotalTaxCents int32
	Breakdown     []TaxBreakdown
	IsEstimate    bool

	// ExemptReason is set when no tax was charged because of a VAT
	// exemption: "reverse_charge" or "manual_exemption".
	ExemptReason string
}

// TaxBreakdown represents tax for a single jurisdiction.
type TaxBreakdown struct {
	Jurisdiction string  `json:"jurisdiction"` // "country", "region"
	Name         string  `json:"name"`         // e.g., "VAT"
	Rate         float64 `json:"rate"`         // e.g., 0.20 for 20%
	AmountCents  int32   `json:"amount_cents"`
}
