package api

import (
	"math"
	"net/http"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/handler"
	"github.com/dukerupert/vatcheck/internal/tax"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// TaxHandler quotes tax for a basket. Exempt addresses are zero-rated by
// the calculator chain.
type TaxHandler struct {
	calculator tax.Calculator
}

// NewTaxHandler creates a TaxHandler.
func NewTaxHandler(calc tax.Calculator) *TaxHandler {
	return &TaxHandler{calculator: calc}
}

// QuoteRequest is the body of POST /api/tax/quote.
type QuoteRequest struct {
	Country       string          `json:"country" validate:"required,vat_country"`
	PostalCode    string          `json:"postal_code" validate:"max=12"`
	Company       string          `json:"company" validate:"max=255"`
	VATNumber     string          `json:"vat_number" validate:"max=32"`
	CustomerType  string          `json:"customer_type" validate:"omitempty,oneof=retail wholesale"`
	ShippingCents int32           `json:"shipping_cents" validate:"gte=0"`
	LineItems     []QuoteLineItem `json:"line_items" validate:"required,min=1,dive"`
}

type QuoteLineItem struct {
	ProductID   uuid.UUID `json:"product_id"`
	Description string    `json:"description" validate:"max=255"`
	Quantity    int32     `json:"quantity" validate:"gt=0"`
	UnitPrice   int32     `json:"unit_price" validate:"gte=0"`
}

// QuoteResponse is the computed tax.
type QuoteResponse struct {
	TaxCents     int32              `json:"tax_cents"`
	ExemptReason string             `json:"exempt_reason,omitempty"`
	Breakdown    []tax.TaxBreakdown `json:"breakdown"`
}

// Quote handles POST /api/tax/quote
func (h *TaxHandler) Quote(c echo.Context) error {
	const op = "tax.quote"

	var req QuoteRequest
	if err := handler.Bind(c, &req); err != nil {
		return err
	}

	items := make([]tax.LineItem, 0, len(req.LineItems))
	for _, li := range req.LineItems {
		total := int64(li.Quantity) * int64(li.UnitPrice)
		if total > math.MaxInt32 {
			return domain.Invalid(op, "line item total is too large")
		}
		items = append(items, tax.LineItem{
			ProductID:   li.ProductID,
			Description: li.Description,
			Quantity:    li.Quantity,
			UnitPrice:   li.UnitPrice,
			TotalPrice:  int32(total),
		})
	}

	result, err := h.calculator.CalculateTax(c.Request().Context(), tax.TaxParams{
		ShippingAddress: tax.Address{Country: req.Country, PostalCode: req.PostalCode},
		LineItems:       items,
		ShippingCents:   req.ShippingCents,
		CustomerType:    req.CustomerType,
		Company:         req.Company,
		VATNumber:       req.VATNumber,
	})
	if err != nil {
		return err
	}

	breakdown := result.Breakdown
	if breakdown == nil {
		breakdown = []tax.TaxBreakdown{}
	}
	return c.JSON(http.StatusOK, QuoteResponse{
		TaxCents:     result.TotalTaxCents,
		ExemptReason: result.ExemptReason,
		Breakdown:    breakdown,
	})
}
