package address

import "context"

// Validator defines the interface for address validation.
// Validators run when an address is created or updated.
type Validator interface {
	// Validate checks if an address is acceptable.
	// Returns the normalized address if validation succeeds.
	// Even if IsValid is false, NormalizedAddress may contain corrections.
	Validate(ctx context.Context, addr Address) (*ValidationResult, error)
}

// Address represents a physical address for shipping or billing.
type Address struct {
	Type         string `json:"type" validate:"omitempty,oneof=shipping billing"`
	FullName     string `json:"full_name" validate:"required,max=128"`
	Company      string `json:"company" validate:"max=255"`
	AddressLine1 string `json:"address_line1" validate:"required,max=255"`
	AddressLine2 string `json:"address_line2" validate:"max=255"`
	City         string `json:"city" validate:"required,max=64"`
	State        string `json:"state" validate:"max=64"`
	PostalCode   string `json:"postal_code" validate:"required,max=12"`
	Country      string `json:"country" validate:"required,vat_country"`
	Phone        string `json:"phone" validate:"max=32"`

	// VATNumber holds the stored single-string form: a VAT number, the
	// exemption flag, or empty.
	VATNumber string `json:"vat_number" validate:"max=32"`

	// ExemptionRequested is set when the customer declared an exemption
	// without giving a number. It is not stored.
	ExemptionRequested bool `json:"exemption_requested"`
}

// ValidationResult contains the outcome of address validation.
type ValidationResult struct {
	IsValid           bool
	NormalizedAddress *Address
	Errors            []ValidationError
	Warnings          []string
}

// ValidationError represents a specific validation error.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func valid(addr Address) *ValidationResult {
	return &ValidationResult{IsValid: true, NormalizedAddress: &addr}
}
