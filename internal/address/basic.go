package address

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/go-playground/validator/v10"
)

// BasicValidator performs field format validation without external calls.
type BasicValidator struct {
	validate *validator.Validate
}

// NewBasicValidator creates a new basic address validator.
func NewBasicValidator() *BasicValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	vat.RegisterCountryValidation(v)
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return &BasicValidator{validate: v}
}

// Validate trims every field, uppercases the country, and checks the struct
// rules on Address.
func (v *BasicValidator) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	addr = trimmed(addr)

	err := v.validate.StructCtx(ctx, addr)
	if err == nil {
		return valid(addr), nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return nil, err
	}

	result := &ValidationResult{NormalizedAddress: &addr}
	for _, fe := range fieldErrs {
		result.Errors = append(result.Errors, ValidationError{
			Field:   fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return result, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required"
	case "max":
		return "Must be at most " + fe.Param() + " characters"
	case vat.CountryTag:
		return "Must be a two-letter ISO country code"
	case "oneof":
		return "Must be one of: " + fe.Param()
	default:
		return "Invalid value"
	}
}

func trimmed(addr Address) Address {
	addr.Type = strings.TrimSpace(addr.Type)
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Company = strings.TrimSpace(addr.Company)
	addr.AddressLine1 = strings.TrimSpace(addr.AddressLine1)
	addr.AddressLine2 = strings.TrimSpace(addr.AddressLine2)
	addr.City = strings.TrimSpace(addr.City)
	addr.State = strings.TrimSpace(addr.State)
	addr.PostalCode = strings.TrimSpace(addr.PostalCode)
	addr.Country = strings.ToUpper(strings.TrimSpace(addr.Country))
	addr.Phone = strings.TrimSpace(addr.Phone)
	addr.VATNumber = strings.TrimSpace(addr.VATNumber)
	return addr
}
