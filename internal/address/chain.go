package address

import "context"

// Chain runs validators in order. Each validator sees the address as
// normalized by the ones before it, and all errors are collected. A
// validator returning an error stops the chain.
type Chain []Validator

func (c Chain) Validate(ctx context.Context, addr Address) (*ValidationResult, error) {
	result := valid(addr)

	for _, v := range c {
		r, err := v.Validate(ctx, *result.NormalizedAddress)
		if err != nil {
			return nil, err
		}
		if r.NormalizedAddress != nil {
			result.NormalizedAddress = r.NormalizedAddress
		}
		if !r.IsValid {
			result.IsValid = false
		}
		result.Errors = append(result.Errors, r.Errors...)
		result.Warnings = append(result.Warnings, r.Warnings...)
	}

	return result, nil
}
