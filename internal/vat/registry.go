package vat

import "context"

// RegistryStatus is the answer of the external VAT registry.
type RegistryStatus int

const (
	// RegistryInconclusive is the zero value: the registry could not confirm
	// or deny the number within the retry budget.
	RegistryInconclusive RegistryStatus = iota
	RegistryValid
	RegistryInvalid
)

func (s RegistryStatus) String() string {
	switch s {
	case RegistryValid:
		return "valid"
	case RegistryInvalid:
		return "invalid"
	default:
		return "inconclusive"
	}
}

// RegistryResult is the outcome of one registry check, retries included.
type RegistryResult struct {
	Status   RegistryStatus
	Fault    string // reason for Invalid or Inconclusive
	Attempts int
}

// RegistryClient verifies a VAT number against the authoritative registry.
// Implementations never return transport failures as errors: they report
// RegistryInconclusive with a Fault instead.
type RegistryClient interface {
	Check(ctx context.Context, prefix, remainder string) RegistryResult
}
