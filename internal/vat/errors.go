package vat

// Reason identifies why a VAT number was rejected.
type Reason string

const (
	ReasonMissingCompany  Reason = "missing_company"
	ReasonInvalidPrefix   Reason = "invalid_prefix"
	ReasonCountryMismatch Reason = "country_mismatch"
	ReasonNotRegistered   Reason = "not_registered"
)

// Error is a definitive VAT-number rejection. It follows the storefront's
// ErrorCode/ErrorMessage pattern so handlers can map it without importing vat.
type Error struct {
	Reason  Reason
	Message string
}

func (e *Error) Error() string {
	return "vat: " + e.Message
}

// ErrorCode returns the rejection reason.
func (e *Error) ErrorCode() string {
	return string(e.Reason)
}

// ErrorMessage returns the user-facing message.
func (e *Error) ErrorMessage() string {
	return e.Message
}

var (
	ErrMissingCompany  = &Error{Reason: ReasonMissingCompany, Message: "Company name is required when a VAT number is given"}
	ErrInvalidPrefix   = &Error{Reason: ReasonInvalidPrefix, Message: "Invalid VAT number"}
	ErrCountryMismatch = &Error{Reason: ReasonCountryMismatch, Message: "VAT number does not match the address country"}
	ErrNotRegistered   = &Error{Reason: ReasonNotRegistered, Message: "VAT number not found"}
)

// Message returns the user-facing message for r.
func (r Reason) Message() string {
	if err, ok := ErrorForReason(r).(*Error); ok {
		return err.Message
	}
	return ""
}

// ErrorForReason returns the sentinel error for a rejection reason, or nil.
func ErrorForReason(r Reason) error {
	switch r {
	case ReasonMissingCompany:
		return ErrMissingCompany
	case ReasonInvalidPrefix:
		return ErrInvalidPrefix
	case ReasonCountryMismatch:
		return ErrCountryMismatch
	case ReasonNotRegistered:
		return ErrNotRegistered
	default:
		return nil
	}
}
