package vat

import "strings"

// ExemptionFlag is the legacy value stored in an address's VAT-number field
// when the customer declared an exemption without giving a number. "VA" is not
// a known prefix, so the flag never parses as a VAT number.
const ExemptionFlag = "VAT_EXEMPTION_FLAG"

// Kind tags the three states of an address's VAT-number field.
type Kind int

const (
	KindEmpty Kind = iota
	KindNumber
	KindManualExemption
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindManualExemption:
		return "manual_exemption"
	default:
		return "empty"
	}
}

// Number is the value held by an address's VAT-number field. The zero value
// is Empty.
type Number struct {
	kind      Kind
	prefix    string
	remainder string
}

// Empty returns the Number for an address without a VAT number.
func Empty() Number {
	return Number{}
}

// ManualExemption returns the Number recorded when a customer declared an
// exemption without a VAT number.
func ManualExemption() Number {
	return Number{kind: KindManualExemption}
}

// NewNumber builds a VAT number from its area prefix and remainder. It does
// not check that the prefix is known; use ParseNumber for that.
func NewNumber(prefix, remainder string) Number {
	return Number{
		kind:      KindNumber,
		prefix:    strings.ToUpper(prefix),
		remainder: remainder,
	}
}

func (n Number) Kind() Kind              { return n.kind }
func (n Number) IsEmpty() bool           { return n.kind == KindEmpty }
func (n Number) IsManualExemption() bool { return n.kind == KindManualExemption }
func (n Number) IsNumber() bool          { return n.kind == KindNumber }

// Prefix returns the uppercased two-letter area prefix, or "" when n is not a number.
func (n Number) Prefix() string { return n.prefix }

// Remainder returns the part after the prefix, or "" when n is not a number.
func (n Number) Remainder() string { return n.remainder }

// String returns the compact VAT number (prefix followed by remainder), the
// exemption flag, or "".
func (n Number) String() string {
	return n.Legacy()
}

// Legacy encodes n into the single-string form kept in address storage.
func (n Number) Legacy() string {
	switch n.kind {
	case KindNumber:
		return n.prefix + n.remainder
	case KindManualExemption:
		return ExemptionFlag
	default:
		return ""
	}
}

// ParseNumber normalizes a raw VAT number and checks its area prefix.
// Spaces are removed, the two-letter prefix is compared case-insensitively
// against the prefix table, and the remainder is left unchecked. An empty
// input parses as Empty and the exemption flag as ManualExemption.
func ParseNumber(raw string) (Number, error) {
	s := compact(raw)
	switch {
	case s == "":
		return Empty(), nil
	case s == ExemptionFlag:
		return ManualExemption(), nil
	case len(s) < 2:
		return Number{}, ErrInvalidPrefix
	}

	prefix := strings.ToUpper(s[:2])
	if !isKnownPrefix(prefix) {
		return Number{}, ErrInvalidPrefix
	}
	return NewNumber(prefix, s[2:]), nil
}

// DecodeLegacy reads the single-string form kept in address storage. Unlike
// ParseNumber it never fails: an unknown prefix is kept as a Number so that
// validation can reject it with a proper reason.
func DecodeLegacy(raw string) Number {
	if n, err := ParseNumber(raw); err == nil {
		return n
	}

	s := compact(raw)
	if len(s) < 2 {
		return NewNumber(s, "")
	}
	return NewNumber(s[:2], s[2:])
}

func compact(raw string) string {
	return strings.ReplaceAll(strings.TrimSpace(raw), " ", "")
}
