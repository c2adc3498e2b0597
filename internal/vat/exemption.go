package vat

// ExemptionApplies reports whether VAT should not be charged for addr.
// The number must not be empty, and a real number only exempts addresses
// outside the merchant's own country.
func ExemptionApplies(addr Address, cfg Config) bool {
	if !cfg.ManagementEnabled || addr.VATNumber.IsEmpty() {
		return false
	}
	if addr.VATNumber.IsManualExemption() {
		return true
	}
	return normalizeCode(addr.Country) != normalizeCode(cfg.ExcludedCountry)
}
