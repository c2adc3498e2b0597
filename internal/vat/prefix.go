package vat

import (
	"maps"
	"slices"
	"strings"
)

// prefixes maps ISO 3166-1 alpha-2 country codes to the VAT-area prefix the
// VIES registry uses for them. Read-only after package initialization.
var prefixes = map[string]string{
	"AT": "AT", // Austria
	"BE": "BE", // Belgium
	"BG": "BG", // Bulgaria
	"CY": "CY", // Cyprus
	"CZ": "CZ", // Czech Republic
	"DE": "DE", // Germany
	"DK": "DK", // Denmark
	"EE": "EE", // Estonia
	"ES": "ES", // Spain
	"FI": "FI", // Finland
	"FR": "FR", // France
	"FX": "FR", // France métropolitaine
	"GR": "EL", // Greece
	"HR": "HR", // Croatia
	"HU": "HU", // Hungary
	"IE": "IE", // Ireland
	"IT": "IT", // Italy
	"LT": "LT", // Lithuania
	"LU": "LU", // Luxembourg
	"LV": "LV", // Latvia
	"MT": "MT", // Malta
	"NL": "NL", // Netherlands
	"PL": "PL", // Poland
	"PT": "PT", // Portugal
	"RO": "RO", // Romania
	"SE": "SE", // Sweden
	"SI": "SI", // Slovenia
	"SK": "SK", // Slovakia
	"XI": "XI", // Northern Ireland
}

var (
	countryCodes = slices.Sorted(maps.Keys(prefixes))

	// prefixCountries holds the first country (in code order) for each prefix.
	prefixCountries = func() map[string]string {
		m := make(map[string]string, len(prefixes))
		for _, country := range countryCodes {
			if _, ok := m[prefixes[country]]; !ok {
				m[prefixes[country]] = country
			}
		}
		return m
	}()
)

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PrefixFor returns the VAT-area prefix for an ISO country code.
func PrefixFor(country string) (string, bool) {
	prefix, ok := prefixes[normalizeCode(country)]
	return prefix, ok
}

// CountryForPrefix returns an ISO country code that uses the given VAT-area
// prefix. When several countries share a prefix (FR and FX) the
// alphabetically first code is returned.
func CountryForPrefix(prefix string) (string, bool) {
	country, ok := prefixCountries[normalizeCode(prefix)]
	return country, ok
}

// IsApplicable reports whether VAT-number handling applies to the country.
func IsApplicable(country string) bool {
	_, ok := prefixes[normalizeCode(country)]
	return ok
}

// Countries returns the ISO codes in the prefix table, sorted.
func Countries() []string {
	return slices.Clone(countryCodes)
}

func isKnownPrefix(prefix string) bool {
	_, ok := prefixCountries[prefix]
	return ok
}
