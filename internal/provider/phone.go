package provider

import "strings"

// NormalizePhone reduces a raw destination to digits and ensures the country
// code prefix. A bare 10-digit number is assumed domestic; a redundant trunk
// zero ahead of an existing prefix is stripped. Normalization is idempotent.
// The second return value is false when nothing usable remains.
func NormalizePhone(raw, countryCode string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if cleaned == "" {
		return "", false
	}

	switch {
	case len(cleaned) == 10:
		cleaned = countryCode + cleaned
	case strings.HasPrefix(cleaned, "0"+countryCode) && len(cleaned) == len(countryCode)+11:
		cleaned = cleaned[1:]
	}

	return cleaned, true
}
