package validators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeString trims surrounding space, drops control characters and caps
// the result at maxLen bytes without splitting a rune. A maxLen of zero or
// less disables the cap.
func SanitizeString(input string, maxLen int) string {
	cleaned := strings.TrimSpace(strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return -1
		}
		return r
	}, input))
	if maxLen <= 0 || len(cleaned) <= maxLen {
		return cleaned
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(cleaned[cut]) {
		cut--
	}
	return strings.TrimSpace(cleaned[:cut])
}

// SanitizeEnum lower-cases a sanitized value so "Delivered " matches the
// stored "delivered".
func SanitizeEnum(input string, maxLen int) string {
	return strings.ToLower(SanitizeString(input, maxLen))
}
