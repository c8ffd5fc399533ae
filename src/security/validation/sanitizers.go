// backend/src/security/validation/sanitizers.go
package validation

import (
	"html"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// Definition of strict sanitization policy
	strictHTMLPolicy *bluemonday.Policy
)

func init() {
	strictHTMLPolicy = bluemonday.StrictPolicy() // Removes all HTML tags
}

// maxSanitizePasses bounds the decode/sanitize loop for nested escaping.
const maxSanitizePasses = 4

// SanitizeText removes all HTML tags and attributes from an input string and
// returns plain text. Entities are decoded before each policy pass, so escaped
// markup is stripped as markup, and the loop runs until the text is stable.
func SanitizeText(s string) string {
	out := s
	for i := 0; i < maxSanitizePasses; i++ {
		next := html.UnescapeString(strictHTMLPolicy.Sanitize(html.UnescapeString(out)))
		if next == out {
			return out
		}
		out = next
	}
	// Still changing: keep the policy's escaped form.
	return strictHTMLPolicy.Sanitize(out)
}

// StripUnprintable removes non-printable characters, allowing common whitespace
// like space, tab, newline, and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1 // Drop the rune
	}, s)
}

// CleanCardText strips markup and control characters, collapses surrounding
// whitespace and truncates to maxRunes (0 means no limit).
func CleanCardText(s string, maxRunes int) string {
	out := strings.TrimSpace(StripUnprintable(SanitizeText(s)))
	if maxRunes > 0 && utf8.RuneCountInString(out) > maxRunes {
		runes := []rune(out)
		out = strings.TrimSpace(string(runes[:maxRunes-1])) + "…"
	}
	return out
}
