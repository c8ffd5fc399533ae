// backend/src/security/validation/content_scanner.go
package validation

import (
	"fmt"
	"regexp"
	"unicode/utf8"

	"github.com/username/leora/backend/src/logger"
)

var (
	// Common XSS vectors. Sanitizing is the primary defense; this rejects
	// values that must stay verbatim, such as CTA actions and targets.
	xssPatternsRegex = regexp.MustCompile(
		`(?i)<script|onerror=|onmouseover=|onfocus=|onload=|javascript:|vbscript:|livescript:|mocha:|<iframe|<object|<embed|<applet|<style|<link|<img\s+src\s*=\s*['"]?\s*(javascript|data):`,
	)
	// CTA actions are snake_case verbs such as open_debt.
	actionRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)
)

// truncateForLog shortens s to maxLen runes so log lines stay valid UTF-8.
func truncateForLog(s string, maxLen int) string {
	if utf8.RuneCountInString(s) > maxLen {
		return string([]rune(s)[:maxLen]) + "..."
	}
	return s
}

// CheckXSSPatterns detects basic XSS patterns.
func CheckXSSPatterns(s, fieldName, contextID string) error {
	if xssPatternsRegex.MatchString(s) {
		errMsg := fmt.Sprintf("potential XSS pattern detected in field '%s'", fieldName)
		logger.L.Warn(errMsg, "contextID", contextID, "contentPreview", truncateForLog(s, 50))
		return fmt.Errorf("%w: %s", ErrValidationFailed, errMsg)
	}
	return nil
}

// ValidateAction checks that a CTA action is a plain identifier.
func ValidateAction(s, contextID string) error {
	if !actionRegex.MatchString(s) {
		logger.L.Warn("Rejected CTA action", "contextID", contextID, "action", truncateForLog(s, 50))
		return fmt.Errorf("%w: action ('%s') is not a valid identifier", ErrValidationFailed, truncateForLog(s, 50))
	}
	return nil
}
