// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/username/leora/backend/src/models"
	"github.com/username/leora/backend/src/utils"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxCardTitleLength     = 120
	MaxCardBodyLength      = 600
	MaxCalendarRangeDays   = 366
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// --- Boolean Validators ---

// ValidateBoolString accepts the strconv.ParseBool spellings; empty means false.
func ValidateBoolString(s, fieldName string) (bool, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(trimmed)
	if err != nil {
		return false, fmt.Errorf("%w: %s ('%s') is not a boolean", ErrValidationFailed, fieldName, s)
	}
	return v, nil
}

// --- Date Validators ---

// ValidateDateKey checks that s is a valid YYYY-MM-DD date and returns local midnight in loc.
func ValidateDateKey(s, fieldName string, loc *time.Location) (time.Time, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateStringNotEmpty(trimmed, fieldName); err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(utils.DateKeyFormat, trimmed, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s ('%s') is not a valid date (expected YYYY-MM-DD): %v", ErrValidationFailed, fieldName, s, err)
	}
	return t, nil
}

// ValidateDateRange checks from <= to and that the span stays within maxDays.
func ValidateDateRange(from, to time.Time, maxDays int) error {
	if to.Before(from) {
		return fmt.Errorf("%w: 'to' (%s) is before 'from' (%s)", ErrValidationFailed, utils.DateKey(to), utils.DateKey(from))
	}
	if days := utils.CalendarDaysBetween(from, to); days > maxDays {
		return fmt.Errorf("%w: date range of %d days exceeds maximum of %d", ErrValidationFailed, days, maxDays)
	}
	return nil
}

// --- Specific Format Validators ---

// ValidateCurrencyCode checks that s is one of the supported canonical codes.
// It does not accept aliases; those are resolved by the currency processor.
func ValidateCurrencyCode(s string) (models.CurrencyCode, error) {
	code := models.CurrencyCode(strings.ToUpper(strings.TrimSpace(s)))
	if code == "" {
		return "", fmt.Errorf("%w: currency code cannot be empty", ErrValidationFailed)
	}
	if !code.IsSupported() {
		return "", fmt.Errorf("%w: currency code ('%s') is not supported", ErrValidationFailed, s)
	}
	return code, nil
}
