package helpers

import (
	"regexp"
	"strings"

	"librarydesk_backend/internals/helpers/apperror"
)

var (
	reLetter = regexp.MustCompile(`[A-Za-z]`)
	reDigit  = regexp.MustCompile(`[0-9]`)
)

func isAlphaNumeric(s string) bool {
	return reLetter.MatchString(s) && reDigit.MatchString(s)
}

// ValidatePassword: at least 8 chars with a letter and a digit.
func ValidatePassword(pw string) error {
	if len(pw) < 8 || !isAlphaNumeric(pw) {
		return apperror.Validation("weak password", "password", "must be at least 8 characters with letters and digits")
	}
	return nil
}

func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
