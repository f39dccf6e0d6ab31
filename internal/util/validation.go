package util

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9.]+$`)

// ValidatePassword enforces at least 8 characters with an upper case letter,
// a lower case letter, a digit and a special character.
func ValidatePassword(password string) string {
	if utf8.RuneCountInString(password) < 8 {
		return "password must have at least 8 characters"
	}
	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}
	switch {
	case !upper:
		return "password must contain an upper case letter"
	case !lower:
		return "password must contain a lower case letter"
	case !digit:
		return "password must contain a digit"
	case !special:
		return "password must contain a special character"
	}
	return ""
}

func ValidUsername(username string) bool {
	return len(username) <= 255 && usernamePattern.MatchString(username)
}

// NormalizeEmail trims and lower-cases an e-mail address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Page clamps page/limit query values.
func Page(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
