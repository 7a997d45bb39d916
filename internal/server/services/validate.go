package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/discbaboons/internal/common"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

const (
	minPasswordLen = 8
	maxPasswordLen = 32
)

// normalizeUsername case-folds a username for lookup.
func normalizeUsername(u string) string {
	return strings.ToLower(strings.TrimSpace(u))
}

func normalizeEmail(e string) string {
	return strings.TrimSpace(e)
}

func validEmail(e string) bool {
	return emailPattern.MatchString(e)
}

func validatePassword(p string) error {
	n := utf8.RuneCountInString(p)
	if n < minPasswordLen || n > maxPasswordLen {
		return common.NewValidationError("Password must be 8-32 characters")
	}
	return nil
}
