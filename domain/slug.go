package domain

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lower-cases title, collapses every run of non-alphanumeric
// characters into one hyphen and trims hyphens from both ends.
func Slug(title string) string {
	s := nonAlnum.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}
