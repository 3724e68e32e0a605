// Package strcase converts Go identifiers into the snake_case keys used in
// API error payloads.
package strcase

import (
	"strings"
	"unicode"
)

// ToLowerSnake converts an identifier such as ExternalUserID into
// external_user_id. Runs of capitals are kept together as one word.
func ToLowerSnake(s string) string {
	return strings.Join(words(s), "_")
}

func words(s string) []string {
	runes := []rune(s)
	var out []string
	start := 0
	for i := 1; i < len(runes); i++ {
		if boundary(runes, i) {
			out = append(out, strings.ToLower(string(runes[start:i])))
			start = i
		}
	}
	if start < len(runes) {
		out = append(out, strings.ToLower(string(runes[start:])))
	}
	return out
}

// boundary reports whether a new word starts at runes[i]: after a lower-case
// letter or digit (userID), or at the last capital of an acronym (HTTPServer).
func boundary(runes []rune, i int) bool {
	cur, prev := runes[i], runes[i-1]
	if !unicode.IsUpper(cur) {
		return false
	}
	if unicode.IsLower(prev) || unicode.IsDigit(prev) {
		return true
	}
	return unicode.IsUpper(prev) && i+1 < len(runes) && unicode.IsLower(runes[i+1])
}
