package catalog

import (
	"strings"
	"unicode"
)

// TitleCase normalizes a free-text name the way feeds expect them
// stored: trimmed, single-spaced, each word capitalized.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(strings.ToLower(w))
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}

// SplitBreadcrumb splits a raw "A > B > C" string into trimmed,
// title-cased segments. Blank segments are dropped.
func SplitBreadcrumb(raw string) []string {
	parts := strings.Split(raw, ">")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		name := TitleCase(p)
		if name == "" {
			continue
		}
		out = append(out, name)
	}
	return out
}
