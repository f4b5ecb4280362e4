// Package fieldlist tokenises comma separated option values.
package fieldlist

import (
	"regexp"
	"strings"
)

var separator = regexp.MustCompile(`\s*,\s*`)

// Split trims s, splits it on commas optionally surrounded by whitespace and
// drops empty tokens. Order is preserved and duplicates are kept.
func Split(s string) []string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	parts := separator.Split(s, -1)
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Unique returns the tokens of Split(s) with duplicates removed, keeping the
// first occurrence of each.
func Unique(s string) []string {
	tokens := Split(s)
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
