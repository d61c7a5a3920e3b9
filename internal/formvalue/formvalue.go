// Package formvalue coerces loosely-typed HTML form values.
package formvalue

import (
	"strconv"
	"strings"
)

// Checkbox reports whether a checkbox-style form value is set.
// "on", "true", "1" and "yes" are truthy regardless of case; anything else is false.
func Checkbox(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "on", "true", "1", "yes":
		return true
	default:
		return false
	}
}

// List splits a comma-separated value, trimming entries and dropping empty
// and repeated ones. The result is never nil.
func List(v string) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		seen[part] = true
		out = append(out, part)
	}
	return out
}

// NonZeroInt reports whether v parses as a non-zero integer.
func NonZeroInt(v string) bool {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	return err == nil && n != 0
}
