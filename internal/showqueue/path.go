package showqueue

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", " -",
	"*", "",
	"?", "",
	"\"", "'",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeTitle turns a show title into a single path segment that is valid
// on common filesystems. It returns "" when nothing usable remains.
func SanitizeTitle(title string) string {
	t := transform.Chain(norm.NFC, runes.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}))
	cleaned, _, err := transform.String(t, title)
	if err != nil {
		cleaned = title
	}

	cleaned = titleReplacer.Replace(cleaned)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	// Trailing dots and spaces are stripped by Windows shares.
	return strings.TrimRight(cleaned, ". ")
}

// ShowPath returns the directory for a show under root.
func ShowPath(root, title string) string {
	return filepath.Join(root, SanitizeTitle(title))
}
