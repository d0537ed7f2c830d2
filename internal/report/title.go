package report

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// mojibake is the residue a mis-decoded trailing NBSP leaves in titles.
const mojibake = "?ÿ"

func isNoise(r rune) bool {
	return r == utf8.RuneError || unicode.IsControl(r)
}

// CleanTitle prepares a stored title for display: mojibake, replacement
// and control characters are removed and the result is NFC-normalized and
// trimmed. An empty result becomes "Unknown".
func CleanTitle(s string) string {
	s = strings.ReplaceAll(s, mojibake, "")
	t := transform.Chain(runes.Remove(runes.Predicate(isNoise)), norm.NFC)
	if out, _, err := transform.String(t, s); err == nil {
		s = out
	}
	s = strings.TrimFunc(s, unicode.IsSpace)
	if s == "" {
		return "Unknown"
	}
	return s
}
