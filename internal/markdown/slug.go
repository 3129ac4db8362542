package markdown

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Slug derives the anchor id the renderer assigns to a heading. The mapping
// is pure: NFKC-fold, lowercase, alphanumerics kept, runs of anything else
// collapsed to a single hyphen. Identical input always yields an identical
// slug, which keeps rendered output byte-stable across builds.
func Slug(text string) string {
	folded := norm.NFKC.String(text)

	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(folded) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
