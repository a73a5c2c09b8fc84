package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Make derives a URL slug: lowercase, accents stripped, non-alphanumeric
// runs collapsed to single hyphens.
func Make(name string) string {
	lowered := strings.ToLower(strings.TrimSpace(name))
	ascii, _, err := transform.String(stripAccents, lowered)
	if err != nil {
		ascii = lowered
	}

	var b strings.Builder
	lastHyphen := true
	for _, r := range ascii {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
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
