package matching

import (
	"strings"

	"github.com/gosimple/unidecode"
)

// Normalize folds s to lowercase ASCII, keeping only digits, letters and single
// spaces. Accents and ligatures collapse to their base Latin letters.
func Normalize(s string) string {
	folded := strings.ToLower(unidecode.Unidecode(s))
	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			space = true
		}
	}
	return b.String()
}

// RemoveFeaturing truncates s at the first "feat" or "(" so featured-artist
// and edition annotations do not take part in a comparison.
func RemoveFeaturing(s string) string {
	cut := len(s)
	if i := strings.Index(strings.ToLower(s), "feat"); i >= 0 && i < cut {
		cut = i
	}
	if i := strings.Index(s, "("); i >= 0 && i < cut {
		cut = i
	}
	return strings.TrimSpace(s[:cut])
}
