package pathmeta

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	dashReplacer    = strings.NewReplacer("–", "-", "—", "-", "−", "-", "‐", "-", "‒", "-", "―", "-")
	reSpacedDash    = regexp.MustCompile(`\s+-\s*|\s*-\s+`)
	reBracketSuffix = regexp.MustCompile(`\s*[\[{][^\]}]*[\]}]\s*$`)
	reYearSuffix    = regexp.MustCompile(`\s*\(\d{4}(?:[-/.]\d{1,4})?\)\s*$`)
	reYearPrefix    = regexp.MustCompile(`^\(?\d{4}\)?\s+-\s+`)
	reTrackPrefix   = regexp.MustCompile(`^(?:\d{1,2}[-.])?\d{1,3}\s*[-._)]\s+`)
	reBareNumber    = regexp.MustCompile(`^0\d{1,2}\s+`)
	reWhitespace    = regexp.MustCompile(`\s+`)
	reYear          = regexp.MustCompile(`^\d{4}$`)
	reDisc          = regexp.MustCompile(`^(?:cd|disc|disk)\s*\d+$`)
	reDrive         = regexp.MustCompile(`^[a-z]:$`)
)

var genericNames = map[string]bool{
	"music": true, "musik": true, "musica": true, "my music": true, "mp3": true, "mp3s": true,
	"flac": true, "audio": true, "media": true, "downloads": true, "download": true,
	"complete": true, "completed": true, "incomplete": true, "shared": true, "share": true,
	"soulseek": true, "slsk": true, "files": true, "library": true, "collection": true,
	"albums": true, "album": true, "singles": true, "single": true, "tracks": true, "track": true,
	"various": true, "various artists": true, "va": true, "misc": true, "unsorted": true,
	"new": true, "new folder": true, "temp": true, "tmp": true, "torrents": true,
	"unknown": true, "unknown artist": true, "unknown album": true, "artist": true, "title": true,
	"users": true, "home": true, "desktop": true, "documents": true,
}

// splitPath breaks a remote path on either slash style.
func splitPath(p string) []string {
	fields := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	out := fields[:0]
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			out = append(out, f)
		}
	}
	return out
}

// CleanFileName strips the extension, bracketed suffixes and a leading track
// number, and normalizes dash variants to " - ".
func CleanFileName(name string) string {
	name = stripExtension(name)
	name = normalizeSeparators(name)
	name = stripBracketSuffixes(name)
	if stripped := reTrackPrefix.ReplaceAllString(name, ""); strings.TrimSpace(stripped) != "" {
		name = stripped
	} else if stripped := reBareNumber.ReplaceAllString(name, ""); strings.TrimSpace(stripped) != "" {
		name = stripped
	}
	return collapse(name)
}

func cleanFolder(name string) string {
	name = normalizeSeparators(name)
	name = stripBracketSuffixes(name)
	for {
		trimmed := reYearSuffix.ReplaceAllString(name, "")
		trimmed = stripBracketSuffixes(trimmed)
		if trimmed == name {
			break
		}
		name = trimmed
	}
	if stripped := reYearPrefix.ReplaceAllString(name, ""); strings.TrimSpace(stripped) != "" {
		name = stripped
	}
	return collapse(name)
}

func stripExtension(name string) string {
	i := strings.LastIndex(name, ".")
	if i <= 0 {
		return name
	}
	ext := name[i+1:]
	if len(ext) < 2 || len(ext) > 5 {
		return name
	}
	for _, r := range ext {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return name
		}
	}
	return name[:i]
}

func normalizeSeparators(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = dashReplacer.Replace(s)
	return reSpacedDash.ReplaceAllString(s, " - ")
}

func stripBracketSuffixes(s string) string {
	for {
		trimmed := reBracketSuffix.ReplaceAllString(s, "")
		if trimmed == s || strings.TrimSpace(trimmed) == "" {
			return s
		}
		s = trimmed
	}
}

func collapse(s string) string {
	return strings.TrimSpace(reWhitespace.ReplaceAllString(s, " "))
}

// splitTopLevel splits s on the first " - " that is not nested inside
// brackets or parentheses.
func splitTopLevel(s string) (string, string, bool) {
	const sep = " - "
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			if depth > 0 {
				depth--
			}
		case ' ':
			if depth == 0 && strings.HasPrefix(s[i:], sep) {
				left := strings.TrimSpace(s[:i])
				right := strings.TrimSpace(s[i+len(sep):])
				if left == "" || right == "" {
					return "", "", false
				}
				return left, right, true
			}
		}
	}
	return "", "", false
}

// IsGeneric reports whether a folder or field name carries no information
// about the music, like "Music", "Downloads", a bare year or a share hash.
func IsGeneric(name string) bool {
	n := strings.ToLower(collapse(name))
	if len([]rune(n)) < 2 {
		return true
	}
	if strings.HasPrefix(n, "@@") {
		return true
	}
	if reYear.MatchString(n) || reDisc.MatchString(n) || reDrive.MatchString(n) {
		return true
	}
	return genericNames[n]
}

// validName is the acceptance rule for extracted artists and titles.
func validName(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	r := []rune(s)
	if len(r) == 1 && !unicode.IsLetter(r[0]) && !unicode.IsDigit(r[0]) {
		return false
	}
	return !IsGeneric(s)
}
