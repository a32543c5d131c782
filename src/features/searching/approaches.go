package searching

import (
	"regexp"
	"strings"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/features/matching"
	"github.com/contre95/soulsearch/src/music"
)

var (
	reBracketed  = regexp.MustCompile(`\s*(\([^)]*\)|\[[^\]]*\])`)
	reDashSuffix = regexp.MustCompile(`\s+-\s+[^-]*$`)
	reFeaturing  = regexp.MustCompile(`(?i)\s*\(?\b(feat\.?|ft\.?|featuring)\s.*$`)
	reAmpersand  = regexp.MustCompile(`\s*&\s*`)
)

var quoteReplacer = strings.NewReplacer(
	"'", "",
	`"`, "",
	"‘", "",
	"’", "",
	"“", "",
	"”", "",
	"`", "",
)

// buildQuery applies the approach's preprocessing to one artist variant of a
// track.
func buildQuery(approach music.SearchApproach, tp config.TextProcessing, artist string, track music.Track) music.SearchQuery {
	title, album := track.Title, track.Album
	if tp.RemoveFeaturing {
		title = keepIfEmpty(matching.RemoveFeaturing(title), title)
		album = keepIfEmpty(matching.RemoveFeaturing(album), album)
	}
	q := music.SearchQuery{
		Approach: approach.ID,
		Artist:   processText(approach, tp.FilteredWords, artist),
		Title:    processText(approach, tp.FilteredWords, title),
		Album:    processText(approach, tp.FilteredWords, album),
	}
	q.Signature = signature(q)
	return q
}

func processText(approach music.SearchApproach, words []string, s string) string {
	out := s
	if approach.Trim {
		out = reBracketed.ReplaceAllString(out, "")
		out = reDashSuffix.ReplaceAllString(out, "")
	}
	if approach.IgnoreQuotes {
		out = quoteReplacer.Replace(out)
	}
	if approach.Filtered {
		out = reFeaturing.ReplaceAllString(out, "")
		out = removeWords(out, words)
	}
	out = collapseSpaces(out)
	// Never let preprocessing erase a field entirely.
	return keepIfEmpty(out, collapseSpaces(s))
}

// removeWords drops every whole-word, case-insensitive occurrence of words.
// Multi-word entries are matched as phrases.
func removeWords(s string, words []string) string {
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
		s = re.ReplaceAllString(s, " ")
	}
	return s
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func keepIfEmpty(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// signature is the dedup key of a query.
func signature(q music.SearchQuery) string {
	return strings.ToLower(collapseSpaces(q.Artist) + "|" + collapseSpaces(q.Title) + "|" + collapseSpaces(q.Album))
}

// ampersandVariant rewrites "&" as "and" in artist and title. ok is false when
// neither contains an ampersand.
func ampersandVariant(q music.SearchQuery) (music.SearchQuery, bool) {
	if !strings.Contains(q.Artist, "&") && !strings.Contains(q.Title, "&") {
		return q, false
	}
	alt := q
	alt.Artist = collapseSpaces(reAmpersand.ReplaceAllString(q.Artist, " and "))
	alt.Title = collapseSpaces(reAmpersand.ReplaceAllString(q.Title, " and "))
	alt.Result = nil
	alt.Error = ""
	alt.Duplicate = false
	alt.Signature = signature(alt)
	return alt, true
}

func anyForced(approaches []music.SearchApproach) bool {
	for _, a := range approaches {
		if a.Force {
			return true
		}
	}
	return false
}
