package matching

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"github.com/contre95/soulsearch/src/music"
)

// MinContainLength is the shortest normalized string that may take part in a
// containment check. Shorter strings would be contained in almost anything.
const MinContainLength = 5

var dice = &metrics.SorensenDice{NgramSize: 2}

// Compare normalizes a and b and reports exact equality, containment and a
// bigram Sørensen–Dice similarity. Unless twoWay is set only a containing b
// counts as containment.
func Compare(a, b string, twoWay bool) music.FieldMatch {
	na, nb := Normalize(a), Normalize(b)
	return music.FieldMatch{
		Match:      na == nb,
		Contains:   contains(na, nb, twoWay),
		Similarity: Similarity(na, nb),
	}
}

// Similarity returns a coefficient in [0,1] for two already normalized
// strings. It is symmetric and 1 for identical input.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	score := strutil.Similarity(a, b, dice)
	switch {
	case score < 0:
		return 0
	case score > 1:
		return 1
	}
	return score
}

func contains(a, b string, twoWay bool) bool {
	if len(a) < MinContainLength || len(b) < MinContainLength {
		return false
	}
	if strings.Contains(a, b) {
		return true
	}
	return twoWay && strings.Contains(b, a)
}

// MatchCandidate compares the track-side values against what was derived for a
// candidate file.
func MatchCandidate(artist, title, album string, meta music.ExtractedMetadata) music.MatchResult {
	return music.MatchResult{
		Artist:          Compare(artist, meta.Artist, true),
		Title:           Compare(title, meta.Title, true),
		Album:           Compare(album, meta.Album, true),
		ArtistInTitle:   Compare(meta.Title, artist, false),
		ArtistWithTitle: Compare(meta.Artist+" "+meta.Title, artist+" "+title, true),
	}
}
