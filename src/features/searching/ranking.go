package searching

import (
	"sort"

	"github.com/contre95/soulsearch/src/music"
)

// formatPriority ranks lossless formats ahead of lossy ones. Unknown
// extensions sort last.
var formatPriority = map[string]int{
	"flac": 0,
	"alac": 1,
	"wav":  2,
	"aiff": 3,
	"ape":  4,
	"m4a":  5,
	"ogg":  6,
	"opus": 7,
	"mp3":  8,
}

func formatRank(ext string) int {
	if r, ok := formatPriority[normalizeExtension(ext)]; ok {
		return r
	}
	return len(formatPriority)
}

// Rank sorts candidates by format priority in place. Equal formats keep their
// order.
func Rank(candidates []music.Candidate) []music.Candidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return formatRank(candidates[i].Extension) < formatRank(candidates[j].Extension)
	})
	return candidates
}
