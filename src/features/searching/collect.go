package searching

import (
	"errors"
	"path"
	"strings"
	"unicode"

	"github.com/contre95/soulsearch/src/music"
)

var (
	// ErrNoCandidates is returned when no file survives collection.
	ErrNoCandidates = errors.New("no candidates found")
	// ErrNoFilesMatch is returned when no file meets the quality preferences.
	ErrNoFilesMatch = errors.New("no files match quality preferences")
)

// Collect flattens peer responses into the files worth looking at: peers must
// have files and a free upload slot, the file must be unlocked with an allowed
// extension, and its path must mention the title together with the artist or
// the album.
func Collect(q music.SearchQuery, responses []music.PeerResponse, allowedExtensions []string) ([]music.Candidate, error) {
	allowed := make(map[string]bool, len(allowedExtensions))
	for _, ext := range allowedExtensions {
		allowed[normalizeExtension(ext)] = true
	}
	artist, title, album := sanitize(q.Artist), sanitize(q.Title), sanitize(q.Album)

	var files []music.Candidate
	for _, peer := range responses {
		if peer.FileCount <= 0 || !peer.HasFreeUploadSlot {
			continue
		}
		for _, f := range peer.Files {
			if f.IsLocked {
				continue
			}
			f.Extension = fileExtension(f)
			if !allowed[f.Extension] {
				continue
			}
			name := sanitize(f.Filename)
			if title == "" || !strings.Contains(name, title) {
				continue
			}
			if !(artist != "" && strings.Contains(name, artist)) && !(album != "" && strings.Contains(name, album)) {
				continue
			}
			if f.Username == "" {
				f.Username = peer.Username
			}
			f.HasFreeUploadSlot = peer.HasFreeUploadSlot
			files = append(files, f)
		}
	}
	if len(files) == 0 {
		return nil, ErrNoCandidates
	}
	return files, nil
}

func normalizeExtension(ext string) string {
	return strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
}

func fileExtension(f music.Candidate) string {
	if ext := normalizeExtension(f.Extension); ext != "" {
		return ext
	}
	return normalizeExtension(path.Ext(strings.ReplaceAll(f.Filename, "\\", "/")))
}

// sanitize lowercases s, turns brackets and punctuation into spaces and
// collapses whitespace.
func sanitize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}
