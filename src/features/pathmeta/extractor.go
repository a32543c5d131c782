package pathmeta

import (
	"context"
	"log/slog"
	"sort"

	"github.com/contre95/soulsearch/src/features/matching"
	"github.com/contre95/soulsearch/src/music"
)

// Pattern names, also reported in ExtractedMetadata.Pattern.
const (
	PatternFilenameArtistTitle = "filename-artist-title"
	PatternHierarchicalFolder  = "hierarchical-folder"
	PatternCombinedFolder      = "combined-folder"
	PatternEmbeddedTags        = "embedded-tags"
)

// Pattern is one way of reading artist/title/album out of a path.
type Pattern struct {
	Name    string
	extract func(pathInfo) (music.ExtractedMetadata, bool)
}

// patterns is the fixed pattern list. The index is the base score used when
// ordering them for a given path.
var patterns = []Pattern{
	{Name: PatternFilenameArtistTitle, extract: filenameArtistTitle},
	{Name: PatternHierarchicalFolder, extract: hierarchicalFolder},
	{Name: PatternCombinedFolder, extract: combinedFolder},
}

const (
	bonusArtistTitleName = -10
	bonusCombinedFolder  = -8
	bonusHierarchy       = -5
)

// Result is the outcome of an extraction.
type Result struct {
	Success  bool                     `json:"success"`
	Metadata *music.ExtractedMetadata `json:"metadata,omitempty"`
	Error    string                   `json:"error,omitempty"`
}

type pathInfo struct {
	segments []string
	cleaned  string // cleaned file name
	parent   string // cleaned parent folder, "" when absent
	grand    string // cleaned grandparent folder, "" when absent
}

func newPathInfo(p string) pathInfo {
	segments := splitPath(p)
	info := pathInfo{segments: segments}
	n := len(segments)
	if n == 0 {
		return info
	}
	info.cleaned = CleanFileName(segments[n-1])
	if n >= 2 {
		info.parent = cleanFolder(segments[n-2])
	}
	if n >= 3 {
		info.grand = cleanFolder(segments[n-3])
	}
	return info
}

// Extract derives artist, title and album from a remote file path, trying the
// patterns in the order OrderPatterns picks for it.
func Extract(p string) Result {
	info := newPathInfo(p)
	if len(info.segments) == 0 || info.cleaned == "" {
		return Result{Error: "empty path"}
	}
	for _, pattern := range orderPatterns(info) {
		meta, ok := pattern.extract(info)
		if !ok {
			continue
		}
		meta.Pattern = pattern.Name
		return Result{Success: true, Metadata: &meta}
	}
	return Result{Error: "no pattern matched " + p}
}

// OrderPatterns returns the pattern names in the order they would be tried for
// path p.
func OrderPatterns(p string) []string {
	ordered := orderPatterns(newPathInfo(p))
	names := make([]string, len(ordered))
	for i, pattern := range ordered {
		names[i] = pattern.Name
	}
	return names
}

func orderPatterns(info pathInfo) []Pattern {
	type scored struct {
		pattern Pattern
		score   int
	}
	combined := looksCombined(info.parent)
	list := make([]scored, len(patterns))
	for i, pattern := range patterns {
		s := i
		switch pattern.Name {
		case PatternFilenameArtistTitle:
			if _, _, ok := splitTopLevel(info.cleaned); ok {
				s += bonusArtistTitleName
			}
		case PatternHierarchicalFolder:
			if len(info.segments) >= 3 && !combined {
				s += bonusHierarchy
			}
		case PatternCombinedFolder:
			if combined {
				s += bonusCombinedFolder
			}
		}
		list[i] = scored{pattern: pattern, score: s}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score < list[j].score })
	out := make([]Pattern, len(list))
	for i, s := range list {
		out[i] = s.pattern
	}
	return out
}

// looksCombined reports whether a folder is named "Artist - Album".
func looksCombined(folder string) bool {
	left, right, ok := splitTopLevel(folder)
	return ok && !IsGeneric(left) && !IsGeneric(right)
}

func filenameArtistTitle(info pathInfo) (music.ExtractedMetadata, bool) {
	artist, title, ok := splitTopLevel(info.cleaned)
	if !ok || !validName(artist) || !validName(title) {
		return music.ExtractedMetadata{}, false
	}
	meta := music.ExtractedMetadata{Artist: artist, Title: title}
	if left, right, ok := splitTopLevel(info.parent); ok && looksCombined(info.parent) {
		if sameName(left, artist) {
			meta.Album = right
		}
	} else if info.parent != "" && !IsGeneric(info.parent) && !sameName(info.parent, artist) {
		meta.Album = info.parent
	}
	return meta, true
}

func hierarchicalFolder(info pathInfo) (music.ExtractedMetadata, bool) {
	if len(info.segments) < 3 || IsGeneric(info.grand) || IsGeneric(info.parent) {
		return music.ExtractedMetadata{}, false
	}
	title := stripArtistPrefix(info.cleaned, info.grand)
	if !validName(info.grand) || !validName(title) {
		return music.ExtractedMetadata{}, false
	}
	return music.ExtractedMetadata{Artist: info.grand, Title: title, Album: info.parent}, true
}

func combinedFolder(info pathInfo) (music.ExtractedMetadata, bool) {
	if !looksCombined(info.parent) {
		return music.ExtractedMetadata{}, false
	}
	artist, album, _ := splitTopLevel(info.parent)
	title := stripArtistPrefix(info.cleaned, artist)
	if !validName(artist) || !validName(title) {
		return music.ExtractedMetadata{}, false
	}
	return music.ExtractedMetadata{Artist: artist, Title: title, Album: album}, true
}

// stripArtistPrefix drops a leading "Artist - " from a file name when it
// repeats the artist already known from the folders.
func stripArtistPrefix(name, artist string) string {
	if left, right, ok := splitTopLevel(name); ok && sameName(left, artist) {
		return right
	}
	return name
}

func sameName(a, b string) bool {
	return matching.Normalize(a) == matching.Normalize(b)
}

// TagReader reads embedded tags from a local audio file.
type TagReader interface {
	ReadTags(ctx context.Context, path string) (*music.ExtractedMetadata, error)
}

// ExtractLocal prefers the embedded tags of a local file and falls back to the
// path heuristics when they are missing or unusable.
func ExtractLocal(ctx context.Context, reader TagReader, p string) Result {
	if reader != nil {
		meta, err := reader.ReadTags(ctx, p)
		switch {
		case err != nil:
			slog.Debug("Falling back to path heuristics", "path", p, "error", err)
		case meta != nil && validName(meta.Artist) && validName(meta.Title):
			meta.Pattern = PatternEmbeddedTags
			return Result{Success: true, Metadata: meta}
		}
	}
	return Extract(p)
}

// Fallback builds the metadata used when no pattern matches: the cleaned file
// name as the title and nothing else.
func Fallback(p string) music.ExtractedMetadata {
	info := newPathInfo(p)
	return music.ExtractedMetadata{Title: info.cleaned}
}
