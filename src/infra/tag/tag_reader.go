package tag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/contre95/soulsearch/src/features/pathmeta"
	"github.com/contre95/soulsearch/src/music"
	"github.com/dhowden/tag"
)

// ErrNoTags is returned when a file carries no usable artist or title tag.
var ErrNoTags = errors.New("no usable tags")

// TagReader reads embedded tags with the dhowden/tag library.
type TagReader struct{}

// NewTagReader creates a new TagReader
func NewTagReader() pathmeta.TagReader {
	return &TagReader{}
}

// primaryArtist returns the first name of a tag holding several artists.
func primaryArtist(artistString string) string {
	artistString = strings.TrimSpace(artistString)
	// Common delimiters: semicolon, comma, "feat.", "ft.", "&"
	for _, delim := range []string{";", ",", " feat. ", " ft. ", " & "} {
		if name, _, found := strings.Cut(artistString, delim); found {
			if name = strings.TrimSpace(name); name != "" {
				return name
			}
		}
	}
	return artistString
}

// ReadTags reads the artist, title and album of a local audio file.
func (r *TagReader) ReadTags(ctx context.Context, filePath string) (*music.ExtractedMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	tags, err := tag.ReadFrom(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags: %w", err)
	}

	// Fall back to the album artist when the track artist is empty
	artist := tags.Artist()
	if strings.TrimSpace(artist) == "" {
		artist = tags.AlbumArtist()
	}
	meta := &music.ExtractedMetadata{
		Artist:  primaryArtist(artist),
		Title:   strings.TrimSpace(tags.Title()),
		Album:   strings.TrimSpace(tags.Album()),
		Pattern: pathmeta.PatternEmbeddedTags,
	}
	if meta.Artist == "" || meta.Title == "" {
		return nil, fmt.Errorf("%s: %w", filePath, ErrNoTags)
	}
	return meta, nil
}
