package music

import (
	"fmt"
	"strings"
)

// Track is the canonical description of a song coming from a source catalog.
// Tracks are treated as immutable once handed to the search engine.
type Track struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Artists []string `json:"artists"`
	Album   string   `json:"album,omitempty"`
}

// Validate validates the track fields.
func (t Track) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("track id cannot be empty")
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("track title cannot be empty: id -> %s", t.ID)
	}
	if len(t.Title) > 500 {
		return fmt.Errorf("title cannot exceed 500 characters, got %d: title -> %s", len(t.Title), t.Title)
	}
	if len(t.Artists) == 0 {
		return fmt.Errorf("track must have at least one artist: title -> %s", t.Title)
	}
	for i, artist := range t.Artists {
		if strings.TrimSpace(artist) == "" {
			return fmt.Errorf("track artist at index %d cannot be empty", i)
		}
	}
	return nil
}

// PrimaryArtist returns the first credited artist.
func (t Track) PrimaryArtist() string {
	if len(t.Artists) == 0 {
		return ""
	}
	return t.Artists[0]
}

// ArtistVariants returns every individual artist name followed, when the track
// has more than one artist, by the comma-joined full list.
func (t Track) ArtistVariants() []string {
	variants := make([]string, 0, len(t.Artists)+1)
	variants = append(variants, t.Artists...)
	if len(t.Artists) > 1 {
		variants = append(variants, strings.Join(t.Artists, ", "))
	}
	return variants
}

// WithAlbum returns a copy of the track with the album replaced.
func (t Track) WithAlbum(album string) Track {
	cp := t
	cp.Artists = append([]string(nil), t.Artists...)
	cp.Album = album
	return cp
}

// String renders the track as "Artist - Title".
func (t Track) String() string {
	return fmt.Sprintf("%s - %s", strings.Join(t.Artists, ", "), t.Title)
}
