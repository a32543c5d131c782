package music

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackValidate(t *testing.T) {
	tests := []struct {
		name    string
		track   Track
		wantErr bool
	}{
		{"valid", Track{ID: "1", Title: "Song", Artists: []string{"Band"}}, false},
		{"missing id", Track{Title: "Song", Artists: []string{"Band"}}, true},
		{"blank title", Track{ID: "1", Title: "  ", Artists: []string{"Band"}}, true},
		{"long title", Track{ID: "1", Title: strings.Repeat("a", 501), Artists: []string{"Band"}}, true},
		{"no artists", Track{ID: "1", Title: "Song"}, true},
		{"blank artist", Track{ID: "1", Title: "Song", Artists: []string{"Band", ""}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.track.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestArtistVariants(t *testing.T) {
	single := Track{Artists: []string{"Band"}}
	assert.Equal(t, []string{"Band"}, single.ArtistVariants())

	multi := Track{Artists: []string{"Daft Punk", "Pharrell Williams"}}
	assert.Equal(t, []string{"Daft Punk", "Pharrell Williams", "Daft Punk, Pharrell Williams"}, multi.ArtistVariants())
	assert.Equal(t, "Daft Punk", multi.PrimaryArtist())
	assert.Equal(t, "", Track{}.PrimaryArtist())
}

func TestWithAlbumCopies(t *testing.T) {
	orig := Track{ID: "1", Title: "Song", Artists: []string{"Band"}}
	cp := orig.WithAlbum("Record")
	cp.Artists[0] = "Other"

	assert.Equal(t, "Record", cp.Album)
	assert.Empty(t, orig.Album)
	assert.Equal(t, "Band", orig.Artists[0])
}

func TestCandidateIDs(t *testing.T) {
	c := Candidate{Username: "peer", Filename: `@@abc\Music\Band - Song.flac`}
	assert.Equal(t, `peer\@@abc\Music\Band - Song.flac`, c.SourceID())
	assert.Equal(t, "Band - Song.flac", c.BaseName())
}

func TestSessionStateTerminal(t *testing.T) {
	assert.False(t, SessionRequested.Terminal())
	assert.False(t, SessionInProgress.Terminal())
	assert.True(t, SessionCompleted.Terminal())
	assert.True(t, SessionErrored.Terminal())
	assert.True(t, SessionCancelled.Terminal())
}

func TestSearchResponseFound(t *testing.T) {
	assert.False(t, SearchResponse{}.Found())
	assert.True(t, SearchResponse{CachedIDs: []string{"x"}}.Found())
	assert.True(t, SearchResponse{Result: []Candidate{{}}}.Found())
	assert.Equal(t, "Band Song", SearchQuery{Artist: "Band", Title: "Song"}.Text())
}
