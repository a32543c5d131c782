package pathmeta

import (
	"context"
	"errors"
	"testing"

	"github.com/contre95/soulsearch/src/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"01 - In The Flesh.flac", "In The Flesh"},
		{"03. Money.mp3", "Money"},
		{"1-04 - Time.flac", "Time"},
		{"07_Brain_Damage.ogg", "Brain Damage"},
		{"Pink Floyd – Us and Them [24bit].flac", "Pink Floyd - Us and Them"},
		{"50 Cent - In Da Club.mp3", "50 Cent - In Da Club"},
		{"05 Eclipse.flac", "Eclipse"},
		{"1999.mp3", "1999"},
		{"No Extension", "No Extension"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanFileName(tt.in), "CleanFileName(%q)", tt.in)
	}
}

func TestCleanFolder(t *testing.T) {
	assert.Equal(t, "The Wall", cleanFolder("The Wall (1979)"))
	assert.Equal(t, "The Wall", cleanFolder("The Wall (1979) [FLAC]"))
	assert.Equal(t, "Animals", cleanFolder("1977 - Animals"))
	assert.Equal(t, "Pink Floyd - Animals", cleanFolder("Pink Floyd — Animals"))
}

func TestSplitTopLevel(t *testing.T) {
	left, right, ok := splitTopLevel("Artist - Title")
	require.True(t, ok)
	assert.Equal(t, "Artist", left)
	assert.Equal(t, "Title", right)

	left, right, ok = splitTopLevel("Song (Live - 1994) - Remaster")
	require.True(t, ok)
	assert.Equal(t, "Song (Live - 1994)", left)
	assert.Equal(t, "Remaster", right)

	_, _, ok = splitTopLevel("(Live - 1994)")
	assert.False(t, ok)
	_, _, ok = splitTopLevel("No separator")
	assert.False(t, ok)
}

func TestIsGeneric(t *testing.T) {
	for _, name := range []string{"Music", "downloads", "CD1", "Disc 2", "1999", "c:", "@@abcde", "x", "Various Artists"} {
		assert.True(t, IsGeneric(name), name)
	}
	for _, name := range []string{"Pink Floyd", "The Wall", "ABBA"} {
		assert.False(t, IsGeneric(name), name)
	}
}

func TestExtract_HierarchicalFolder(t *testing.T) {
	res := Extract("/Pink Floyd/The Wall/01 - In The Flesh.flac")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, &music.ExtractedMetadata{
		Artist:  "Pink Floyd",
		Title:   "In The Flesh",
		Album:   "The Wall",
		Pattern: PatternHierarchicalFolder,
	}, res.Metadata)
}

func TestExtract_WindowsSeparators(t *testing.T) {
	res := Extract(`@@xyz\Music\Pink Floyd\Animals (1977)\02 Dogs.flac`)
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Pink Floyd", res.Metadata.Artist)
	assert.Equal(t, "Animals", res.Metadata.Album)
	assert.Equal(t, "Dogs", res.Metadata.Title)
}

func TestExtract_FilenameArtistTitle(t *testing.T) {
	res := Extract("Downloads/Daft Punk - One More Time.mp3")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, PatternFilenameArtistTitle, res.Metadata.Pattern)
	assert.Equal(t, "Daft Punk", res.Metadata.Artist)
	assert.Equal(t, "One More Time", res.Metadata.Title)
	assert.Empty(t, res.Metadata.Album)
}

func TestExtract_FilenameAlbumFromParent(t *testing.T) {
	res := Extract("music/Discovery/Daft Punk - Aerodynamic.flac")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, PatternFilenameArtistTitle, res.Metadata.Pattern)
	assert.Equal(t, "Discovery", res.Metadata.Album)

	res = Extract("shares/Daft Punk - Discovery/Daft Punk - Aerodynamic.flac")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Discovery", res.Metadata.Album)
}

func TestExtract_CombinedFolder(t *testing.T) {
	res := Extract("share/Radiohead - OK Computer (1997)/03 Subterranean Homesick Alien.flac")
	require.True(t, res.Success, res.Error)
	assert.Equal(t, &music.ExtractedMetadata{
		Artist:  "Radiohead",
		Title:   "Subterranean Homesick Alien",
		Album:   "OK Computer",
		Pattern: PatternCombinedFolder,
	}, res.Metadata)
}

func TestExtract_NoPattern(t *testing.T) {
	res := Extract("Music/Untitled.mp3")
	assert.False(t, res.Success)
	assert.Nil(t, res.Metadata)
	assert.NotEmpty(t, res.Error)

	res = Extract("")
	assert.False(t, res.Success)
}

func TestOrderPatterns(t *testing.T) {
	assert.Equal(t, []string{PatternHierarchicalFolder, PatternFilenameArtistTitle, PatternCombinedFolder},
		OrderPatterns("/Pink Floyd/The Wall/01 - In The Flesh.flac"))
	assert.Equal(t, []string{PatternFilenameArtistTitle, PatternHierarchicalFolder, PatternCombinedFolder},
		OrderPatterns("a/b/Artist - Title.mp3"))
	assert.Equal(t, []string{PatternCombinedFolder, PatternFilenameArtistTitle, PatternHierarchicalFolder},
		OrderPatterns("x/Foo Fighters - Wasting Light/01 Bridge Burning.mp3"))
}

func TestFallback(t *testing.T) {
	assert.Equal(t, music.ExtractedMetadata{Title: "Untitled"}, Fallback("Music/01 - Untitled.mp3"))
}

type stubTagReader struct {
	meta *music.ExtractedMetadata
	err  error
}

func (s stubTagReader) ReadTags(ctx context.Context, path string) (*music.ExtractedMetadata, error) {
	return s.meta, s.err
}

func TestExtractLocal(t *testing.T) {
	ctx := context.Background()
	path := "/Pink Floyd/The Wall/01 - In The Flesh.flac"

	res := ExtractLocal(ctx, stubTagReader{meta: &music.ExtractedMetadata{Artist: "Pink Floyd", Title: "In the Flesh?", Album: "The Wall"}}, path)
	require.True(t, res.Success)
	assert.Equal(t, PatternEmbeddedTags, res.Metadata.Pattern)
	assert.Equal(t, "In the Flesh?", res.Metadata.Title)

	res = ExtractLocal(ctx, stubTagReader{err: errors.New("no tags")}, path)
	require.True(t, res.Success)
	assert.Equal(t, PatternHierarchicalFolder, res.Metadata.Pattern)

	res = ExtractLocal(ctx, stubTagReader{meta: &music.ExtractedMetadata{Title: "Only Title"}}, path)
	require.True(t, res.Success)
	assert.Equal(t, PatternHierarchicalFolder, res.Metadata.Pattern)

	res = ExtractLocal(ctx, nil, path)
	assert.True(t, res.Success)
}
