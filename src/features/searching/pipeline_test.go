package searching

import (
	"testing"

	"github.com/contre95/soulsearch/src/features/config"
	"github.com/contre95/soulsearch/src/music"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollect(t *testing.T) {
	q := music.SearchQuery{Artist: "Pink Floyd", Title: "Money", Album: "The Dark Side of the Moon"}
	responses := []music.PeerResponse{
		peer("ok",
			music.Candidate{Filename: `Pink Floyd\1973\05 - Money.flac`},
			music.Candidate{Filename: `Floyd\The Dark Side of the Moon\05 Money.MP3`, Extension: ""},
			music.Candidate{Filename: `Pink Floyd - Money.flac`, IsLocked: true},
			music.Candidate{Filename: `Pink Floyd - Money.wma`, Extension: "wma"},
			music.Candidate{Filename: `Pink Floyd - Time.flac`},
			music.Candidate{Filename: `Random - Money.flac`},
		),
		{Username: "busy", HasFreeUploadSlot: false, FileCount: 1, Files: []music.Candidate{{Filename: "Pink Floyd - Money.flac"}}},
		{Username: "empty", HasFreeUploadSlot: true, FileCount: 0, Files: []music.Candidate{{Filename: "Pink Floyd - Money.flac"}}},
	}

	files, err := Collect(q, responses, []string{"flac", ".mp3"})
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, `Pink Floyd\1973\05 - Money.flac`, files[0].Filename)
	assert.Equal(t, "flac", files[0].Extension)
	assert.Equal(t, "ok", files[0].Username)
	assert.Equal(t, "mp3", files[1].Extension)
}

func TestCollect_NoCandidates(t *testing.T) {
	_, err := Collect(music.SearchQuery{Artist: "A", Title: "B"}, nil, []string{"flac"})
	assert.ErrorIs(t, err, ErrNoCandidates)
}

func TestSanitize(t *testing.T) {
	assert.Equal(t, "guns n roses sweet child o mine", sanitize("Guns N' Roses - [Sweet Child O' Mine]"))
	assert.Equal(t, "", sanitize("()-_"))
}

func TestFilterByQuality(t *testing.T) {
	t.Run("mp3 below floor and no flac", func(t *testing.T) {
		_, err := FilterByQuality([]music.Candidate{{Extension: "mp3", BitRate: 128}}, []string{"flac", "mp3"}, 192, 0, 3)
		assert.ErrorIs(t, err, ErrNoFilesMatch)
	})

	files := []music.Candidate{
		{Filename: "a.mp3", Extension: "mp3", BitRate: 320},
		{Filename: "b.flac", Extension: "flac", BitDepth: 16},
		{Filename: "c.flac", Extension: "flac", BitDepth: 24},
		{Filename: "d.flac", Extension: "flac"},
		{Filename: "e.mp3", Extension: "mp3", BitRate: 128},
		{Filename: "f.ogg", Extension: "ogg"},
	}

	t.Run("priority order and floors", func(t *testing.T) {
		got, err := FilterByQuality(files, []string{"flac", "mp3"}, 192, 24, 10)
		require.NoError(t, err)
		assert.Equal(t, []string{"c.flac", "d.flac", "a.mp3"}, filenames(got))
	})

	t.Run("bounded by download attempts", func(t *testing.T) {
		for attempts := 1; attempts <= 6; attempts++ {
			got, err := FilterByQuality(files, []string{"flac", "mp3", "ogg"}, 0, 0, attempts)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(got), attempts)
		}
		got, _ := FilterByQuality(files, []string{"flac", "mp3", "ogg"}, 0, 0, 2)
		assert.Equal(t, []string{"b.flac", "c.flac"}, filenames(got))
	})

	t.Run("extension not in priority", func(t *testing.T) {
		_, err := FilterByQuality(files, []string{"wav"}, 0, 0, 3)
		assert.ErrorIs(t, err, ErrNoFilesMatch)
	})
}

func TestRank(t *testing.T) {
	got := Rank([]music.Candidate{
		{Filename: "1", Extension: "mp3"},
		{Filename: "2", Extension: "xyz"},
		{Filename: "3", Extension: "flac"},
		{Filename: "4", Extension: "mp3"},
		{Filename: "5", Extension: "wav"},
	})
	assert.Equal(t, []string{"3", "5", "1", "4", "2"}, filenames(got))
}

func TestBuildQuery(t *testing.T) {
	track := music.Track{ID: "1", Title: `Don't Stop Me Now (feat. Someone) - Remastered 2011`, Artists: []string{"Queen"}, Album: "Jazz [Deluxe]"}
	tp := config.TextProcessing{FilteredWords: []string{"live", "radio edit"}}

	plain := buildQuery(music.SearchApproach{ID: "plain"}, tp, "Queen", track)
	assert.Equal(t, `Don't Stop Me Now (feat. Someone) - Remastered 2011`, plain.Title)

	trimmed := buildQuery(music.SearchApproach{ID: "trim", Trim: true}, tp, "Queen", track)
	assert.Equal(t, "Don't Stop Me Now", trimmed.Title)
	assert.Equal(t, "Jazz", trimmed.Album)

	quoted := buildQuery(music.SearchApproach{ID: "q", Trim: true, IgnoreQuotes: true}, tp, "Queen", track)
	assert.Equal(t, "Dont Stop Me Now", quoted.Title)
	assert.Equal(t, "queen|dont stop me now|jazz", quoted.Signature)

	filtered := buildQuery(music.SearchApproach{ID: "f", Filtered: true}, tp, "Queen", music.Track{ID: "2", Title: "Song ft. Guest", Artists: []string{"Queen"}})
	assert.Equal(t, "Song", filtered.Title)

	words := buildQuery(music.SearchApproach{ID: "f", Filtered: true}, tp, "Queen", music.Track{ID: "3", Title: "Live Forever Radio Edit", Artists: []string{"Queen"}})
	assert.Equal(t, "Forever", words.Title)
	// "live" inside a word stays
	kept := buildQuery(music.SearchApproach{ID: "f", Filtered: true}, tp, "Queen", music.Track{ID: "4", Title: "Delivery", Artists: []string{"Queen"}})
	assert.Equal(t, "Delivery", kept.Title)
}

func TestBuildQuery_NeverEmpties(t *testing.T) {
	track := music.Track{ID: "1", Title: "(Intro)", Artists: []string{"X"}}
	q := buildQuery(music.SearchApproach{ID: "t", Trim: true}, config.TextProcessing{}, "X", track)
	assert.Equal(t, "(Intro)", q.Title)
}

func TestBuildQuery_RemoveFeaturing(t *testing.T) {
	track := music.Track{ID: "1", Title: "Hello feat. Friend", Artists: []string{"X"}, Album: "Best (Deluxe)"}
	q := buildQuery(music.SearchApproach{ID: "d"}, config.TextProcessing{RemoveFeaturing: true}, "X", track)
	assert.Equal(t, "Hello", q.Title)
	assert.Equal(t, "Best", q.Album)
}

func TestAmpersandVariant(t *testing.T) {
	_, ok := ampersandVariant(music.SearchQuery{Artist: "Queen", Title: "Song"})
	assert.False(t, ok)

	alt, ok := ampersandVariant(music.SearchQuery{Artist: "Earth, Wind &Fire", Title: "Rock & Roll", Error: "x"})
	require.True(t, ok)
	assert.Equal(t, "Earth, Wind and Fire", alt.Artist)
	assert.Equal(t, "Rock and Roll", alt.Title)
	assert.Empty(t, alt.Error)
	assert.Equal(t, "earth, wind and fire|rock and roll|", alt.Signature)
}

func filenames(cs []music.Candidate) []string {
	out := make([]string, 0, len(cs))
	for _, c := range cs {
		out = append(out, c.Filename)
	}
	return out
}
