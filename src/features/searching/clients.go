package searching

import (
	"context"

	"github.com/contre95/soulsearch/src/infra/slskd"
	"github.com/contre95/soulsearch/src/music"
)

// SearchClient is the request/poll/cancel/download service searches run against.
type SearchClient interface {
	Submit(ctx context.Context, text string, opts slskd.SearchOptions) (string, error)
	WaitForCompletion(ctx context.Context, id string) (music.SearchSession, error)
	Responses(ctx context.Context, id string) ([]music.PeerResponse, error)
	Cancel(ctx context.Context, id string) error
	Download(ctx context.Context, file music.Candidate) error
}

// Cache stores the files a track was matched to.
type Cache interface {
	Get(ctx context.Context, key string) (*music.CacheEntry, error)
	Add(ctx context.Context, entry music.CacheEntry) error
}

// AlbumResolver looks up the album of a track that came without one.
type AlbumResolver interface {
	ResolveAlbum(ctx context.Context, track music.Track) (album string, mbid string, err error)
}
