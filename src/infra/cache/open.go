package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/contre95/soulsearch/src/music"
)

// Store is the behaviour shared by FileStore and SqliteStore.
type Store interface {
	Get(ctx context.Context, key string) (*music.CacheEntry, error)
	All(ctx context.Context) ([]music.CacheEntry, error)
	Add(ctx context.Context, entry music.CacheEntry) error
	AddBatch(ctx context.Context, entries []music.CacheEntry) error
}

// Options selects the cache driver and where it keeps its data.
type Options struct {
	Driver          string
	TrackLinksPath  string
	ExternalIDsPath string
	SqlitePath      string
}

// Stores bundles the two cache kinds.
type Stores struct {
	TrackLinks  Store
	ExternalIDs Store
	db          *sql.DB
}

// Close releases the database handle, if any.
func (s *Stores) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Open builds both stores for the configured driver ("json" or "sqlite").
func Open(opts Options) (*Stores, error) {
	switch opts.Driver {
	case "", "json":
		return &Stores{
			TrackLinks:  NewFileStore(opts.TrackLinksPath),
			ExternalIDs: NewFileStore(opts.ExternalIDsPath),
		}, nil
	case "sqlite":
		if err := os.MkdirAll(filepath.Dir(opts.SqlitePath), 0755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
		db, err := OpenSqlite(opts.SqlitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite cache: %w", err)
		}
		return &Stores{
			TrackLinks:  NewSqliteStore(db, KindTrackLinks),
			ExternalIDs: NewSqliteStore(db, KindExternalIDs),
			db:          db,
		}, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", opts.Driver)
	}
}
