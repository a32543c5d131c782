package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/contre95/soulsearch/src/music"
	_ "github.com/mattn/go-sqlite3"
)

// Kinds of cache kept side by side in one database.
const (
	KindTrackLinks  = "track_links"
	KindExternalIDs = "external_ids"
)

// OpenSqlite opens (and migrates) the cache database at path.
func OpenSqlite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, err
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			kind TEXT NOT NULL,
			key TEXT NOT NULL,
			mapped_ids TEXT NOT NULL,
			meta TEXT,
			cached_at TEXT NOT NULL,
			PRIMARY KEY (kind, key)
		);
	`)
	if err != nil {
		return fmt.Errorf("creating cache tables: %w", err)
	}
	return nil
}

// SqliteStore is one cache kind inside a shared SQLite database.
type SqliteStore struct {
	db   *sql.DB
	kind string
	now  func() time.Time
}

// NewSqliteStore creates a store for kind on db.
func NewSqliteStore(db *sql.DB, kind string) *SqliteStore {
	return &SqliteStore{db: db, kind: kind, now: time.Now}
}

func (s *SqliteStore) Get(ctx context.Context, key string) (*music.CacheEntry, error) {
	var mapped, cachedAt string
	var meta sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT mapped_ids, meta, cached_at FROM cache_entries WHERE kind = ? AND key = ?`,
		s.kind, key).Scan(&mapped, &meta, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache entry %s: %w", key, err)
	}
	return decodeRow(key, mapped, meta, cachedAt)
}

func (s *SqliteStore) All(ctx context.Context) ([]music.CacheEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, mapped_ids, meta, cached_at FROM cache_entries WHERE kind = ? ORDER BY cached_at, key`, s.kind)
	if err != nil {
		return nil, fmt.Errorf("listing cache entries: %w", err)
	}
	defer rows.Close()

	entries := []music.CacheEntry{}
	for rows.Next() {
		var key, mapped, cachedAt string
		var meta sql.NullString
		if err := rows.Scan(&key, &mapped, &meta, &cachedAt); err != nil {
			return nil, err
		}
		e, err := decodeRow(key, mapped, meta, cachedAt)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

func (s *SqliteStore) Add(ctx context.Context, entry music.CacheEntry) error {
	return s.AddBatch(ctx, []music.CacheEntry{entry})
}

// AddBatch writes every entry in one transaction with a single timestamp.
func (s *SqliteStore) AddBatch(ctx context.Context, batch []music.CacheEntry) error {
	if len(batch) == 0 {
		return nil
	}
	at := s.now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting cache transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (kind, key, mapped_ids, meta, cached_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing cache insert: %w", err)
	}
	defer stmt.Close()

	for _, e := range batch {
		mapped, err := json.Marshal(nonNil(e.MappedIDs))
		if err != nil {
			return err
		}
		var meta sql.NullString
		if len(e.Meta) > 0 {
			raw, err := json.Marshal(e.Meta)
			if err != nil {
				return err
			}
			meta = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, s.kind, e.Key, string(mapped), meta, at); err != nil {
			return fmt.Errorf("writing cache entry %s: %w", e.Key, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing cache transaction: %w", err)
	}
	return nil
}

func decodeRow(key, mapped string, meta sql.NullString, cachedAt string) (*music.CacheEntry, error) {
	e := &music.CacheEntry{Key: key}
	if err := json.Unmarshal([]byte(mapped), &e.MappedIDs); err != nil {
		return nil, fmt.Errorf("decoding cache entry %s: %w", key, err)
	}
	if meta.Valid && meta.String != "" {
		if err := json.Unmarshal([]byte(meta.String), &e.Meta); err != nil {
			return nil, fmt.Errorf("decoding cache entry %s meta: %w", key, err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, cachedAt)
	if err != nil {
		return nil, fmt.Errorf("decoding cache entry %s timestamp: %w", key, err)
	}
	e.CachedAt = t
	return e, nil
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
