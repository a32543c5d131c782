// Package cache persists track-id to external-id mappings between runs.
package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/contre95/soulsearch/src/music"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileStore keeps entries as a JSON array in a single file. Every mutation
// rewrites the whole file through a temp file and a rename.
type FileStore struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// NewFileStore creates a store backed by path. The file is created on the
// first write.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

// Path returns the backing file.
func (s *FileStore) Path() string {
	return s.path
}

// Get returns the entry for key, or nil when there is none.
func (s *FileStore) Get(ctx context.Context, key string) (*music.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, err := s.load()
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].Key == key {
			e := entries[i]
			return &e, nil
		}
	}
	return nil, nil
}

// All returns every entry in file order.
func (s *FileStore) All(ctx context.Context) ([]music.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

// Add stores entry, replacing any entry with the same key.
func (s *FileStore) Add(ctx context.Context, entry music.CacheEntry) error {
	return s.AddBatch(ctx, []music.CacheEntry{entry})
}

// AddBatch stores every entry with one shared timestamp, replacing existing
// entries by key.
func (s *FileStore) AddBatch(ctx context.Context, batch []music.CacheEntry) error {
	if len(batch) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load()
	if err != nil {
		return err
	}
	entries = mergeEntries(entries, batch, s.now())
	return s.write(entries)
}

// mergeEntries drops existing entries whose key is in batch and appends the
// batch, stamped with at. Within the batch the last entry for a key wins.
func mergeEntries(existing, batch []music.CacheEntry, at time.Time) []music.CacheEntry {
	latest := make(map[string]int, len(batch))
	for i, e := range batch {
		latest[e.Key] = i
	}
	out := make([]music.CacheEntry, 0, len(existing)+len(latest))
	for _, e := range existing {
		if _, replaced := latest[e.Key]; !replaced {
			out = append(out, e)
		}
	}
	for i, e := range batch {
		if latest[e.Key] != i {
			continue
		}
		e.CachedAt = at
		out = append(out, e)
	}
	return out
}

func (s *FileStore) load() ([]music.CacheEntry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return []music.CacheEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache file %s: %w", s.path, err)
	}
	if len(data) == 0 {
		return []music.CacheEntry{}, nil
	}
	var entries []music.CacheEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parsing cache file %s: %w", s.path, err)
	}
	return entries, nil
}

func (s *FileStore) write(entries []music.CacheEntry) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling cache: %w", err)
	}
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("syncing cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing cache file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming cache file: %w", err)
	}
	return nil
}
