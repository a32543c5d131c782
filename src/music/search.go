package music

import (
	"path"
	"strings"
	"time"
)

// SearchApproach is a named text-preprocessing configuration. Approaches are
// tried in the order they are configured.
type SearchApproach struct {
	ID           string `yaml:"id" json:"id" validate:"required"`
	Filtered     bool   `yaml:"filtered" json:"filtered"`
	Trim         bool   `yaml:"trim" json:"trim"`
	IgnoreQuotes bool   `yaml:"ignore_quotes" json:"ignoreQuotes"`
	Force        bool   `yaml:"force" json:"force"`
}

// SearchQuery is one concrete search attempt, recorded for diagnostics.
type SearchQuery struct {
	Approach  string      `json:"approach"`
	Artist    string      `json:"artist"`
	Title     string      `json:"title"`
	Album     string      `json:"album"`
	Signature string      `json:"signature"`
	Duplicate bool        `json:"duplicate,omitempty"`
	Error     string      `json:"error,omitempty"`
	Result    []Candidate `json:"result,omitempty"`
}

// Text is the free-text string sent to the search service.
func (q SearchQuery) Text() string {
	return strings.TrimSpace(q.Artist + " " + q.Title)
}

// FieldMatch is the outcome of comparing one pair of strings.
type FieldMatch struct {
	Match      bool    `json:"match"`
	Contains   bool    `json:"contains"`
	Similarity float64 `json:"similarity"`
}

// MatchResult holds a FieldMatch per compared field.
type MatchResult struct {
	Artist          FieldMatch `json:"artist"`
	Title           FieldMatch `json:"title"`
	Album           FieldMatch `json:"album"`
	ArtistInTitle   FieldMatch `json:"artistInTitle"`
	ArtistWithTitle FieldMatch `json:"artistWithTitle"`
}

// Field returns the FieldMatch for a filter field name.
func (m MatchResult) Field(name string) (FieldMatch, bool) {
	switch name {
	case "artist":
		return m.Artist, true
	case "title":
		return m.Title, true
	case "album":
		return m.Album, true
	case "artistInTitle":
		return m.ArtistInTitle, true
	case "artistWithTitle":
		return m.ArtistWithTitle, true
	}
	return FieldMatch{}, false
}

// ExtractedMetadata is what could be derived from a remote file path.
type ExtractedMetadata struct {
	Artist  string `json:"artist"`
	Title   string `json:"title"`
	Album   string `json:"album,omitempty"`
	Pattern string `json:"pattern"`
}

// Candidate is a raw hit from the search service plus derived fields.
type Candidate struct {
	Username          string             `json:"username"`
	Filename          string             `json:"filename"`
	Size              int64              `json:"size"`
	Extension         string             `json:"extension"`
	BitRate           int                `json:"bitRate,omitempty"`
	BitDepth          int                `json:"bitDepth,omitempty"`
	SampleRate        int                `json:"sampleRate,omitempty"`
	Length            int                `json:"length,omitempty"`
	IsLocked          bool               `json:"isLocked"`
	HasFreeUploadSlot bool               `json:"hasFreeUploadSlot"`
	QueueLength       int                `json:"queueLength,omitempty"`
	UploadSpeed       int                `json:"uploadSpeed,omitempty"`
	Metadata          *ExtractedMetadata `json:"metadata,omitempty"`
	Matching          *MatchResult       `json:"matching,omitempty"`
}

// SourceID identifies the file on the search service.
func (c Candidate) SourceID() string {
	return c.Username + "\\" + c.Filename
}

// BaseName returns the last element of the remote path, which may use either
// slash style.
func (c Candidate) BaseName() string {
	return path.Base(strings.ReplaceAll(c.Filename, "\\", "/"))
}

// PeerResponse groups the files one peer returned for a search.
type PeerResponse struct {
	Username          string      `json:"username"`
	HasFreeUploadSlot bool        `json:"hasFreeUploadSlot"`
	QueueLength       int         `json:"queueLength"`
	UploadSpeed       int         `json:"uploadSpeed"`
	FileCount         int         `json:"fileCount"`
	LockedFileCount   int         `json:"lockedFileCount"`
	Files             []Candidate `json:"files"`
}

// SessionState is the lifecycle state of a remote search session.
type SessionState string

const (
	SessionRequested  SessionState = "Requested"
	SessionInProgress SessionState = "InProgress"
	SessionCompleted  SessionState = "Completed"
	SessionErrored    SessionState = "Errored"
	SessionCancelled  SessionState = "Cancelled"
)

// Terminal reports whether no further transitions can happen.
func (s SessionState) Terminal() bool {
	return s == SessionCompleted || s == SessionErrored || s == SessionCancelled
}

// SearchSession is the service-side handle for one in-flight search.
type SearchSession struct {
	ID              string       `json:"id"`
	State           SessionState `json:"state"`
	FileCount       int          `json:"fileCount"`
	LockedFileCount int          `json:"lockedFileCount"`
	ResponseCount   int          `json:"responseCount"`
}

// SearchResponse is what the orchestrator hands back to its caller.
type SearchResponse struct {
	Track      Track         `json:"track"`
	Queries    []SearchQuery `json:"queries"`
	Result     []Candidate   `json:"result"`
	Analyzed   []Candidate   `json:"analyzed,omitempty"`
	FromCache  bool          `json:"fromCache,omitempty"`
	CachedIDs  []string      `json:"cachedIds,omitempty"`
	Downloaded *Candidate    `json:"downloaded,omitempty"`
	Duration   time.Duration `json:"duration"`
}

// Found reports whether the search produced a usable result.
func (r SearchResponse) Found() bool {
	return len(r.Result) > 0 || len(r.CachedIDs) > 0
}

// CacheEntry maps a track (or external) id to the ids it was matched with.
type CacheEntry struct {
	Key       string            `json:"key"`
	MappedIDs []string          `json:"mappedIds"`
	CachedAt  time.Time         `json:"cachedAt"`
	Meta      map[string]string `json:"meta,omitempty"`
}
