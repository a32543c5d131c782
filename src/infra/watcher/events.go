package watcher

import (
	"time"

	"github.com/fsnotify/fsnotify"
)

// FileEventType represents the type of file system event
type FileEventType string

const (
	FileCreated  FileEventType = "created"
	FileRemoved  FileEventType = "removed"
	FileModified FileEventType = "modified"
)

// FileEvent represents a file system event
type FileEvent struct {
	Path      string
	EventType FileEventType
	Timestamp time.Time
}

func eventType(op fsnotify.Op) (FileEventType, bool) {
	switch {
	case op.Has(fsnotify.Create), op.Has(fsnotify.Rename):
		// editors that save through a temp file end with a create or rename
		return FileCreated, true
	case op.Has(fsnotify.Write):
		return FileModified, true
	case op.Has(fsnotify.Remove):
		return FileRemoved, true
	}
	return "", false
}
