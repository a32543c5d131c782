package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must stay quiet before an event is emitted.
const DefaultDebounce = 500 * time.Millisecond

// Watcher monitors one file and emits a single event per burst of changes.
// The parent directory is watched so that atomic saves, which replace the
// file, are still seen.
type Watcher struct {
	watcher       *fsnotify.Watcher
	watchPath     string
	debounce      time.Duration
	debounceTimer *time.Timer
	debounceMutex sync.Mutex
	pending       FileEvent
	stopOnce      sync.Once
	stopChan      chan struct{}
	eventChan     chan<- FileEvent
}

// NewWatcher creates a new file watcher.
func NewWatcher(eventChan chan<- FileEvent, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		watcher:   watcher,
		debounce:  debounce,
		eventChan: eventChan,
		stopChan:  make(chan struct{}),
	}, nil
}

// Start begins watching path.
func (w *Watcher) Start(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.watchPath = abs
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return err
	}
	go w.watchLoop(ctx)
	slog.Info("File watcher started", "path", abs)
	return nil
}

// Stop stops the watcher. It is safe to call more than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		slog.Info("Stopping file watcher", "path", w.watchPath)
		close(w.stopChan)
		w.debounceMutex.Lock()
		if w.debounceTimer != nil {
			w.debounceTimer.Stop()
			w.debounceTimer = nil
		}
		w.debounceMutex.Unlock()
		w.watcher.Close()
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)
		case <-w.stopChan:
			return
		case <-ctx.Done():
			w.Stop()
			return
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.watchPath {
		return
	}
	kind, ok := eventType(event.Op)
	if !ok {
		return
	}
	slog.Debug("Watched file changed", "file", event.Name, "op", event.Op.String())

	w.debounceMutex.Lock()
	defer w.debounceMutex.Unlock()
	w.pending = FileEvent{Path: w.watchPath, EventType: kind, Timestamp: time.Now()}
	if w.debounceTimer != nil {
		w.debounceTimer.Stop()
	}
	w.debounceTimer = time.AfterFunc(w.debounce, w.emitDebounceEvent)
}

func (w *Watcher) emitDebounceEvent() {
	w.debounceMutex.Lock()
	event := w.pending
	w.debounceTimer = nil
	w.debounceMutex.Unlock()

	select {
	case w.eventChan <- event:
		slog.Debug("Emitted file event after debounce", "path", event.Path, "type", event.EventType)
	case <-w.stopChan:
	default:
		slog.Warn("Event channel full, dropping file event", "path", event.Path)
	}
}
