package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Event reports that a watched log file changed.
type Event struct {
	Path string
	Op   fsnotify.Op
}

// Watcher signals changes to a fixed set of log files.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
	paths  []string

	// rewatchDelay is how long to wait before re-adding a rotated file.
	rewatchDelay time.Duration
	rewatchTries int
}

// New creates a Watcher for the given file paths. Paths that cannot be watched
// are logged and skipped; an error is returned only if none can be watched.
func New(paths []string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		fsw:          fsw,
		Events:       make(chan Event, 64),
		rewatchDelay: time.Second,
		rewatchTries: 5,
	}

	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			abs = p
		}
		if err := fsw.Add(abs); err != nil {
			slog.Warn("cannot watch log file", "path", abs, "err", err)
			continue
		}
		w.paths = append(w.paths, abs)
	}

	if len(w.paths) == 0 {
		fsw.Close()
		return nil, fmt.Errorf("no watchable files among %v", paths)
	}
	return w, nil
}

// Start forwards change events until the context is cancelled.
// Writes and creates are forwarded as-is; a removed or renamed file is
// re-added once it reappears and then reported as a create.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			switch {
			case ev.Op&(fsnotify.Write|fsnotify.Create) != 0:
				w.emit(ctx, Event{Path: ev.Name, Op: ev.Op})
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				if w.rewatch(ctx, ev.Name) {
					w.emit(ctx, Event{Path: ev.Name, Op: fsnotify.Create})
				}
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Error("watcher error", "err", err)
		}
	}
}

// Paths returns the absolute paths being watched.
func (w *Watcher) Paths() []string {
	return w.paths
}

func (w *Watcher) emit(ctx context.Context, ev Event) {
	select {
	case w.Events <- ev:
	case <-ctx.Done():
	}
}

// rewatch polls for a rotated file to reappear.
func (w *Watcher) rewatch(ctx context.Context, path string) bool {
	for i := 0; i < w.rewatchTries; i++ {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(w.rewatchDelay):
		}
		if err := w.fsw.Add(path); err == nil {
			slog.Info("re-watching rotated log file", "path", path)
			return true
		}
	}
	slog.Warn("gave up re-watching log file", "path", path, "tries", w.rewatchTries)
	return false
}
