package logsource

import (
	"context"
	"log/slog"
	"time"

	"github.com/atikulmunna/logsift/internal/model"
	"github.com/atikulmunna/logsift/internal/watcher"
)

// Snapshot loads patterns into a model.Snapshot.
func Snapshot(ctx context.Context, patterns []string) (model.Snapshot, error) {
	lines, paths, err := Load(ctx, patterns)
	if err != nil {
		return model.Snapshot{}, err
	}
	return model.Snapshot{Sources: paths, Lines: lines, LoadedAt: time.Now()}, nil
}

// Follow emits a snapshot of patterns immediately and again after every
// change w reports. Each snapshot is a complete re-read, not a tail.
// Bursts of events are coalesced into one reload. The channel closes when
// ctx is done or the watcher stops.
func Follow(ctx context.Context, w *watcher.Watcher, patterns []string) <-chan model.Snapshot {
	out := make(chan model.Snapshot, 1)

	go func() {
		defer close(out)

		if !reload(ctx, patterns, out) {
			return
		}
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				drain(w.Events)
				if !reload(ctx, patterns, out) {
					return
				}
			}
		}
	}()

	return out
}

// reload sends a fresh snapshot; it returns false once ctx is done.
func reload(ctx context.Context, patterns []string, out chan<- model.Snapshot) bool {
	snap, err := Snapshot(ctx, patterns)
	if err != nil {
		slog.Warn("reload log source failed", "patterns", patterns, "err", err)
		return ctx.Err() == nil
	}
	select {
	case out <- snap:
		return true
	case <-ctx.Done():
		return false
	}
}

func drain(events <-chan watcher.Event) {
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
