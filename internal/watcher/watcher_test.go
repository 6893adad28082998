package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsWrites(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "access.log")
	require.NoError(t, os.WriteFile(logPath, []byte("existing line\n"), 0644))

	w, err := New([]string{logPath})
	require.NoError(t, err)
	require.Len(t, w.Paths(), 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)

	// Give fsnotify a moment to settle before writing.
	time.Sleep(100 * time.Millisecond)

	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_WRONLY, 0644)
	require.NoError(t, err)
	_, _ = f.WriteString("1.1.1.1 GET 200 ok\n")
	require.NoError(t, f.Close())

	select {
	case ev := <-w.Events:
		assert.Equal(t, w.Paths()[0], ev.Path)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for write event")
	}
}

func TestWatcherNoWatchableFiles(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing.log")})
	assert.Error(t, err)
}

func TestWatcherStopsOnCancel(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "a.log")
	require.NoError(t, os.WriteFile(logPath, nil, 0644))

	w, err := New([]string{logPath})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
	_, open := <-w.Events
	assert.False(t, open)
}
