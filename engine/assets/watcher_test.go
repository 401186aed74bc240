package assets

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

type recordingReloader struct {
	mu   sync.Mutex
	keys []string
}

func (r *recordingReloader) Reload(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	return 1
}

func (r *recordingReloader) seen() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

func TestWatcher_HandleEvent(t *testing.T) {
	root := t.TempDir()
	reloader := &recordingReloader{}
	w, err := NewWatcher(NewDirResolver(root), reloader)
	require.NoError(t, err)
	defer w.Close()

	file := filepath.Join(root, "energy_blast.toml")
	require.Equal(t, 1, w.handleEvent(fsnotify.Event{Name: file, Op: fsnotify.Write}))
	require.Zero(t, w.handleEvent(fsnotify.Event{Name: file, Op: fsnotify.Remove}))
	require.Zero(t, w.handleEvent(fsnotify.Event{Name: file, Op: fsnotify.Chmod}))
	require.Zero(t, w.handleEvent(fsnotify.Event{Name: filepath.Dir(root), Op: fsnotify.Write}))

	sub := filepath.Join(root, "ui")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Zero(t, w.handleEvent(fsnotify.Event{Name: sub, Op: fsnotify.Create}))
	require.Contains(t, w.fsnotify.WatchList(), sub)
	require.Equal(t, 1, w.handleEvent(fsnotify.Event{Name: filepath.Join(sub, "example.hcl"), Op: fsnotify.Create}))

	require.Contains(t, reloader.seen(), "energy_blast.toml")
	require.Contains(t, reloader.seen(), "ui/example.hcl")
}

func TestWatcher_ReloadsOnWrite(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "energy_blast.toml")
	require.NoError(t, os.WriteFile(file, []byte("hp_damage = 1\n"), 0o644))

	reloader := &recordingReloader{}
	w, err := NewWatcher(NewDirResolver(root), reloader)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(file, []byte("hp_damage = 2\n"), 0o644))
	require.Eventually(t, func() bool {
		return len(reloader.seen()) > 0
	}, 5*time.Second, 10*time.Millisecond)
	require.Equal(t, "energy_blast.toml", reloader.seen()[0])

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestWatcher_MissingRoot(t *testing.T) {
	_, err := NewWatcher(NewDirResolver(filepath.Join(t.TempDir(), "missing")), &recordingReloader{})
	require.Error(t, err)
}
