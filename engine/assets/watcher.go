package assets

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/spaghettifunk/anima-assets/engine/core"
)

// Reloader is the part of the Loader the watcher drives.
type Reloader interface {
	Reload(key string) int
}

// Watcher watches an asset directory recursively and reloads every live
// asset whose source file is written or recreated.
type Watcher struct {
	root     *DirResolver
	reloader Reloader
	fsnotify *fsnotify.Watcher

	mu       sync.Mutex
	isClosed bool
	done     chan struct{}
	stopped  chan struct{}
}

func NewWatcher(root *DirResolver, reloader Reloader) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		root:     root,
		reloader: reloader,
		fsnotify: fsWatch,
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),
	}
	if err := w.watchRecursive(root.Root); err != nil {
		fsWatch.Close()
		return nil, err
	}
	go w.start()
	core.LogInfo("watching '%s' for asset changes", root.Root)
	return w, nil
}

func (w *Watcher) start() {
	defer close(w.stopped)
	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return
			}
			w.handleEvent(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return
			}
			core.LogError("asset watcher: %s", err)

		case <-w.done:
			return
		}
	}
}

// handleEvent returns the number of slots scheduled for reload.
func (w *Watcher) handleEvent(e fsnotify.Event) int {
	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := w.watchRecursive(e.Name); err != nil {
				core.LogWarn("asset watcher failed to watch '%s': %s", e.Name, err)
			}
			return 0
		}
	}
	if e.Op&fsnotify.Remove != 0 {
		// Can't stat a deleted path; the watch list entry, if any, is
		// dropped by fsnotify itself. Live assets keep their last value.
		core.LogDebug("asset source removed: %s", e.Name)
		return 0
	}
	if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return 0
	}

	key, err := w.root.Key(e.Name)
	if err != nil {
		return 0
	}
	n := w.reloader.Reload(key)
	if n > 0 {
		core.LogDebug("asset source changed: %s (%d reloads)", key, n)
	}
	return n
}

// watchRecursive adds every directory under the given one. Removed
// directories drop out of fsnotify on their own.
func (w *Watcher) watchRecursive(path string) error {
	return filepath.WalkDir(path, func(walkPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsnotify.Add(walkPath)
	})
}

// Close stops the watcher. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.isClosed {
		w.mu.Unlock()
		return nil
	}
	w.isClosed = true
	w.mu.Unlock()

	close(w.done)
	err := w.fsnotify.Close()
	<-w.stopped
	if errors.Is(err, fsnotify.ErrClosed) {
		return nil
	}
	return err
}
