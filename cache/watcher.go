package cache

import (
	"context"
	"fmt"
	"log"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cache entries when their backing files change on
// disk, so long-running sessions never serve payloads for edited files
// even before the hash check would catch them.
type Watcher struct {
	cache   *ValidatedCache
	watcher *fsnotify.Watcher
}

// NewWatcher watches root and invalidates entries whose resource ID matches
// an event path. fsnotify does not recurse, use Add for nested directories.
func NewWatcher(cache *ValidatedCache, root string) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fsWatcher.Add(root); err != nil {
		fsWatcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", root, err)
	}
	return &Watcher{cache: cache, watcher: fsWatcher}, nil
}

// Add registers another directory with the watcher.
func (w *Watcher) Add(dir string) error {
	return w.watcher.Add(dir)
}

// Start consumes events until the context is cancelled or the watcher is
// closed.
func (w *Watcher) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				if removed := w.cache.Invalidate(event.Name); removed > 0 {
					log.Printf("cache: invalidated %d entries for %s", removed, event.Name)
				}
			case err, ok := <-w.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("cache: watcher error: %v", err)
			}
		}
	}()
}

// Close stops the underlying watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
