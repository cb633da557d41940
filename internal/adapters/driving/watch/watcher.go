// Package watch re-triggers analysis when files of a local repository change.
//
// fsnotify does not watch recursively, so every directory the filter keeps is
// added on start and new directories are added as they appear. Changes are
// batched until the repository has been quiet for the debounce delay.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/archer/internal/logger"
)

// DefaultDebounce is the quiet period before a batch is handed over.
const DefaultDebounce = 500 * time.Millisecond

// PathFilter decides which repository-relative paths are watched.
// *repo.Matcher satisfies it.
type PathFilter interface {
	SkipDir(rel string) bool
	SkipPath(rel string, size int64) bool
}

// Handler receives a sorted, de-duplicated batch of changed repository-relative paths.
// Batches are delivered one at a time.
type Handler func(ctx context.Context, paths []string)

// Watcher reports file changes below a root directory.
type Watcher struct {
	root     string
	filter   PathFilter
	debounce time.Duration
	fsw      *fsnotify.Watcher
}

// New creates a watcher for root. A zero debounce uses DefaultDebounce.
func New(root string, filter PathFilter, debounce time.Duration) (*Watcher, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", root, err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		root:     abs,
		filter:   filter,
		debounce: debounce,
		fsw:      fsw,
	}
	if err := w.addTree(abs); err != nil {
		fsw.Close()
		return nil, err
	}
	return w, nil
}

// WatchedDirs returns the directories currently watched.
func (w *Watcher) WatchedDirs() []string {
	return w.fsw.WatchList()
}

// Run delivers batches to handle until ctx is cancelled. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	defer w.fsw.Close()

	pending := newBatch(w.debounce)
	defer pending.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if rel, ok := w.accept(event); ok {
				logger.Debug("watch: %s %s", event.Op, rel)
				pending.Add(rel)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error: %v", err)

		case <-pending.Ready():
			if paths := pending.Take(); len(paths) > 0 {
				handle(ctx, paths)
			}
		}
	}
}

// accept turns an fsnotify event into a repository-relative path,
// starting to watch directories that were just created.
func (w *Watcher) accept(event fsnotify.Event) (string, bool) {
	if event.Op == fsnotify.Chmod {
		return "", false
	}
	rel, ok := w.rel(event.Name)
	if !ok {
		return "", false
	}

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if !w.filter.SkipDir(rel) {
				if err := w.addTree(event.Name); err != nil {
					logger.Warn("watch %s: %v", rel, err)
				}
			}
			return "", false
		}
	}

	if w.filter.SkipPath(rel, -1) {
		return "", false
	}
	return rel, true
}

// addTree watches dir and every directory below it the filter keeps.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if p == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if rel, ok := w.rel(p); ok && w.filter.SkipDir(rel) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return filepath.SkipDir
			}
			return fmt.Errorf("watch %s: %w", p, err)
		}
		return nil
	})
}

// rel returns the slash-separated path of abs relative to the root.
// The root itself maps to "" and is reported as not ok.
func (w *Watcher) rel(abs string) (string, bool) {
	rel, err := filepath.Rel(w.root, abs)
	if err != nil {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}
	return rel, true
}
