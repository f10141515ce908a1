// SPDX-License-Identifier: MPL-2.0

// Package watch triggers debounced callbacks when files under a resource tree
// change. Bursts of events (an editor's write-then-rename, an importer
// touching dozens of files) collapse into one callback carrying every
// changed path.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 500 * time.Millisecond

// defaultIgnores never trigger a rebuild. Engine metadata and OS litter change
// constantly without affecting packaged content.
var defaultIgnores = []string{
	"**/.git/**",
	"**/*.meta",
	"**/.DS_Store",
	"**/*.swp",
	"**/*~",
}

// ErrAlreadyRunning is returned by a second call to Run.
var ErrAlreadyRunning = errors.New("watch: Run called more than once")

type (
	// Config holds the parameters for a Watcher.
	Config struct {
		// Root is the directory watched recursively.
		Root string

		// Ignore lists extra doublestar patterns, relative to Root, that never
		// trigger a callback. Directories matching a pattern are not watched.
		Ignore []string

		// Debounce is the quiet period after the last event. Zero means 500ms.
		Debounce time.Duration

		// OnChange receives the changed paths relative to Root, in slash form.
		OnChange func(ctx context.Context, changed []string) error

		Logger *log.Logger
	}

	// Watcher watches a tree and fires debounced callbacks.
	Watcher struct {
		cfg      Config
		fsw      *fsnotify.Watcher
		root     string
		ignores  []string
		debounce time.Duration
		logger   *log.Logger
		started  atomic.Bool
	}
)

// New validates cfg and registers every non-ignored directory under Root.
func New(cfg Config) (*Watcher, error) {
	if cfg.Root == "" {
		return nil, errors.New("watch: root directory is required")
	}
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("watch: resolve root: %w", err)
	}
	for _, pat := range cfg.Ignore {
		if !doublestar.ValidatePattern(pat) {
			return nil, fmt.Errorf("watch: invalid ignore pattern %q", pat)
		}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		cfg:      cfg,
		fsw:      fsw,
		root:     root,
		ignores:  slices.Concat(defaultIgnores, cfg.Ignore),
		debounce: debounce,
		logger:   logger,
	}
	if err := w.addTree(root); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

// Run processes events until ctx is canceled. Callbacks never overlap: a
// callback that is still running when the next debounce window closes pushes
// the pending set to the following window.
func (w *Watcher) Run(ctx context.Context) error {
	if !w.started.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	var (
		mu      sync.Mutex
		pending = make(map[string]struct{})
		timer   *time.Timer
		busy    atomic.Bool
	)

	fire := func() {
		if ctx.Err() != nil {
			return
		}
		if !busy.CompareAndSwap(false, true) {
			w.logger.Debug("previous rebuild still running, deferring")
			mu.Lock()
			timer.Reset(w.debounce)
			mu.Unlock()
			return
		}
		defer busy.Store(false)

		mu.Lock()
		changed := slices.Sorted(maps.Keys(pending))
		clear(pending)
		mu.Unlock()
		if len(changed) == 0 || w.cfg.OnChange == nil {
			return
		}
		if err := w.cfg.OnChange(ctx, changed); err != nil {
			w.logger.Error("change handler failed", "error", err)
		}
	}

	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
		if err := w.fsw.Close(); err != nil {
			w.logger.Warn("closing watcher", "error", err)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case evt, ok := <-w.fsw.Events:
			if !ok {
				return errors.New("watch: event channel closed")
			}
			rel, err := filepath.Rel(w.root, evt.Name)
			if err != nil {
				continue
			}
			rel = filepath.ToSlash(rel)
			if w.ignored(rel) {
				continue
			}
			if evt.Has(fsnotify.Create) {
				w.addIfDir(evt.Name, rel)
			}

			mu.Lock()
			pending[rel] = struct{}{}
			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return errors.New("watch: error channel closed")
			}
			if isFatal(err) {
				return fmt.Errorf("watch: %w", err)
			}
			w.logger.Warn("fsnotify error", "error", err)
		}
	}
}

func (w *Watcher) addTree(dir string) error {
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			w.logger.Warn("skipping unreadable path", "path", p, "error", err)
			return nil //nolint:nilerr // keep watching the rest of the tree
		}
		if !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(w.root, p)
		if relErr != nil {
			return nil //nolint:nilerr // outside the root
		}
		if rel != "." && w.ignoredDir(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(p); err != nil {
			return fmt.Errorf("watch: add %s: %w", p, err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("watch: walk %s: %w", dir, err)
	}
	return nil
}

func (w *Watcher) addIfDir(abs, rel string) {
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() || w.ignoredDir(rel) {
		return
	}
	if err := w.addTree(abs); err != nil {
		w.logger.Warn("watching new directory", "path", abs, "error", err)
	}
}

// ignored reports whether a slash-separated path relative to Root matches an
// ignore pattern.
func (w *Watcher) ignored(rel string) bool {
	for _, pat := range w.ignores {
		if ok, _ := doublestar.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// ignoredDir also tries the trailing-slash form so "Build/**" excludes Build.
func (w *Watcher) ignoredDir(rel string) bool {
	return w.ignored(rel) || w.ignored(rel+"/")
}
