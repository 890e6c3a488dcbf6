// Package watch reloads Sources whose local files change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"github.com/roach88/cinemad/internal/engine"
	"github.com/roach88/cinemad/internal/fetch"
	"github.com/roach88/cinemad/internal/session"
)

// DefaultDelay coalesces the burst of events an editor save produces.
const DefaultDelay = 250 * time.Millisecond

// Reloader re-activates the Displays that use a Source.
// *session.Session implements it.
type Reloader interface {
	ReloadSource(ctx context.Context, source string) (session.Result, error)
}

// Watcher maps file events onto Source reloads.
//
// Directories are watched rather than files so that editors which save by
// rename keep triggering events.
type Watcher struct {
	reloader Reloader
	logger   *slog.Logger
	delay    time.Duration

	watcher *fsnotify.Watcher
	sources map[string][]string // cleaned absolute path -> source ids

	mu        sync.Mutex
	debounced map[string]func(func())
}

// New creates a Watcher for every Source of db backed by a local file.
// Remote Sources are skipped. A delay <= 0 uses DefaultDelay.
func New(db *engine.Database, reloader Reloader, delay time.Duration, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		reloader:  reloader,
		logger:    logger,
		delay:     delay,
		watcher:   fw,
		sources:   make(map[string][]string),
		debounced: make(map[string]func(func())),
	}

	dirs := make(map[string]bool)
	for _, src := range db.Sources() {
		uri := src.Info().URI
		if fetch.IsRemote(uri) {
			continue
		}
		path, err := fetch.LocalPath(uri)
		if err != nil {
			logger.Warn("cannot watch source", "source", src.ID(), "uri", uri, "error", err)
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			logger.Warn("cannot watch source", "source", src.ID(), "uri", uri, "error", err)
			continue
		}
		w.sources[abs] = append(w.sources[abs], src.ID())
		dirs[filepath.Dir(abs)] = true
	}

	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
	}
	return w, nil
}

// Paths returns the number of watched files.
func (w *Watcher) Paths() int { return len(w.sources) }

// Run delivers reloads until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			for _, id := range w.sources[abs] {
				w.schedule(ctx, id)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

// schedule debounces a reload of one Source.
func (w *Watcher) schedule(ctx context.Context, source string) {
	w.mu.Lock()
	fn, ok := w.debounced[source]
	if !ok {
		fn = debounce.New(w.delay)
		w.debounced[source] = fn
	}
	w.mu.Unlock()

	fn(func() {
		if ctx.Err() != nil {
			return
		}
		res, err := w.reloader.ReloadSource(ctx, source)
		if err != nil {
			w.logger.Warn("source reload failed", "source", source, "error", err)
			return
		}
		w.logger.Info("source changed; displays re-activated",
			"source", source,
			"displays", res.Displays,
		)
	})
}
