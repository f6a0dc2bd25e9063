// Package watcher keeps the chunk store in sync with a set of local
// directories by re-ingesting files as they change.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/lexground/internal/core/domain"
	"github.com/custodia-labs/lexground/internal/core/ports/driving"
	"github.com/custodia-labs/lexground/internal/logger"
)

// DefaultDebounce coalesces bursts of events for the same file.
const DefaultDebounce = 500 * time.Millisecond

type action int

const (
	actionNone action = iota
	actionIngest
	actionRemove
)

// Config configures a Watcher.
type Config struct {
	// Debounce is how long a path must be quiet before it is processed.
	Debounce time.Duration

	// Meta is applied to every ingested file.
	Meta domain.Document
}

// Watcher re-ingests files under watched directories when they change.
type Watcher struct {
	ingest driving.IngestService
	cfg    Config
	fs     *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]action
}

// New creates a watcher. Call Add for each root, then Run.
func New(ingest driving.IngestService, cfg Config) (*Watcher, error) {
	if ingest == nil {
		return nil, fmt.Errorf("%w: ingest service is required", domain.ErrInvalidInput)
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create file watcher: %w", err)
	}

	return &Watcher{
		ingest:  ingest,
		cfg:     cfg,
		fs:      fsw,
		pending: make(map[string]action),
	}, nil
}

// Add watches root and every non-hidden directory below it.
func (w *Watcher) Add(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && hidden(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		logger.Debug("watching %s", path)
		return nil
	})
}

// Run processes file events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !w.record(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.cfg.Debounce)
			} else {
				timer.Reset(w.cfg.Debounce)
			}
			fire = timer.C

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher: %v", err)

		case <-fire:
			fire = nil
			w.flush(ctx)
		}
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// record queues the action for an event and reports whether one was queued.
// New directories are watched immediately and their files queued.
func (w *Watcher) record(event fsnotify.Event) bool {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if hidden(event.Name) {
				return false
			}
			if err := w.Add(event.Name); err != nil {
				logger.Warn("watcher: %v", err)
			}
			files, err := Files(event.Name)
			if err != nil {
				logger.Warn("watcher: %v", err)
			}
			w.mu.Lock()
			for _, f := range files {
				w.pending[f] = actionIngest
			}
			w.mu.Unlock()
			return len(files) > 0
		}
	}

	act := classify(event)
	if act == actionNone {
		return false
	}
	w.mu.Lock()
	w.pending[event.Name] = act
	w.mu.Unlock()
	return true
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	batch := w.pending
	w.pending = make(map[string]action)
	w.mu.Unlock()

	paths := make([]string, 0, len(batch))
	for p := range batch {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, path := range paths {
		if ctx.Err() != nil {
			return
		}
		switch batch[path] {
		case actionIngest:
			res, err := w.ingest.IngestFile(ctx, path, w.cfg.Meta)
			switch {
			case errors.Is(err, domain.ErrUnsupportedFormat):
				logger.Debug("watcher: skipping %s", path)
			case err != nil:
				logger.Warn("watcher: ingest %s: %v", path, err)
			default:
				logger.Info("Ingested %s (%d chunks)", path, res.Chunks)
			}
		case actionRemove:
			if err := w.ingest.RemoveFile(ctx, path); err != nil {
				logger.Warn("watcher: remove %s: %v", path, err)
			}
		}
	}
}

// classify maps a file event to an action. Hidden files and permission
// changes are ignored; a rename is a removal of the old name.
func classify(event fsnotify.Event) action {
	if hidden(event.Name) {
		return actionNone
	}
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return actionRemove
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		if info, err := os.Stat(event.Name); err != nil || !info.Mode().IsRegular() {
			return actionNone
		}
		return actionIngest
	default:
		return actionNone
	}
}

// Files returns the regular, non-hidden files under root in lexical order.
// A root that is itself a file is returned as the only entry.
func Files(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != root && hidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return files, nil
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
