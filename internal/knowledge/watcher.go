package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Watcher keeps an Index in sync with its docs directory.
type Watcher struct {
	index         *Index
	watcher       *fsnotify.Watcher
	debounceTime  time.Duration
	mu            sync.Mutex
	pendingEvents map[string]bool
	logger        zerolog.Logger
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewWatcher creates a watcher for ix. Call Start to begin watching.
func NewWatcher(ix *Index, logger zerolog.Logger) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create watcher")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		index:         ix,
		watcher:       w,
		debounceTime:  500 * time.Millisecond,
		pendingEvents: make(map[string]bool),
		logger:        logger,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start watches every non-ignored directory under the docs root.
func (w *Watcher) Start() error {
	root := w.index.Root()
	matcher := loadIgnoreMatcher(root)
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if rel != "." && matcher.MatchesPath(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn().Err(err).Str("dir", path).Msg("cannot watch directory")
		}
		return nil
	})
	if err != nil {
		return errors.Wrap(err, "walk docs for watching")
	}

	w.wg.Add(2)
	go w.eventLoop()
	go w.debounceLoop()
	return nil
}

// Stop stops watching and waits for pending work.
func (w *Watcher) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	rel, err := filepath.Rel(w.index.Root(), event.Name)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn().Err(err).Str("dir", event.Name).Msg("cannot watch new directory")
			}
			return
		}
	}
	// Removals are always queued so stale lines disappear even for files
	// that are no longer eligible.
	if !w.index.opts.eligible(rel) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
		w.mu.Lock()
		w.pendingEvents[rel] = true
		w.mu.Unlock()
	}
}

func (w *Watcher) debounceLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.debounceTime)
	defer ticker.Stop()
	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			w.processPendingEvents()
		}
	}
}

func (w *Watcher) processPendingEvents() {
	w.mu.Lock()
	if len(w.pendingEvents) == 0 {
		w.mu.Unlock()
		return
	}
	paths := make([]string, 0, len(w.pendingEvents))
	for p := range w.pendingEvents {
		paths = append(paths, p)
	}
	w.pendingEvents = make(map[string]bool)
	w.mu.Unlock()

	w.logger.Debug().Int("files", len(paths)).Msg("reindexing changed documents")
	if err := w.index.Reindex(w.ctx, paths); err != nil && w.ctx.Err() == nil {
		w.logger.Warn().Err(err).Msg("reindex failed")
	}
}
