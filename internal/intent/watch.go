package intent

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ReloadWatcher watches a pattern file and reloads the classifier when it
// changes. A file that fails to load or compile leaves the active set in
// place; the failure is logged and the watcher keeps running.
type ReloadWatcher struct {
	path       string
	classifier *PatternClassifier
	logger     *slog.Logger
	fsw        *fsnotify.Watcher
	stopCh     chan struct{}
	stopOnce   sync.Once
}

// NewReloadWatcher creates a watcher for the given pattern file. The parent
// directory is watched rather than the file itself so atomic replace-by-rename
// saves from editors are still observed.
func NewReloadWatcher(path string, classifier *PatternClassifier, logger *slog.Logger) (*ReloadWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve pattern file path: %w", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	return &ReloadWatcher{
		path:       abs,
		classifier: classifier,
		logger:     logger,
		fsw:        fsw,
		stopCh:     make(chan struct{}),
	}, nil
}

// Start runs the watch loop until the context is cancelled or Stop is called.
func (w *ReloadWatcher) Start(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filepath.Base(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.reload()
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("pattern_watch_error", slog.String("error", err.Error()))
		}
	}
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (w *ReloadWatcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.fsw.Close()
	})
	return err
}

// reload loads the pattern file and swaps it into the classifier.
func (w *ReloadWatcher) reload() {
	set, err := LoadPatternSet(w.path)
	if err != nil {
		w.logger.Warn("pattern_reload_failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}

	if err := w.classifier.Reload(set); err != nil {
		w.logger.Warn("pattern_reload_failed",
			slog.String("path", w.path),
			slog.String("error", err.Error()))
		return
	}

	w.logger.Info("patterns_reloaded",
		slog.String("path", w.path),
		slog.String("version", set.Version))
}
