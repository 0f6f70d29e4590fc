// Package watcher calls back when a file on disk changes.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const defaultDebounce = 500 * time.Millisecond

// relevant covers in-place writes and the create that follows an atomic
// rename over the target.
const relevant = fsnotify.Write | fsnotify.Create

// Watcher reports settled changes to a single file
type Watcher struct {
	path     string
	onChange func()
	debounce time.Duration
	logger   zerolog.Logger
}

// New returns a Watcher for path. onChange runs on the Watch goroutine,
// so two invocations never overlap.
func New(path string, onChange func(), logger zerolog.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: defaultDebounce,
		logger:   logger,
	}
}

// WithDebounce sets the quiet period that must pass after the last event
// before onChange fires.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Watch blocks until ctx is cancelled or the underlying notifier fails.
// The parent directory is watched because editors and config management
// tools usually replace a file rather than rewrite it.
func (w *Watcher) Watch(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create notifier: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.Info().Str("path", w.path).Dur("debounce", w.debounce).Msg("watching for changes")

	// Stop and Reset discard stale fires since Go 1.23
	settle := time.NewTimer(w.debounce)
	settle.Stop()

	for {
		select {
		case <-ctx.Done():
			settle.Stop()
			return ctx.Err()

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&relevant == 0 {
				continue
			}
			settle.Reset(w.debounce)

		case <-settle.C:
			w.logger.Info().Str("path", w.path).Msg("file changed")
			w.onChange()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn().Err(err).Str("path", w.path).Msg("notifier error")
		}
	}
}
