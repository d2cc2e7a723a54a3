package files

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const reloadDebounce = 250 * time.Millisecond

// Watcher reloads a SiteStore when its file changes on disk.
type Watcher struct {
	watcher *fsnotify.Watcher
	store   *SiteStore
	target  string
	log     zerolog.Logger
}

// NewWatcher watches the directory holding the site file; editors and
// SetMaintenance replace the file by rename, which a file watch would miss.
func NewWatcher(store *SiteStore, logger zerolog.Logger) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	target := filepath.Clean(store.Path())
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", filepath.Dir(target), err)
	}
	return &Watcher{watcher: watcher, store: store, target: target, log: logger}, nil
}

// Run blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(reloadDebounce, func() {
				if err := w.store.Reload(); err != nil {
					w.log.Error().Err(err).Str("path", w.target).Msg("site settings reload failed")
					return
				}
				w.log.Info().Str("path", w.target).Bool("maintenance", w.store.MaintenanceActive()).Msg("site settings reloaded")
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.log.Warn().Err(err).Msg("file watcher error")
		}
	}
}
