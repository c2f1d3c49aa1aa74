package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/quillstone/recall/internal/engine"
	"github.com/quillstone/recall/pkg/log"
)

// WeightWatcher hot-reloads a YAML weight profile and hands each valid new
// profile to a callback. Invalid or unreadable profiles are skipped with a
// logged warning; the previously applied profile stays in effect.
type WeightWatcher struct {
	path     string
	callback func(engine.WeightProfile)
	watcher  *fsnotify.Watcher
	done     chan struct{}
}

// NewWeightWatcher creates a watcher for the given profile path.
func NewWeightWatcher(path string, callback func(engine.WeightProfile)) *WeightWatcher {
	return &WeightWatcher{
		path:     path,
		callback: callback,
		done:     make(chan struct{}),
	}
}

// Start begins watching. The profile's directory is watched rather than the
// file itself because most editors replace files on save. Call Stop to
// clean up.
func (w *WeightWatcher) Start(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close()
		return err
	}
	w.watcher = fsw

	go w.loop(ctx)
	log.FromCtx(ctx).Info().Str("path", w.path).Msg("watching weight profile for changes")
	return nil
}

// Stop shuts down the watcher.
func (w *WeightWatcher) Stop() {
	// Without a successful Start there is no goroutine to wait for.
	if w.watcher == nil {
		return
	}
	_ = w.watcher.Close()
	<-w.done
}

func (w *WeightWatcher) loop(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			profile, err := LoadWeightProfile(w.path)
			if err != nil {
				log.FromCtx(ctx).Warn().Err(err).Msg("ignoring invalid weight profile update")
				continue
			}
			w.callback(profile)
			log.FromCtx(ctx).Info().Str("path", w.path).Msg("reloaded weight profile")

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}
