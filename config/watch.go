package config

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Watch reloads path whenever it changes and passes each successful parse to
// fn. The parent directory is watched so editors that replace the file by
// rename are seen too. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, log zerolog.Logger, fn func(*Snapshot)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	for {
		var ev fsnotify.Event
		select {
		case <-ctx.Done():
			return nil
		case ev = <-watcher.Events:
		case err := <-watcher.Errors:
			log.Warn().Err(err).Msg("config watch")
			continue
		}
		if filepath.Clean(ev.Name) != path {
			continue
		}
		if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
			continue
		}
		snap, err := Load(path)
		if err != nil {
			log.Warn().Err(err).Msg("config reload")
			continue
		}
		log.Debug().Str("event", ev.Op.String()).Msg("config changed")
		fn(snap)
	}
}
