package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	log "github.com/sirupsen/logrus"
)

const reloadDebounce = 250 * time.Millisecond

// Watch reloads the configuration when the file at path changes, replaces
// the instance returned by Get and hands the new value to onChange. Invalid
// edits are logged and ignored. Watch blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create config watcher: %w", err)
	}
	defer w.Close()

	// Editors replace files on save, so watch the directory
	dir, file := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	log.WithField("path", path).Info("Watching config file for changes")

	var (
		timerMu sync.Mutex
		timer   *time.Timer
	)
	reload := func() {
		if ctx.Err() != nil {
			return
		}
		cfg, err := load()
		if err != nil {
			log.WithError(err).Warn("Ignoring invalid config change")
			return
		}

		mu.Lock()
		instance = cfg
		mu.Unlock()

		log.WithField("path", path).Info("Config reloaded")
		onChange(cfg)
	}
	defer func() {
		timerMu.Lock()
		if timer != nil {
			timer.Stop()
		}
		timerMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != file {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timerMu.Lock()
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(reloadDebounce, reload)
			timerMu.Unlock()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("Config watch error")
		}
	}
}
