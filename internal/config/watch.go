package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/theirongolddev/telwatch/internal/logging"
)

// WatchOption configures Watch
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
}

// WithDebounce sets the window used to coalesce writes to the file.
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) { o.debounce = d }
}

// Watch reloads the config at path whenever it changes and passes the new
// config to onChange. Configs that fail to load are logged and skipped.
// The returned function stops watching.
func Watch(path string, onChange func(*Config), logger *zap.Logger, opts ...WatchOption) (func(), error) {
	logger = logging.OrNop(logger)
	o := watchOptions{debounce: 500 * time.Millisecond}
	for _, opt := range opts {
		opt(&o)
	}

	if path == "" {
		path = DefaultPath()
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}
	path = filepath.Clean(absPath)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating config watcher: %w", err)
	}
	// Editors replace files by rename, so watch the directory and filter.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching config path %s: %w", path, err)
	}

	deb := newDebouncer(o.debounce)
	reload := func() {
		cfg, err := Load(path)
		if err != nil {
			logger.Warn("config reload failed", zap.String("path", path), zap.Error(err))
			return
		}
		logger.Info("config reloaded", zap.String("path", path))
		if onChange != nil {
			onChange(cfg)
		}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != path {
					continue
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) || ev.Op.Has(fsnotify.Rename) {
					deb.trigger(reload)
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("config watcher error", zap.Error(err))
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			fsw.Close()
			wg.Wait()
			deb.cancel()
		})
	}, nil
}
