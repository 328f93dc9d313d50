package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/Mohi32/signal-emulator/internal/xlog"
)

// Watcher hot-reloads an AppConfig from its source file, mirroring the
// teacher's ConfigHolder.StartWatcher/watchLoop (internal/config/reload.go):
// it watches the file's directory (so atomic replace-by-rename is caught),
// debounces rapid writes, and hands each successfully reloaded AppConfig to
// a callback. Used only when the CLI is run as a long-lived batch
// scheduler rather than a one-shot `emulate` invocation.
type Watcher struct {
	loader     *Loader
	configPath string
	onReload   func(AppConfig)
}

// NewWatcher builds a Watcher for the given loader and its config path.
// onReload is invoked with each successfully reloaded AppConfig;
// reload errors are logged and otherwise ignored so a transient bad edit
// cannot crash a running batch scheduler.
func NewWatcher(loader *Loader, configPath string, onReload func(AppConfig)) *Watcher {
	return &Watcher{loader: loader, configPath: configPath, onReload: onReload}
}

// Start begins watching until ctx is cancelled. A no-op if configPath is
// empty (ENV/default-only configuration has nothing to watch).
func (w *Watcher) Start(ctx context.Context) error {
	logger := xlog.WithComponent("config")
	if w.configPath == "" {
		logger.Info().Msg("config watcher disabled: no config file path")
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	dir := filepath.Dir(w.configPath)
	file := filepath.Base(w.configPath)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return err
	}

	logger.Info().Str("path", w.configPath).Msg("watching config file for changes")
	go w.loop(ctx, fw, file, logger)
	return nil
}

func (w *Watcher) loop(ctx context.Context, fw *fsnotify.Watcher, file string, logger zerolog.Logger) {
	defer func() { _ = fw.Close() }()

	const debounce = 500 * time.Millisecond
	var timer *time.Timer

	reload := func() {
		cfg, err := w.loader.Load()
		if err != nil {
			logger.Error().Err(err).Msg("config reload failed")
			return
		}
		if w.onReload != nil {
			w.onReload(cfg)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != file {
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)) {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, reload)
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			logger.Error().Err(err).Msg("config watcher error")
		}
	}
}
