package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const defaultReloadDebounce = 100 * time.Millisecond

// Watcher reloads loadscript.toml while watch mode runs.
//
// Every reload goes through Parse, so the callback only receives a Config
// that passed Validate, with its relative paths resolved against the
// config file's directory. An edit that does not parse or validate is
// logged and the running configuration stays in effect. A save that leaves
// the file's bytes unchanged never reaches the callback.
type Watcher struct {
	path     string
	debounce time.Duration
	callback func(*Config)

	mu    sync.Mutex
	last  []byte // contents of the last applied configuration
	timer *time.Timer

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher returns a watcher for the config file at path. The current
// contents are taken as already applied, so only later edits reload.
func NewWatcher(path string, callback func(*Config)) *Watcher {
	w := &Watcher{
		path:     filepath.Clean(path),
		debounce: defaultReloadDebounce,
		callback: callback,
		stop:     make(chan struct{}),
	}
	if data, err := os.ReadFile(w.path); err == nil {
		w.last = data
	}
	return w
}

// Start watches the config file's directory until ctx is done or Stop is
// called. The directory is watched so editors that save by rename are seen.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return err
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer watcher.Close()

		slog.Debug("watching config", "path", w.path)
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != w.path {
					continue
				}
				switch {
				case event.Op&(fsnotify.Write|fsnotify.Create) != 0:
					w.schedule()
				case event.Op&fsnotify.Remove != 0:
					slog.Warn("config file removed, keeping current configuration", "path", w.path)
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				slog.Warn("config watcher error", "error", err)

			case <-w.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// Stop ends watching and cancels a pending reload. It is safe to call more
// than once.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
	})
	w.wg.Wait()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

func (w *Watcher) reload() {
	if w.stopped() {
		return
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Warn("config reload skipped", "path", w.path, "error", err)
		return
	}

	w.mu.Lock()
	unchanged := bytes.Equal(data, w.last)
	w.mu.Unlock()
	if unchanged {
		slog.Debug("config unchanged", "path", w.path)
		return
	}

	cfg, err := Parse(string(data))
	if err != nil {
		slog.Error("config reload failed, keeping current configuration", "path", w.path, "error", err)
		return
	}
	ResolvePaths(cfg, filepath.Dir(w.path))

	w.mu.Lock()
	w.last = data
	w.mu.Unlock()

	slog.Info("config reloaded", "path", w.path, "passes", cfg.Passes.Enabled, "fail_on_issues", cfg.Policy.FailOnIssues)
	if w.callback != nil {
		w.callback(cfg)
	}
}
