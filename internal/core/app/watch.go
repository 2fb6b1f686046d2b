package app

import (
	"context"
	"log/slog"
	"os"
	"time"

	"loadscript/internal/core/watcher"
	"loadscript/internal/output"
	"loadscript/internal/shared/util"
)

// StartWatcher watches the input paths and re-converts changed documents.
// Conversions are debounced and bounded by the configured rate.
func (a *App) StartWatcher(paths []string) error {
	a.mu.RLock()
	cfg := a.Config
	matcher := a.matcher
	a.mu.RUnlock()
	if len(paths) == 0 {
		paths = cfg.Input.Paths
	}

	w, err := watcher.NewWatcher(
		cfg.Watch.Debounce,
		matcher,
		util.NewLimiter(cfg.Watch.Rate, cfg.Watch.Burst),
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	if err := w.Watch(paths); err != nil {
		_ = w.Close()
		return err
	}
	a.activeWatcher = w
	slog.Info("watching for changes", "paths", paths, "debounce", cfg.Watch.Debounce)
	return nil
}

// HandleChanges re-converts the changed documents, drops removed ones and
// rewrites the batch reports over every known document.
func (a *App) HandleChanges(paths []string) {
	slog.Info("detected changes", "count", len(paths))
	start := time.Now()
	ctx := context.Background()

	converted := make([]output.Document, 0, len(paths))
	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.forget(path)
			continue
		}
		converted = append(converted, a.ConvertFile(ctx, path))
	}
	a.remember(converted)

	docs := a.snapshot()
	a.mu.RLock()
	writer := a.writer
	a.mu.RUnlock()
	if _, err := writer.WriteBatch(docs); err != nil {
		slog.Error("failed to write batch reports", "error", err)
	}

	totals := output.Summarize(docs)
	slog.Info("batch converted", "changed", len(paths), "documents", totals.Documents,
		"failed", totals.Failed, "issues", totals.Issues, "duration", time.Since(start))
	a.emitUpdate(Update{Documents: docs, Totals: totals, Changed: paths, At: time.Now().UTC()})
}
