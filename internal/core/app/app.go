package app

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"loadscript/internal/core/config"
	"loadscript/internal/core/watcher"
	"loadscript/internal/data/history"
	"loadscript/internal/engine/passes"
	"loadscript/internal/output"
)

// Update is published after every batch of conversions.
type Update struct {
	Documents []output.Document // latest outcome per document, sorted by path
	Totals    output.Totals
	Changed   []string
	At        time.Time
}

// App converts test documents: it loads them, runs the configured pass
// pipeline, writes reports and records each run in the history store.
type App struct {
	Config *config.Config
	Root   string

	mu       sync.RWMutex
	pipeline *passes.Pipeline
	matcher  *watcher.Matcher
	writer   *output.Writer

	history *history.Store

	updateMu sync.RWMutex
	onUpdate func(Update)

	// Latest outcome per document path, used for watch-mode batch reports.
	docsMu    sync.RWMutex
	documents map[string]output.Document
	lastAt    time.Time

	activeWatcher *watcher.Watcher
}

// New builds an App from cfg. Root anchors relative paths in reports,
// normally the directory holding the config file.
func New(cfg *config.Config, root string) (*App, error) {
	a := &App{
		Config:    cfg,
		Root:      root,
		documents: make(map[string]output.Document),
	}
	if err := a.configure(cfg); err != nil {
		return nil, err
	}

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.BusyTimeout)
		if err != nil {
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.history = store
	}
	return a, nil
}

func (a *App) configure(cfg *config.Config) error {
	pipeline, err := passes.NewPipeline(cfg.Passes.Enabled)
	if err != nil {
		return err
	}
	matcher, err := watcher.NewMatcher(cfg.Input.Include, cfg.Input.ExcludeDirs, cfg.Input.ExcludeFiles)
	if err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.Config = cfg
	a.pipeline = pipeline
	a.matcher = matcher
	a.writer = &output.Writer{Dir: cfg.Output.Dir, Root: a.Root, Formats: cfg.Output.Formats}
	return nil
}

// UpdateConfig swaps in a reloaded configuration. The history store and an
// active watcher keep running with their original settings.
func (a *App) UpdateConfig(cfg *config.Config) error {
	if err := a.configure(cfg); err != nil {
		return err
	}
	slog.Info("configuration reloaded", "passes", cfg.Passes.Enabled)
	return nil
}

func (a *App) Pipeline() *passes.Pipeline {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.pipeline
}

// History returns the run history store, or nil when history is disabled.
func (a *App) History() *history.Store {
	return a.history
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// CurrentUpdate returns the state of every document converted so far.
func (a *App) CurrentUpdate() Update {
	docs := a.snapshot()
	a.docsMu.RLock()
	at := a.lastAt
	a.docsMu.RUnlock()
	return Update{Documents: docs, Totals: output.Summarize(docs), At: at}
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

func (a *App) remember(docs []output.Document) {
	a.docsMu.Lock()
	defer a.docsMu.Unlock()
	for _, doc := range docs {
		a.documents[doc.Path] = doc
	}
	a.lastAt = time.Now().UTC()
}

func (a *App) forget(path string) {
	a.docsMu.Lock()
	defer a.docsMu.Unlock()
	delete(a.documents, path)
}

func (a *App) snapshot() []output.Document {
	a.docsMu.RLock()
	defer a.docsMu.RUnlock()
	docs := make([]output.Document, 0, len(a.documents))
	for _, doc := range a.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs
}

// Close stops the watcher and closes the history store.
func (a *App) Close() error {
	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
		a.activeWatcher = nil
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
