// Package app compiles diagram sources found under the configured input
// paths, writes rendered outputs, records history and drives watch mode.
package app

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"umlc/internal/core/config"
	domainerrors "umlc/internal/core/errors"
	"umlc/internal/core/ports"
	"umlc/internal/core/watcher"
	"umlc/internal/data/history"
	"umlc/internal/engine/compiler"
	"umlc/internal/shared/util"
)

// FileResult is the latest compilation of one source file.
type FileResult struct {
	Path     string          `json:"path"`
	Result   compiler.Result `json:"result"`
	Outputs  []string        `json:"outputs"`
	Duration time.Duration   `json:"duration"`
	RunID    string          `json:"run_id,omitempty"`
}

// Update summarizes the current state of every known source.
type Update struct {
	Files             []FileResult `json:"files"`
	FileCount         int          `json:"file_count"`
	InvalidCount      int          `json:"invalid_count"`
	DiagnosticCount   int          `json:"diagnostic_count"`
	EntityCount       int          `json:"entity_count"`
	RelationshipCount int          `json:"relationship_count"`
	Timestamp         time.Time    `json:"timestamp"`
}

// Err reports a PARSE_ERROR when any source carries diagnostics.
func (u Update) Err() error {
	if u.InvalidCount == 0 {
		return nil
	}
	err := domainerrors.Newf(domainerrors.CodeParse, "%d of %d sources have diagnostics", u.InvalidCount, u.FileCount)
	return domainerrors.AddContext(err, domainerrors.CtxDiagnostics, u.DiagnosticCount)
}

var _ ports.HistoryStore = (*history.Store)(nil)

type App struct {
	Config *config.Config
	engine *compiler.Engine
	logger *slog.Logger

	history      ports.HistoryStore
	historyQueue ports.RunQueue
	workerCancel context.CancelFunc
	workerDone   chan struct{}
	// inflight counts runs queued but not yet written.
	inflight atomic.Int64

	limiter       *util.Limiter
	activeWatcher *watcher.Watcher

	resultsMu sync.RWMutex
	results   map[string]FileResult

	updateMu sync.RWMutex
	onUpdate func(Update)
}

// New builds the service. When history is enabled the store is opened and
// the background writer started; Close releases both.
func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	a := newApp(cfg)

	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.Path, cfg.History.BusyTimeout)
		if err != nil {
			return nil, domainerrors.AddContext(
				domainerrors.Wrap(err, domainerrors.CodeInternal, "open history store"),
				domainerrors.CtxPath, cfg.History.Path)
		}
		a.history = store
		a.startHistoryWorker()
	}
	return a, nil
}

// NewWithHistory uses an already opened store; the app takes ownership.
func NewWithHistory(cfg *config.Config, store ports.HistoryStore) *App {
	a := newApp(cfg)
	a.history = store
	if store != nil {
		a.startHistoryWorker()
	}
	return a
}

func newApp(cfg *config.Config) *App {
	return &App{
		Config:  cfg,
		engine:  compiler.NewEngine(slog.Default()),
		logger:  slog.Default(),
		limiter: util.NewLimiter(cfg.Watch.MaxRebuildsPerSecond, cfg.Watch.Burst),
		results: make(map[string]FileResult),
	}
}

// History returns the store, or nil when history is disabled.
func (a *App) History() ports.HistoryStore {
	return a.history
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// CurrentUpdate snapshots all known results, sorted by path.
func (a *App) CurrentUpdate() Update {
	a.resultsMu.RLock()
	files := make([]FileResult, 0, len(a.results))
	for _, r := range a.results {
		files = append(files, r)
	}
	a.resultsMu.RUnlock()

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	update := Update{Files: files, FileCount: len(files), Timestamp: time.Now().UTC()}
	for _, f := range files {
		if !f.Result.Valid {
			update.InvalidCount++
		}
		update.DiagnosticCount += len(f.Result.Diagnostics)
		update.EntityCount += len(f.Result.Diagram.Entities)
		update.RelationshipCount += len(f.Result.Diagram.Relationships)
	}
	return update
}

func (a *App) emitUpdate() {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(a.CurrentUpdate())
	}
}

// ApplyConfig swaps in a reloaded configuration. Watch paths and history
// settings take effect on the next start; formats, output dir, excludes and
// rebuild rate apply immediately.
func (a *App) ApplyConfig(cfg *config.Config) {
	if cfg == nil {
		return
	}
	a.resultsMu.Lock()
	a.Config = cfg
	a.limiter = util.NewLimiter(cfg.Watch.MaxRebuildsPerSecond, cfg.Watch.Burst)
	a.resultsMu.Unlock()
	if a.activeWatcher != nil {
		a.activeWatcher.SetDebounce(cfg.Watch.Debounce)
		a.activeWatcher.SetExtensions(cfg.Inputs.Extensions)
	}
	a.logger.Info("configuration reloaded", "formats", cfg.Output.Formats, "output_dir", cfg.Output.Dir)
}

func (a *App) config() *config.Config {
	a.resultsMu.RLock()
	defer a.resultsMu.RUnlock()
	return a.Config
}

// Close stops the watcher, drains pending history writes and closes the store.
func (a *App) Close(ctx context.Context) error {
	if a == nil {
		return nil
	}
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			a.logger.Warn("failed to close watcher", "error", err)
		}
		a.activeWatcher = nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
	}
	if err := a.stopHistoryWorker(ctx); err != nil {
		return err
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			return err
		}
		a.history = nil
	}
	return nil
}
