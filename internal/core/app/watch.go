package app

import (
	"context"
	"os"
	"time"

	"umlc/internal/core/watcher"
	"umlc/internal/shared/observability"
	"umlc/internal/shared/util"
)

// StartWatcher recompiles sources as they change. The output directory is
// ignored so rendered files never trigger rebuilds.
func (a *App) StartWatcher() error {
	cfg := a.config()
	w, err := watcher.NewWatcher(
		cfg.Watch.Debounce,
		cfg.Exclude.Dirs,
		cfg.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	w.SetExtensions(cfg.Inputs.Extensions)
	w.IgnorePaths(cfg.Output.Dir)
	a.activeWatcher = w
	return w.Watch(uniqueScanRoots(cfg.Inputs.Paths))
}

// HandleChanges recompiles changed sources and forgets removed ones. Batches
// are spaced by the rebuild limiter.
func (a *App) HandleChanges(paths []string) {
	if delay := a.rebuildLimiter().Delay(); delay > 0 {
		observability.RebuildsThrottledTotal.Inc()
		a.logger.Debug("rebuild throttled", "delay", delay, "count", len(paths))
		time.Sleep(delay)
	}

	ctx, span := observability.Tracer.Start(context.Background(), "app.HandleChanges")
	defer span.End()

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			a.RemoveFile(path)
			continue
		}
		fr, err := a.ProcessFile(ctx, path)
		if err != nil {
			a.logger.Warn("failed to rebuild", "path", path, "error", err)
			continue
		}
		a.logger.Info("rebuilt", "path", path, "valid", fr.Result.Valid,
			"diagnostics", len(fr.Result.Diagnostics), "outputs", len(fr.Outputs))
	}
	a.emitUpdate()
}

func (a *App) rebuildLimiter() *util.Limiter {
	a.resultsMu.RLock()
	defer a.resultsMu.RUnlock()
	return a.limiter
}
