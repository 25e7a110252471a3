package app

import (
	"context"
	"errors"
	"io"
	"time"

	"umlc/internal/data/history"
	"umlc/internal/data/queue"
	"umlc/internal/shared/observability"
)

const (
	historyQueueCapacity = 256
	historyBatchSize     = 32
	historyFlushInterval = 100 * time.Millisecond
)

func (a *App) startHistoryWorker() {
	if a == nil || a.history == nil || a.workerCancel != nil {
		return
	}
	a.historyQueue = queue.NewMemoryQueue[history.Run](historyQueueCapacity)
	ctx, cancel := context.WithCancel(context.Background())
	a.workerCancel = cancel
	a.workerDone = make(chan struct{})
	go a.runHistoryWorker(ctx)
}

func (a *App) runHistoryWorker(ctx context.Context) {
	defer close(a.workerDone)

	for {
		batch, err := a.historyQueue.DequeueBatch(ctx, historyBatchSize, historyFlushInterval)
		if errors.Is(err, context.Canceled) {
			return
		}
		if err != nil && !errors.Is(err, io.EOF) {
			a.logger.Warn("history queue dequeue failed", "error", err)
			continue
		}

		if len(batch) > 0 {
			a.saveBatch(context.Background(), batch)
		}
		a.updateQueueMetrics()
		if errors.Is(err, io.EOF) {
			return
		}
	}
}

func (a *App) saveBatch(ctx context.Context, batch []history.Run) {
	defer a.inflight.Add(-int64(len(batch)))

	started := time.Now()
	saved := 0
	for _, run := range batch {
		if _, err := a.history.SaveRun(ctx, run); err != nil {
			observability.HistoryRunsDroppedTotal.Inc()
			a.logger.Warn("failed to save history run", "path", run.Source, "error", err)
			continue
		}
		saved++
	}
	observability.HistoryRunsSavedTotal.Add(float64(saved))

	if keep := a.config().History.Retention; keep > 0 && saved > 0 {
		if n, err := a.history.Prune(ctx, keep); err != nil {
			a.logger.Warn("failed to prune history", "error", err)
		} else if n > 0 {
			a.logger.Debug("pruned history runs", "count", n)
		}
	}
	a.logger.Debug("history batch saved", "count", saved, "duration", time.Since(started))
}

// FlushHistory blocks until every queued run has been written or ctx ends.
func (a *App) FlushHistory(ctx context.Context) error {
	if a.historyQueue == nil {
		return nil
	}
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for a.inflight.Load() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// stopHistoryWorker closes the queue and waits for the worker to drain it.
func (a *App) stopHistoryWorker(ctx context.Context) error {
	if a == nil || a.historyQueue == nil {
		return nil
	}
	if err := a.historyQueue.Close(); err != nil {
		return err
	}
	if a.workerDone != nil {
		select {
		case <-a.workerDone:
		case <-ctx.Done():
			a.workerCancel()
			return ctx.Err()
		}
	}
	a.workerCancel()
	a.workerCancel = nil
	a.workerDone = nil
	a.historyQueue = nil
	return nil
}

func (a *App) updateQueueMetrics() {
	if mq, ok := a.historyQueue.(*queue.MemoryQueue[history.Run]); ok {
		observability.HistoryQueueDepth.Set(float64(mq.Len()))
	}
}
