package app

import (
	"context"
	"time"

	domainerrors "umlc/internal/core/errors"
	"umlc/internal/data/history"
	"umlc/internal/data/queue"
	"umlc/internal/output"
	"umlc/internal/shared/observability"

	"github.com/google/uuid"
)

// recordRun queues a history run for fr and returns its id, or "" when
// history is disabled or the queue is full.
func (a *App) recordRun(path, source string, fr FileResult) string {
	if a.historyQueue == nil {
		return ""
	}

	diagramJSON, err := output.Generate(string(output.FormatJSON), fr.Result.Diagram)
	if err != nil {
		a.logger.Warn("failed to serialize diagram for history", "path", path, "error", err)
		diagramJSON = ""
	}

	implicit := 0
	for _, e := range fr.Result.Diagram.Entities {
		if e.IsImplicit {
			implicit++
		}
	}

	run := history.Run{
		ID:                uuid.NewString(),
		Source:            path,
		SourceHash:        history.HashSource(source),
		Timestamp:         time.Now().UTC(),
		Duration:          fr.Duration,
		Valid:             fr.Result.Valid,
		EntityCount:       len(fr.Result.Diagram.Entities),
		ImplicitCount:     implicit,
		RelationshipCount: len(fr.Result.Diagram.Relationships),
		Diagnostics:       fr.Result.Diagnostics,
		DiagramJSON:       diagramJSON,
	}

	a.inflight.Add(1)
	switch a.historyQueue.Enqueue(run) {
	case queue.EnqueueAccepted:
		a.updateQueueMetrics()
		return run.ID
	default:
		a.inflight.Add(-1)
		observability.HistoryRunsDroppedTotal.Inc()
		a.logger.Warn("history queue full; run dropped", "path", path)
		return ""
	}
}

// TrendReport loads the recorded runs of source and summarizes them over a
// moving window.
func (a *App) TrendReport(ctx context.Context, source string, window time.Duration) (history.TrendReport, error) {
	if a.history == nil {
		return history.TrendReport{}, domainerrors.New(domainerrors.CodeNotSupported, "history is disabled")
	}
	if err := a.FlushHistory(ctx); err != nil {
		return history.TrendReport{}, err
	}
	runs, err := a.history.ListRuns(ctx, source, 0)
	if err != nil {
		return history.TrendReport{}, domainerrors.Wrap(err, domainerrors.CodeInternal, "list runs")
	}
	if len(runs) == 0 {
		return history.TrendReport{}, domainerrors.AddContext(
			domainerrors.New(domainerrors.CodeNotFound, "no recorded runs"),
			domainerrors.CtxPath, source)
	}
	return history.BuildTrendReport(source, runs, window)
}
