// Package ports declares the seams between the app service and its adapters.
package ports

import (
	"context"
	"time"

	"umlc/internal/data/history"
	"umlc/internal/data/queue"
)

// HistoryStore persists compile runs for trend reporting.
type HistoryStore interface {
	SaveRun(ctx context.Context, run history.Run) (history.Run, error)
	ListRuns(ctx context.Context, source string, limit int) ([]history.Run, error)
	LatestRun(ctx context.Context, source string) (history.Run, bool, error)
	Prune(ctx context.Context, keep int) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// RunQueue hands compile runs to the background history writer.
type RunQueue interface {
	Enqueue(run history.Run) queue.EnqueueResult
	DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]history.Run, error)
	Close() error
}
