// Package worker runs background maintenance loops alongside the server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CountStore defines the store operations needed by the stats worker.
type CountStore interface {
	Count(ctx context.Context) (int64, error)
}

// StatsWorker periodically publishes the number of stored calculations.
type StatsWorker struct {
	store    CountStore
	gauge    prometheus.Gauge
	interval time.Duration
}

// NewStatsWorker creates a worker that writes the record count into gauge
// every interval.
func NewStatsWorker(store CountStore, gauge prometheus.Gauge, interval time.Duration) *StatsWorker {
	return &StatsWorker{
		store:    store,
		gauge:    gauge,
		interval: interval,
	}
}

// Run starts the worker loop. Counts immediately on start, then on each
// interval. Returns when ctx is cancelled.
func (w *StatsWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "stats",
		"interval", w.interval.String(),
	)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.refresh(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "stats",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.refresh(ctx)
		}
	}
}

// refresh updates the gauge. On failure the previous value is kept.
func (w *StatsWorker) refresh(ctx context.Context) {
	n, err := w.store.Count(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("record count failed",
			"component", "worker",
			"action", "stats_failed",
			"error", err,
		)
		return
	}

	w.gauge.Set(float64(n))
	slog.Debug("record count updated",
		"component", "worker",
		"action", "stats_refresh",
		"records", n,
	)
}
