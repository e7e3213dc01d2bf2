package scheduler

import (
	"context"
	"log"
	"time"

	"goscout/app"
)

// Scheduler triggers full pipeline runs on a fixed interval. It runs one
// pass immediately on Start, then ticks until the context is cancelled.
type Scheduler struct {
	orchestrator *app.Orchestrator
	interval     time.Duration
	queries      []string
	lookback     time.Duration
}

// New creates a scheduler. Lookback bounds each run's discovery window so
// periodic runs only pull recent material.
func New(orchestrator *app.Orchestrator, interval time.Duration, queries []string, lookback time.Duration) *Scheduler {
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		queries:      queries,
		lookback:     lookback,
	}
}

// Start blocks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	log.Printf("[Scheduler] starting, interval=%s queries=%d", s.interval, len(s.queries))
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[Scheduler] stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	req := app.RunRequest{Queries: s.queries}
	if s.lookback > 0 {
		from := time.Now().UTC().Add(-s.lookback)
		req.MinDate = &from
	}
	summary, err := s.orchestrator.RunPipeline(ctx, req)
	if err != nil {
		log.Printf("[Scheduler] scheduled run failed: %v", err)
		return
	}
	log.Printf("[Scheduler] scheduled run %s done: items=%d plans=%d", summary.RunID, summary.ItemCount, summary.PlanCount)
}
