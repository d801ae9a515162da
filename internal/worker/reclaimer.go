package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jonesrussell/graphweave/internal/logger"
	"github.com/jonesrussell/graphweave/internal/metrics"
)

// StaleReclaimer returns abandoned claims to the pool.
type StaleReclaimer interface {
	ReclaimStale(ctx context.Context, timeout time.Duration) (int, error)
}

// Reclaimer runs ReclaimStale on a cron schedule. The serve command uses
// it so that claims abandoned by crashed expand runs re-enter the pool
// even when no orchestrator loop is running.
type Reclaimer struct {
	queue    StaleReclaimer
	metrics  *metrics.Metrics
	log      logger.Interface
	cron     *cron.Cron
	schedule string
	timeout  time.Duration
}

// NewReclaimer creates a reclaimer with the given cron schedule
// (e.g. "@every 1m") and lease timeout.
func NewReclaimer(
	queue StaleReclaimer,
	m *metrics.Metrics,
	log logger.Interface,
	schedule string,
	timeout time.Duration,
) *Reclaimer {
	return &Reclaimer{
		queue:    queue,
		metrics:  m,
		log:      log,
		cron:     cron.New(),
		schedule: schedule,
		timeout:  timeout,
	}
}

// Start registers the reclaim job and starts the scheduler.
func (r *Reclaimer) Start(ctx context.Context) error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.runOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reclaim job: %w", err)
	}

	r.cron.Start()
	r.log.Info("stale claim reclaimer started",
		"schedule", r.schedule,
		"lease_timeout", r.timeout.String(),
	)
	return nil
}

// Stop stops the scheduler and waits for an in-flight reclaim to finish.
func (r *Reclaimer) Stop() {
	stopCtx := r.cron.Stop()
	<-stopCtx.Done()
	r.log.Info("stale claim reclaimer stopped")
}

func (r *Reclaimer) runOnce(ctx context.Context) {
	count, err := r.queue.ReclaimStale(ctx, r.timeout)
	if err != nil {
		r.log.Error("reclaim pass failed", "error", err.Error())
		return
	}
	if count > 0 {
		r.metrics.RecordReclaimed(count)
		r.log.Warn("reclaimed stale entries", "count", count)
	}
}
