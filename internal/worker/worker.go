// Package worker runs the expansion orchestrator: the loop that claims
// batches of discovered entries, hands them to the processor under a
// heartbeat lease, and decides when the run is finished.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jonesrussell/graphweave/internal/config"
	"github.com/jonesrussell/graphweave/internal/database"
	"github.com/jonesrussell/graphweave/internal/domain"
	"github.com/jonesrussell/graphweave/internal/logger"
	"github.com/jonesrussell/graphweave/internal/metrics"
)

// WorkQueue is the slice of the entry repository the orchestrator drives.
type WorkQueue interface {
	Claim(ctx context.Context, batchSize int) ([]*domain.Entry, error)
	Heartbeat(ctx context.Context, title string) error
	ReclaimStale(ctx context.Context, timeout time.Duration) (int, error)
	Stats(ctx context.Context) (*database.Stats, error)
}

// EntryProcessor runs the pipeline for one claimed entry.
type EntryProcessor interface {
	Process(ctx context.Context, entry *domain.Entry) error
}

// Orchestrator coordinates claiming, processing, and lease upkeep.
type Orchestrator struct {
	queue     WorkQueue
	processor EntryProcessor
	metrics   *metrics.Metrics
	log       logger.Interface
	cfg       config.ExpansionConfig
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(
	queue WorkQueue,
	processor EntryProcessor,
	m *metrics.Metrics,
	log logger.Interface,
	cfg config.ExpansionConfig,
) *Orchestrator {
	return &Orchestrator{
		queue:     queue,
		processor: processor,
		metrics:   m,
		log:       log,
		cfg:       cfg,
	}
}

// Run executes the expansion loop until the completion target is reached,
// the frontier is exhausted, the context is cancelled, or a fatal error
// surfaces. Per-entry business failures never stop the run; they are
// already absorbed into work queue transitions by the processor.
func (o *Orchestrator) Run(ctx context.Context) error {
	runID := uuid.New().String()
	o.log.Info("expansion run starting",
		"run_id", runID,
		"batch_size", o.cfg.BatchSize,
		"worker_count", o.cfg.WorkerCount,
		"max_depth", o.cfg.MaxDepth,
		"target_entries", o.cfg.TargetEntries,
	)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		reclaimed, err := o.queue.ReclaimStale(ctx, o.cfg.LeaseTimeout)
		if err != nil {
			return fmt.Errorf("failed to reclaim stale entries: %w", err)
		}
		if reclaimed > 0 {
			o.metrics.RecordReclaimed(reclaimed)
			o.log.Warn("reclaimed stale entries", "run_id", runID, "count", reclaimed)
		}

		batch, err := o.queue.Claim(ctx, o.cfg.BatchSize)
		if err != nil {
			return fmt.Errorf("failed to claim batch: %w", err)
		}

		if len(batch) == 0 {
			done, checkErr := o.frontierExhausted(ctx)
			if checkErr != nil {
				return checkErr
			}
			if done {
				o.log.Info("frontier exhausted, run complete", "run_id", runID)
				return nil
			}
			// Other workers hold claims; wait for them to finish or stall out.
			if waitErr := sleepCtx(ctx, o.cfg.ClaimRetryDelay); waitErr != nil {
				return waitErr
			}
			continue
		}

		o.metrics.RecordBatch()
		if err := o.processBatch(ctx, batch); err != nil {
			return err
		}

		reached, err := o.targetReached(ctx)
		if err != nil {
			return err
		}
		if reached {
			o.log.Info("target reached, run complete",
				"run_id", runID,
				"target_entries", o.cfg.TargetEntries,
			)
			return nil
		}
	}
}

// processBatch runs the batch through the processor with bounded
// concurrency, keeping each entry's lease alive while it is in flight.
func (o *Orchestrator) processBatch(ctx context.Context, batch []*domain.Entry) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.WorkerCount)

	for _, entry := range batch {
		g.Go(func() error {
			return o.processOne(gctx, entry)
		})
	}

	return g.Wait()
}

func (o *Orchestrator) processOne(ctx context.Context, entry *domain.Entry) error {
	hbCtx, stopHeartbeat := context.WithCancel(ctx)
	defer stopHeartbeat()
	go o.keepAlive(hbCtx, entry.Title)

	o.metrics.SetCurrentTitle(entry.Title)

	if err := o.processor.Process(ctx, entry); err != nil {
		return fmt.Errorf("entry %q: %w", entry.Title, err)
	}

	return nil
}

// keepAlive refreshes the entry's lease until the entry's pipeline
// finishes. Losing the lease to the reclaimer is not fatal here; the
// processor's final transition will surface the race. A transient
// heartbeat failure (a blip on the store connection) must not stop
// renewal, or a long-running entry would lose its lease to one dropped
// round trip.
func (o *Orchestrator) keepAlive(ctx context.Context, title string) {
	ticker := time.NewTicker(o.cfg.HeartbeatEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := o.queue.Heartbeat(ctx, title)
			switch {
			case err == nil:
			case errors.Is(err, database.ErrNotClaimed):
				o.log.Warn("lease lost during processing", "title", title)
				return
			case errors.Is(err, context.Canceled):
				return
			default:
				o.log.Error("heartbeat failed, will retry", "title", title, "error", err.Error())
			}
		}
	}
}

// frontierExhausted reports whether no work remains anywhere: nothing
// claimable and nothing currently claimed by any worker.
func (o *Orchestrator) frontierExhausted(ctx context.Context) (bool, error) {
	stats, err := o.queue.Stats(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return stats.Discovered == 0 && stats.Claimed == 0, nil
}

// targetReached reports whether enough entries have completed. A zero
// target means run until the frontier is exhausted.
func (o *Orchestrator) targetReached(ctx context.Context) (bool, error) {
	if o.cfg.TargetEntries <= 0 {
		return false, nil
	}
	stats, err := o.queue.Stats(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read queue stats: %w", err)
	}
	return stats.Completed() >= o.cfg.TargetEntries, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
