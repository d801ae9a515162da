// Package expand implements the expand command, which runs the expansion
// orchestrator until the target is reached or the frontier is exhausted.
package expand

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/graphweave/cmd/common"
	"github.com/jonesrussell/graphweave/internal/embedding"
	"github.com/jonesrussell/graphweave/internal/expander"
	"github.com/jonesrussell/graphweave/internal/extractor"
	"github.com/jonesrussell/graphweave/internal/processor"
	"github.com/jonesrussell/graphweave/internal/storage"
	"github.com/jonesrussell/graphweave/internal/wiki"
	"github.com/jonesrussell/graphweave/internal/worker"
)

// Command returns the expand command.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expand",
		Short: "Run the expansion engine",
		Long: `Claims discovered entries in batches and runs each through the full
pipeline: fetch article content, extract knowledge, embed section text,
persist the node, and enqueue its outbound links. Stops when the
configured target is reached or no claimable work remains. Interrupting
the run is safe; abandoned claims are reclaimed on the next run.`,
		RunE: run,
	}

	cmd.Flags().Int("target", 0, "override expansion.target_entries (0 = run until exhausted)")
	cmd.Flags().Int("max-depth", -1, "override expansion.max_depth")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := common.BuildDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	cfg := deps.Config
	if target, _ := cmd.Flags().GetInt("target"); cmd.Flags().Changed("target") {
		cfg.Expansion.TargetEntries = target
	}
	if maxDepth, _ := cmd.Flags().GetInt("max-depth"); cmd.Flags().Changed("max-depth") {
		cfg.Expansion.MaxDepth = maxDepth
	}

	esClient, err := storage.NewClient(cfg.Elasticsearch, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}

	frontier := expander.New(deps.Entries, deps.Links, deps.Logger)

	proc := processor.New(
		wiki.NewClient(cfg.Wiki, deps.Logger),
		extractor.New(cfg.OpenAI, deps.Logger),
		embedding.New(cfg.OpenAI, deps.Logger),
		storage.NewNodeIndexer(esClient, cfg.Elasticsearch.IndexName, deps.Logger),
		deps.Entries,
		frontier,
		deps.Metrics,
		deps.Logger,
		processor.Config{
			MaxDepth:   cfg.Expansion.MaxDepth,
			MaxRetries: cfg.Expansion.MaxRetries,
		},
	)

	orchestrator := worker.NewOrchestrator(
		deps.Entries, proc, deps.Metrics, deps.Logger, cfg.Expansion,
	)

	if err := orchestrator.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			deps.Logger.Info("expansion interrupted, claims will be reclaimed by the next run")
			return nil
		}
		return fmt.Errorf("expansion run failed: %w", err)
	}

	snap := deps.Metrics.Snapshot()
	deps.Logger.Info("expansion finished",
		"processed", snap.ProcessedCount,
		"failed", snap.FailedCount,
		"links_discovered", snap.LinksDiscovered,
		"uptime", snap.Uptime,
	)
	return nil
}
