// Package serve implements the serve command: the monitoring HTTP API
// plus a scheduled reclaimer that returns abandoned claims to the pool.
package serve

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/graphweave/cmd/common"
	"github.com/jonesrussell/graphweave/internal/api"
	"github.com/jonesrussell/graphweave/internal/storage"
	"github.com/jonesrussell/graphweave/internal/worker"
)

const shutdownTimeout = 10 * time.Second

// Command returns the serve command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the monitoring HTTP server and stale-claim reclaimer",
		RunE:  run,
	}
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

	reclaimer := worker.NewReclaimer(
		deps.Entries,
		deps.Metrics,
		deps.Logger,
		cfg.Expansion.ReclaimSchedule,
		cfg.Expansion.LeaseTimeout,
	)
	if err := reclaimer.Start(ctx); err != nil {
		return err
	}
	defer reclaimer.Stop()

	esClient, err := storage.NewClient(cfg.Elasticsearch, deps.Logger)
	if err != nil {
		return fmt.Errorf("failed to connect to elasticsearch: %w", err)
	}
	nodes := storage.NewNodeIndexer(esClient, cfg.Elasticsearch.IndexName, deps.Logger)

	server := api.NewServer(deps.Logger, deps.Entries, deps.Links, nodes, deps.Metrics, cfg.Server)

	errChan := make(chan error, 1)
	go func() {
		deps.Logger.Info("monitoring server listening", "address", cfg.Server.Address)
		if serveErr := server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			errChan <- serveErr
		}
	}()

	select {
	case serveErr := <-errChan:
		return fmt.Errorf("server error: %w", serveErr)
	case <-ctx.Done():
	}

	deps.Logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	deps.Logger.Info("server stopped")
	return nil
}
