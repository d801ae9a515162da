// Package seed implements the seed command, which plants depth-0 entries
// for a subsequent expansion run.
package seed

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/graphweave/cmd/common"
	"github.com/jonesrussell/graphweave/internal/linkfilter"
)

// Command returns the seed command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "seed [title]...",
		Short: "Add seed articles at depth 0",
		Long: `Adds one or more article titles as depth-0 entries in the discovered
state. Seeding an already-known title is a no-op, so seed lists can be
re-applied safely.`,
		Args: cobra.MinimumNArgs(1),
		RunE: run,
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	deps, err := common.BuildDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	var created int
	for _, title := range args {
		if !linkfilter.IsContent(title) {
			return fmt.Errorf("%q is not a seedable article title", title)
		}

		isNew, createErr := deps.Entries.CreateIfAbsent(ctx, title, 0)
		if createErr != nil {
			return fmt.Errorf("failed to seed %q: %w", title, createErr)
		}
		if isNew {
			created++
			deps.Logger.Info("seeded entry", "title", title)
		} else {
			deps.Logger.Info("entry already known, skipping", "title", title)
		}
	}

	deps.Logger.Info("seeding complete", "created", created, "requested", len(args))
	return nil
}
