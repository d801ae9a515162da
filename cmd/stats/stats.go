// Package stats implements the stats command, which prints the state and
// depth distribution of the entry store.
package stats

import (
	"fmt"
	"os"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/graphweave/cmd/common"
)

// Command returns the stats command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show entry state and depth distribution",
		RunE:  run,
	}
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	deps, err := common.BuildDeps(ctx)
	if err != nil {
		return err
	}
	defer deps.Close()

	stats, err := deps.Entries.Stats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read entry stats: %w", err)
	}

	edgeCount, err := deps.Links.Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count edges: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Entries by state")
	t.AppendHeader(table.Row{"State", "Count"})
	t.AppendRow(table.Row{"discovered", stats.Discovered})
	t.AppendRow(table.Row{"claimed", stats.Claimed})
	t.AppendRow(table.Row{"loaded", stats.Loaded})
	t.AppendRow(table.Row{"processed", stats.Processed})
	t.AppendRow(table.Row{"failed", stats.Failed})
	t.AppendFooter(table.Row{"total", stats.Total()})
	t.Render()

	if len(stats.ByDepth) > 0 {
		depths := make([]int, 0, len(stats.ByDepth))
		for depth := range stats.ByDepth {
			depths = append(depths, depth)
		}
		sort.Ints(depths)

		d := table.NewWriter()
		d.SetOutputMirror(os.Stdout)
		d.SetStyle(table.StyleLight)
		d.SetTitle("Entries by depth")
		d.AppendHeader(table.Row{"Depth", "Count"})
		for _, depth := range depths {
			d.AppendRow(table.Row{depth, stats.ByDepth[depth]})
		}
		d.Render()
	}

	fmt.Fprintf(os.Stdout, "edges: %d\n", edgeCount)
	return nil
}
