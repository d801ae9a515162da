// Package cmd implements the command-line interface for graphweave.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	cmdexpand "github.com/jonesrussell/graphweave/cmd/expand"
	cmdseed "github.com/jonesrussell/graphweave/cmd/seed"
	cmdserve "github.com/jonesrussell/graphweave/cmd/serve"
	cmdstats "github.com/jonesrussell/graphweave/cmd/stats"
	"github.com/jonesrussell/graphweave/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   "graphweave",
		Short: "A depth-bounded knowledge graph expansion engine",
		Long: `graphweave crawls a wiki-style content source breadth-first from seed
articles, extracts structured knowledge with an LLM, and persists the
resulting graph. Coordination between concurrent workers happens entirely
through a claim/lease state machine in Postgres.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	// Load .env early so environment variables are visible to viper.
	_ = godotenv.Load()

	if err := config.InitViper(cfgFile); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yaml or ./config/config.yaml)",
	)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(os.Stdout, "graphweave version %s\n", "1.0.0")
		},
	})

	rootCmd.AddCommand(cmdseed.Command())
	rootCmd.AddCommand(cmdexpand.Command())
	rootCmd.AddCommand(cmdstats.Command())
	rootCmd.AddCommand(cmdserve.Command())
}
