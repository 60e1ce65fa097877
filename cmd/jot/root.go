package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	verbose   bool
	dataDir   string
	adapter   string
	project   string
	unsafeDev bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jot",
	Short: "Personal notes from the terminal",
	Long: `jot keeps short personal notes for a signed-in user.
Notes live in a local SQLite database by default, or in Postgres for a shared store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Directory for the database, session and secret (default .jot)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "", "Storage adapter: sqlite, postgres or memory")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "Project identifier scoping every record")
	rootCmd.PersistentFlags().BoolVar(&unsafeDev, "unsafe", false, "Use the real data directory even under `go run`")
}
