package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	jotlifecycle "github.com/aretw0/jot/pkg/adapters/lifecycle"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print sign-ins and sign-outs as they happen",
	Long: `Watch follows the shared session file, so sign-ins and sign-outs made
by other jot processes on this data directory are reported. Stop with Ctrl+C.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		if err := app.Watch(ctx); err != nil {
			return fmt.Errorf("watching session: %w", err)
		}

		src := jotlifecycle.NewSource(app.Session.Events(ctx, 16))
		if err := src.Start(ctx); err != nil {
			return fmt.Errorf("starting event source: %w", err)
		}

		fmt.Printf("Watching %s (Ctrl+C to stop)\n", app.DataDir)
		if s := app.Session.Current(); s != nil {
			fmt.Printf("Currently signed in as %s\n", s.Email)
		}
		for e := range src.Events() {
			fmt.Printf("[%s] %s\n", time.Now().Format(time.TimeOnly), e)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
