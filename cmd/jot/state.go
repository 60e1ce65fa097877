package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aretw0/introspection"
	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Dump the internal state of every component as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()

		components := app.Components()
		if app.Session.Current() != nil {
			ctrl, err := openNotes(ctx, app)
			if err != nil {
				return err
			}
			defer ctrl.Close()
			components = append(components, ctrl)
		}

		out := make(map[string]any, len(components))
		for i, c := range components {
			key := fmt.Sprintf("component-%d", i)
			if named, ok := c.(introspection.Component); ok {
				key = named.ComponentType()
			}
			out[key] = c.State()
		}

		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(out); err != nil {
			return fmt.Errorf("encoding JSON: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(stateCmd)
}
