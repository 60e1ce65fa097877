package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/jot/pkg/adapters/markdown"
)

var importPattern string

var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Write every note as a Markdown file with frontmatter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()
		ctrl, err := openNotes(ctx, app)
		if err != nil {
			return err
		}
		defer ctrl.Close()

		n, err := markdown.Export(args[0], ctrl.Snapshot().Notes)
		if err != nil {
			return fmt.Errorf("exporting notes: %w", err)
		}
		fmt.Printf("Exported %d notes to %s\n", n, args[0])
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [dir]",
	Short: "Create notes from Markdown files",
	Long: `Import reads every file matching --pattern below dir. Frontmatter ids are
ignored, so importing an export twice creates duplicates.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()
		ctrl, err := openNotes(ctx, app)
		if err != nil {
			return err
		}
		defer ctrl.Close()

		docs, err := markdown.Import(args[0], importPattern)
		if err != nil {
			return fmt.Errorf("reading notes: %w", err)
		}
		n, err := ctrl.Import(ctx, markdown.Drafts(docs))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Imported %d of %d notes\n", n, len(docs))
		}
		return report(ctrl, err)
	},
}

func init() {
	importCmd.Flags().StringVar(&importPattern, "pattern", markdown.DefaultPattern, "Glob of the files to import")
	rootCmd.AddCommand(exportCmd, importCmd)
}
