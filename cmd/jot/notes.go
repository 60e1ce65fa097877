package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/aretw0/jot/pkg/notes"
)

var (
	listJSON      bool
	listSearch    string
	listFavorites bool
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, favorites first",
	Args:  cobra.NoArgs,
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

		ctrl.Search(listSearch)
		if listFavorites {
			_ = ctrl.SetFilter(notes.FilterFavorites)
		}
		view := ctrl.Snapshot().View

		if listJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			if err := encoder.Encode(view.Displayed); err != nil {
				return fmt.Errorf("encoding JSON: %w", err)
			}
			return nil
		}

		if len(view.Displayed) == 0 {
			if listSearch != "" || listFavorites {
				fmt.Println("No matching notes")
			} else {
				fmt.Println("No notes yet, add one with `jot add`")
			}
			return nil
		}
		for _, n := range view.Displayed {
			star := " "
			if n.Favorite {
				star = "*"
			}
			fmt.Printf("%s %s  %-14s %s\n", star, shortID(n.ID), humanize.Time(n.CreatedAt), n.Text)
		}
		fmt.Printf("\n%d notes, %d favorites, %s characters\n",
			len(view.Filtered), view.TotalFavorites, humanize.Comma(int64(view.TotalChars)))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add [text...]",
	Short: "Add a note (reads stdin without arguments)",
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args, " ")
		if len(args) == 0 {
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("reading stdin: %w", err)
			}
			text = strings.TrimRight(string(data), "\r\n")
		}
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("note text cannot be empty")
		}

		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()
		ctrl, err := openNotes(ctx, app)
		if err != nil {
			return err
		}
		defer ctrl.Close()

		ctrl.OpenForm()
		ctrl.SetDraft(text)
		return report(ctrl, ctrl.SaveDraft(ctx))
	},
}

var editCmd = &cobra.Command{
	Use:   "edit [id] [text...]",
	Short: "Replace the text of a note",
	Args:  cobra.MinimumNArgs(2),
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

		note, err := findNote(ctrl.Snapshot().Notes, args[0])
		if err != nil {
			return err
		}
		ctrl.StartEdit(note)
		ctrl.SetDraft(strings.Join(args[1:], " "))
		return report(ctrl, ctrl.SaveDraft(ctx))
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext()
		defer cancel()
		app := openApp(ctx)
		defer app.Close()
		ctrl, err := openNotes(ctx, app, notes.WithContext(ctx))
		if err != nil {
			return err
		}
		defer ctrl.Close()

		note, err := findNote(ctrl.Snapshot().Notes, args[0])
		if err != nil {
			return err
		}
		ctrl.Remove(note.ID)
		ctrl.Wait()

		if t := ctrl.Snapshot().Toast; t != nil && t.IsError {
			show(ctrl)
			return errReported
		}
		fmt.Printf("Note deleted: %s\n", shortID(note.ID))
		return nil
	},
}

var favCmd = &cobra.Command{
	Use:   "fav [id]",
	Short: "Toggle the favorite flag of a note",
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

		note, err := findNote(ctrl.Snapshot().Notes, args[0])
		if err != nil {
			return err
		}
		if err := ctrl.ToggleFavorite(ctx, note); err != nil {
			return report(ctrl, err)
		}
		if note.Favorite {
			fmt.Println("Removed from favorites")
		} else {
			fmt.Println("Added to favorites")
		}
		return nil
	},
}

var copyCmd = &cobra.Command{
	Use:   "copy [id]",
	Short: "Copy the text of a note to the clipboard",
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

		note, err := findNote(ctrl.Snapshot().Notes, args[0])
		if err != nil {
			return err
		}
		return report(ctrl, ctrl.Copy(note.Text))
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every note",
	Args:  cobra.NoArgs,
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

		total := len(ctrl.Snapshot().Notes)
		if total == 0 {
			fmt.Println("No notes to delete")
			return nil
		}
		ctrl.RequestClearAll()
		if !assumeYes && !confirm(fmt.Sprintf("Delete all %d notes?", total)) {
			ctrl.CancelClearAll()
			return nil
		}
		deleted, err := ctrl.ClearAll(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Deleted %d of %d notes\n", deleted, total)
			return fmt.Errorf("clearing notes: %w", err)
		}
		fmt.Printf("Deleted %d notes\n", deleted)
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Show notes containing this text")
	listCmd.Flags().BoolVarP(&listFavorites, "favorites", "f", false, "Show favorites only")
	clearCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(listCmd, addCmd, editCmd, rmCmd, favCmd, copyCmd, clearCmd)
}
