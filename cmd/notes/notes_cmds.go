package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jrsteele09/go-notes-client/app"
	"github.com/jrsteele09/go-notes-client/editor"
	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/spf13/cobra"
)

var (
	listJSON    bool
	listSearch  string
	noteTitle   string
	noteContent string
	assumeYes   bool
)

var notesCmd = &cobra.Command{
	Use:   "notes",
	Short: "List and edit your organisation's notes",
}

var notesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List notes, most recently updated first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(cmd.Context(), func(c *client) error {
			list := c.machine.Search(listSearch)
			if listJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(list)
			}
			printNotes(cmd.OutOrStdout(), list, time.Now())
			if remaining, limited := c.machine.RemainingNotes(); limited {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%d of %d free notes left\n", remaining, cfg.GetFreeNoteLimit())
			}
			return nil
		})
	},
}

var notesShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withNotes(cmd.Context(), func(c *client) error {
			note, err := c.machine.FindNote(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s\n%s\n\n%s\n\n", note.Title, editor.RelativeLabel(note.UpdatedAt, time.Now()), note.Content)
			fmt.Fprintf(out, "%d words, %d characters\n", notes.WordCount(note.Content), notes.CharCount(note.Content))
			return nil
		})
	},
}

var notesNewCmd = &cobra.Command{
	Use:   "new",
	Short: "Create a note",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withNotes(ctx, func(c *client) error {
			note, err := c.machine.CreateNote(ctx)
			if errors.Is(err, apperrors.ErrQuotaExceeded) {
				return fmt.Errorf("the free plan allows %d notes; an admin can run \"notes plan upgrade\"", cfg.GetFreeNoteLimit())
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", note.ID)
			title, content := changedFields(cmd)
			if title == nil && content == nil {
				return nil
			}
			outcome, err := editNote(ctx, c, title, content)
			if err != nil {
				return err
			}
			reportEdit(cmd.OutOrStdout(), note.ID, outcome)
			return nil
		})
	},
}

var notesEditCmd = &cobra.Command{
	Use:   "edit [id]",
	Short: "Change a note's title or content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withNotes(ctx, func(c *client) error {
			note, err := c.machine.FindNote(args[0])
			if err != nil {
				return err
			}
			title, content := changedFields(cmd)
			if title == nil && content == nil {
				return errors.New("nothing to change, pass --title or --content")
			}
			c.machine.SelectNote(note)

			outcome, err := editNote(ctx, c, title, content)
			if err != nil {
				return err
			}
			reportEdit(cmd.OutOrStdout(), note.ID, outcome)
			return nil
		})
	},
}

var notesDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a note",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		return withNotes(ctx, func(c *client) error {
			note, err := c.machine.FindNote(args[0])
			if err != nil {
				return err
			}
			c.machine.SelectNote(note)

			var confirmer editor.Confirmer = newPromptConfirmer(cmd.InOrStdin(), cmd.OutOrStdout())
			if assumeYes {
				confirmer = editor.ConfirmFunc(func(context.Context, string) bool { return true })
			}
			session, err := c.machine.OpenEditor(editor.WithConfirmer(confirmer), editor.WithContext(ctx))
			if err != nil {
				return err
			}
			deleted, err := session.Delete(ctx)
			if err != nil {
				return err
			}
			if !deleted {
				session.Discard()
				fmt.Fprintln(cmd.OutOrStdout(), "Kept")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", note.ID)
			return nil
		})
	},
}

// withNotes is withSession with the note collection loaded.
func withNotes(ctx context.Context, run func(*client) error) error {
	return withSession(ctx, func(c *client) error {
		if err := c.machine.LoadNotes(ctx); err != nil {
			return errors.New(app.LoadNotesFailedMsg)
		}
		return run(c)
	})
}

type editOutcome int

const (
	editUnchanged editOutcome = iota
	editSaved
	editSkippedBlank
)

// changedFields returns the --title and --content values the user passed,
// nil for flags left unset.
func changedFields(cmd *cobra.Command) (title, content *string) {
	if cmd.Flags().Changed("title") {
		title = &noteTitle
	}
	if cmd.Flags().Changed("content") {
		content = &noteContent
	}
	return title, content
}

// editNote applies the given fields to the selected note through an editor
// session and flushes the save on close.
func editNote(ctx context.Context, c *client, title, content *string) (editOutcome, error) {
	session, err := c.machine.OpenEditor(
		editor.WithContext(ctx),
		editor.WithDelay(cfg.GetAutoSaveDelay()),
		editor.WithLogger(logger),
	)
	if err != nil {
		return editUnchanged, err
	}
	return applyEdits(ctx, session, title, content)
}

func applyEdits(ctx context.Context, session *editor.Session, title, content *string) (editOutcome, error) {
	if title != nil {
		session.SetTitle(*title)
	}
	if content != nil {
		session.SetContent(*content)
	}
	if !session.Draft().Dirty {
		session.Discard()
		return editUnchanged, nil
	}
	if err := session.Close(ctx); err != nil {
		return editUnchanged, err
	}
	// Close skips a note with neither title nor content and leaves it dirty.
	if session.Draft().Dirty {
		return editSkippedBlank, nil
	}
	logger.Debug().Int("words", session.WordCount()).Str("status", session.Status()).Msg("note saved")
	return editSaved, nil
}

func reportEdit(out io.Writer, id string, outcome editOutcome) {
	switch outcome {
	case editSaved:
		fmt.Fprintf(out, "Saved %s\n", id)
	case editSkippedBlank:
		fmt.Fprintf(out, "Not saved %s: a note needs a title or some content\n", id)
	default:
		fmt.Fprintf(out, "No changes to %s\n", id)
	}
}

func printNotes(out io.Writer, list []notes.Note, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(out, "No notes yet. Create one with \"notes notes new\".")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tUPDATED\tSNIPPET")
	for _, n := range list {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", shortID(n.ID), n.Title, editor.RelativeLabel(n.UpdatedAt, now), n.Snippet)
	}
	w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	rootCmd.AddCommand(notesCmd)
	notesCmd.AddCommand(notesListCmd, notesShowCmd, notesNewCmd, notesEditCmd, notesDeleteCmd)

	notesListCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	notesListCmd.Flags().StringVarP(&listSearch, "search", "s", "", "Only list notes containing this text")
	for _, c := range []*cobra.Command{notesNewCmd, notesEditCmd} {
		c.Flags().StringVarP(&noteTitle, "title", "t", "", "Note title")
		c.Flags().StringVarP(&noteContent, "content", "c", "", "Note content")
	}
	notesDeleteCmd.Flags().BoolVarP(&assumeYes, "yes", "y", false, "Delete without asking")
}
