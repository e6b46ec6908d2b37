package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-notes-client/editor"
	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/stretchr/testify/require"
)

type editFixture struct {
	saves   []notes.Note
	session *editor.Session
}

func setupEditFixture(t *testing.T, title, content string) *editFixture {
	t.Helper()
	f := &editFixture{}
	callbacks := editor.Callbacks{
		Save: func(_ context.Context, n notes.Note) (*notes.Note, error) {
			f.saves = append(f.saves, n)
			return &n, nil
		},
		Delete: func(context.Context, string) error { return nil },
	}
	session, err := editor.New(notes.New("n1", title, content, time.Now()), callbacks, editor.WithDelay(time.Hour))
	require.NoError(t, err)
	f.session = session
	return f
}

func strPtr(s string) *string {
	return &s
}

func TestApplyEdits(t *testing.T) {
	ctx := context.Background()

	t.Run("no fields sends nothing", func(t *testing.T) {
		f := setupEditFixture(t, "Groceries", "milk")
		outcome, err := applyEdits(ctx, f.session, nil, nil)
		require.NoError(t, err)
		require.Equal(t, editUnchanged, outcome)
		require.Empty(t, f.saves)
	})

	t.Run("same values send nothing", func(t *testing.T) {
		f := setupEditFixture(t, "Groceries", "milk")
		outcome, err := applyEdits(ctx, f.session, strPtr("Groceries"), strPtr("milk"))
		require.NoError(t, err)
		require.Equal(t, editUnchanged, outcome)
		require.Empty(t, f.saves)
	})

	t.Run("only the given field changes", func(t *testing.T) {
		f := setupEditFixture(t, "Groceries", "milk")
		outcome, err := applyEdits(ctx, f.session, nil, strPtr("milk and eggs"))
		require.NoError(t, err)
		require.Equal(t, editSaved, outcome)
		require.Len(t, f.saves, 1)
		require.Equal(t, "Groceries", f.saves[0].Title)
		require.Equal(t, "milk and eggs", f.saves[0].Content)
	})

	t.Run("blank note is reported as skipped", func(t *testing.T) {
		f := setupEditFixture(t, "Groceries", "milk")
		outcome, err := applyEdits(ctx, f.session, strPtr(""), strPtr(" "))
		require.NoError(t, err)
		require.Equal(t, editSkippedBlank, outcome)
		require.Empty(t, f.saves)
	})
}

func TestReportEdit(t *testing.T) {
	var out bytes.Buffer
	reportEdit(&out, "n1", editSaved)
	reportEdit(&out, "n1", editSkippedBlank)
	reportEdit(&out, "n1", editUnchanged)
	require.Equal(t, "Saved n1\nNot saved n1: a note needs a title or some content\nNo changes to n1\n", out.String())
}
