package notes_test

import (
	"strings"
	"testing"
	"time"

	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/stretchr/testify/require"
)

func TestSnippet(t *testing.T) {
	t.Run("long content is truncated with marker", func(t *testing.T) {
		content := strings.Repeat("a", 100) + strings.Repeat("b", 50)
		require.Equal(t, strings.Repeat("a", 100)+"...", notes.Snippet(content))
	})

	t.Run("short content is unchanged", func(t *testing.T) {
		content := strings.Repeat("x", 80)
		require.Equal(t, content, notes.Snippet(content))
	})

	t.Run("exactly one hundred characters has no marker", func(t *testing.T) {
		content := strings.Repeat("y", 100)
		require.Equal(t, content, notes.Snippet(content))
	})

	t.Run("counts characters not bytes", func(t *testing.T) {
		content := strings.Repeat("é", 101)
		require.Equal(t, strings.Repeat("é", 100)+"...", notes.Snippet(content))
	})
}

func TestNew_DerivesSnippet(t *testing.T) {
	n := notes.New("n1", "t", strings.Repeat("c", 150), time.Now())
	require.Equal(t, notes.Snippet(n.Content), n.Snippet)
}

func TestFilter(t *testing.T) {
	list := []notes.Note{
		notes.New("1", "Groceries", "milk and eggs", time.Time{}),
		notes.New("2", "Meeting", "Discuss ROADMAP", time.Time{}),
		notes.New("3", "Ideas", "", time.Time{}),
	}

	require.Len(t, notes.Filter(list, "  "), 3)

	matched := notes.Filter(list, "roadmap")
	require.Len(t, matched, 1)
	require.Equal(t, "2", matched[0].ID)

	matched = notes.Filter(list, "IDEAS")
	require.Len(t, matched, 1)
	require.Equal(t, "3", matched[0].ID)

	require.Empty(t, notes.Filter(list, "nothing"))
}

func TestCounts(t *testing.T) {
	require.Equal(t, 0, notes.WordCount("   "))
	require.Equal(t, 3, notes.WordCount(" one two\nthree "))
	require.Equal(t, 4, notes.CharCount("héll"))
	require.True(t, notes.IsBlank(" ", "\n\t"))
	require.False(t, notes.IsBlank("", "x"))
}
