package notes

import (
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// SnippetLength is the number of characters of content shown in list views
	SnippetLength = 100
	// SnippetMarker is appended when content was truncated
	SnippetMarker = "..."

	DefaultTitle  = "New Note"
	UntitledTitle = "Untitled Note"
)

// Note is a tenant note as held by the client.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Snippet   string    `json:"snippet"` // Derived from Content, see Snippet
	UpdatedAt time.Time `json:"updatedAt"`
}

// New returns a note with its snippet derived from content.
func New(id, title, content string, updatedAt time.Time) Note {
	return Note{
		ID:        id,
		Title:     title,
		Content:   content,
		Snippet:   Snippet(content),
		UpdatedAt: updatedAt,
	}
}

// Snippet returns the first SnippetLength characters of content, with
// SnippetMarker appended iff content is longer than that.
func Snippet(content string) string {
	if utf8.RuneCountInString(content) <= SnippetLength {
		return content
	}
	runes := []rune(content)
	return string(runes[:SnippetLength]) + SnippetMarker
}

// IsBlank reports whether both title and content are empty or whitespace.
func IsBlank(title, content string) bool {
	return strings.TrimSpace(title) == "" && strings.TrimSpace(content) == ""
}

// Matches reports whether query appears, case-insensitively, in the title,
// content or snippet. An empty query matches everything.
func (n Note) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(n.Title), q) ||
		strings.Contains(strings.ToLower(n.Content), q) ||
		strings.Contains(strings.ToLower(n.Snippet), q)
}

// Filter returns the notes matching query, preserving order.
func Filter(list []Note, query string) []Note {
	if strings.TrimSpace(query) == "" {
		return append([]Note(nil), list...)
	}
	matched := make([]Note, 0, len(list))
	for _, n := range list {
		if n.Matches(query) {
			matched = append(matched, n)
		}
	}
	return matched
}

func WordCount(content string) int {
	return len(strings.Fields(content))
}

func CharCount(content string) int {
	return utf8.RuneCountInString(content)
}
