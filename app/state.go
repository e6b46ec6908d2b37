package app

import (
	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
)

type View string

const (
	ViewNotes   View = "notes"
	ViewEditor  View = "editor"
	ViewMembers View = "members"
)

const (
	LoadNotesFailedMsg   = "Failed to load notes. Please try again."
	CreateNoteFailedMsg  = "Failed to create note. Please try again."
	SaveNoteFailedMsg    = "Failed to save note. Please try again."
	DeleteNoteFailedMsg  = "Failed to delete note. Please try again."
	LoadMembersFailedMsg = "Failed to load users. Please try again."
)

// State is a point in time copy of the machine, safe to hand to views.
type State struct {
	Authenticated bool
	User          *users.User
	View          View
	Selected      *notes.Note
	Notes         []notes.Note
	Loading       bool
	NotesError    string
	LoginError    string
	UpgradePrompt bool // Set when a free tenant hits its note quota
	Members       []tenants.Member
	MembersError  string
}
