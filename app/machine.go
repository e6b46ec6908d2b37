// Package app holds the top level state of the notes client: whether a user
// is signed in, which view is showing, and the working copy of the tenant's
// notes.
package app

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jrsteele09/go-notes-client/auth"
	"github.com/jrsteele09/go-notes-client/editor"
	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
	"github.com/rs/zerolog"
)

// DefaultFreeNoteLimit is the number of notes a free tenant may hold.
const DefaultFreeNoteLimit = 3

// Machine drives the client. Remote calls run without the lock held, so a
// slow request never blocks reads of the current state. Concurrent loads
// are not coalesced: the last one to complete wins.
type Machine struct {
	store         *sessions.Store
	gateway       *auth.Gateway
	notesRepo     notes.Repo
	freeNoteLimit int
	logger        zerolog.Logger

	lock     sync.RWMutex
	state    State
	loads    int
	epoch    uint64 // Bumped on login and logout; stale responses are dropped
	selected string
}

// Option defines a function type to modify the Machine instance.
type Option func(*Machine)

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Machine) {
		m.logger = logger
	}
}

func WithFreeNoteLimit(limit int) Option {
	return func(m *Machine) {
		if limit > 0 {
			m.freeNoteLimit = limit
		}
	}
}

// New creates a Machine in the unauthenticated state.
func New(store *sessions.Store, gateway *auth.Gateway, notesRepo notes.Repo, options ...Option) (*Machine, error) {
	if store == nil {
		return nil, errors.New("[app.New] session store is required")
	}
	if gateway == nil {
		return nil, errors.New("[app.New] gateway is required")
	}
	if notesRepo == nil {
		return nil, errors.New("[app.New] notes repo is required")
	}

	m := &Machine{
		store:         store,
		gateway:       gateway,
		notesRepo:     notesRepo,
		freeNoteLimit: DefaultFreeNoteLimit,
		logger:        zerolog.Nop(),
		state:         State{View: ViewNotes},
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Restore resumes a persisted session, if there is one.
func (m *Machine) Restore() bool {
	user, ok := m.store.Restore()
	if !ok {
		return false
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	m.resetLocked()
	m.state.Authenticated = true
	m.logger.Debug().Str("user_id", user.ID).Msg("session restored")
	return true
}

// Login signs in and loads the tenant's notes. A rejected login leaves the
// machine unauthenticated with LoginError set.
func (m *Machine) Login(ctx context.Context, email, password string) error {
	m.lock.Lock()
	m.state.LoginError = ""
	m.lock.Unlock()

	if _, err := m.gateway.Login(ctx, email, password); err != nil {
		m.lock.Lock()
		m.state.LoginError = apperrors.Message(err)
		m.lock.Unlock()
		return err
	}

	m.lock.Lock()
	m.resetLocked()
	m.state.Authenticated = true
	m.lock.Unlock()

	// A failed load is reported through NotesError; the login stands.
	_ = m.LoadNotes(ctx)
	return nil
}

// Logout ends the session and forgets everything that belonged to it.
func (m *Machine) Logout(ctx context.Context) {
	_ = m.gateway.Logout(ctx)

	m.lock.Lock()
	defer m.lock.Unlock()
	m.resetLocked()
}

// resetLocked returns to a blank notes view. Called with the lock held.
func (m *Machine) resetLocked() {
	m.epoch++
	m.loads = 0
	m.selected = ""
	m.state = State{View: ViewNotes}
}

// LoadNotes replaces the collection with the remote one. On failure the
// previous collection is kept and NotesError is set.
func (m *Machine) LoadNotes(ctx context.Context) error {
	m.lock.Lock()
	if !m.state.Authenticated {
		m.lock.Unlock()
		return apperrors.ErrNotAuthenticated
	}
	epoch := m.epoch
	m.loads++
	m.state.Loading = true
	m.state.NotesError = ""
	m.lock.Unlock()

	list, err := m.notesRepo.List(ctx)

	m.lock.Lock()
	defer m.lock.Unlock()
	if epoch != m.epoch {
		return nil
	}
	m.loads--
	m.state.Loading = m.loads > 0
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to load notes")
		m.state.NotesError = LoadNotesFailedMsg
		return err
	}
	m.state.Notes = list
	m.refreshSelectedLocked()
	return nil
}

// CanCreateNote reports whether the quota allows another note.
func (m *Machine) CanCreateNote() bool {
	remaining, limited := m.RemainingNotes()
	return !limited || remaining > 0
}

// RemainingNotes returns how many more notes a free tenant may create. The
// second result is false for tenants without a quota.
func (m *Machine) RemainingNotes() (int, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	user, _ := m.store.CurrentUser()
	if !user.IsFree() {
		return 0, false
	}
	remaining := m.freeNoteLimit - len(m.state.Notes)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// CreateNote creates a "New Note", puts it first and opens it. A free
// tenant at its quota gets ErrQuotaExceeded and the upgrade prompt, without
// any remote call.
func (m *Machine) CreateNote(ctx context.Context) (*notes.Note, error) {
	m.lock.RLock()
	authenticated := m.state.Authenticated
	m.lock.RUnlock()
	if !authenticated {
		return nil, apperrors.ErrNotAuthenticated
	}

	if !m.CanCreateNote() {
		m.lock.Lock()
		m.state.UpgradePrompt = true
		m.lock.Unlock()
		m.logger.Info().Int("limit", m.freeNoteLimit).Msg("note quota reached")
		return nil, apperrors.ErrQuotaExceeded
	}

	m.lock.RLock()
	epoch := m.epoch
	m.lock.RUnlock()

	note, err := m.notesRepo.Create(ctx, notes.DefaultTitle, "")

	m.lock.Lock()
	defer m.lock.Unlock()
	if epoch != m.epoch {
		return nil, apperrors.ErrNotAuthenticated
	}
	if err != nil {
		m.logger.Warn().Err(err).Msg("failed to create note")
		m.state.NotesError = CreateNoteFailedMsg
		return nil, err
	}
	m.state.Notes = append([]notes.Note{*note}, m.state.Notes...)
	m.selectLocked(*note)
	created := *note
	return &created, nil
}

// SelectNote opens note in the editor.
func (m *Machine) SelectNote(note notes.Note) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.selectLocked(note)
}

func (m *Machine) selectLocked(note notes.Note) {
	m.selected = note.ID
	selected := note
	m.state.Selected = &selected
	m.state.View = ViewEditor
}

// refreshSelectedLocked points the selection at the collection's copy of
// the selected note, if it is still there.
func (m *Machine) refreshSelectedLocked() {
	if m.selected == "" {
		return
	}
	for _, n := range m.state.Notes {
		if n.ID == m.selected {
			selected := n
			m.state.Selected = &selected
			return
		}
	}
}

// ShowNotes goes back to the notes list, keeping the selection.
func (m *Machine) ShowNotes() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state.View = ViewNotes
}

// SaveNote writes note and replaces the collection entry with the saved
// copy, keeping its position. On failure the collection is left as it was.
func (m *Machine) SaveNote(ctx context.Context, note notes.Note) (*notes.Note, error) {
	m.lock.RLock()
	epoch := m.epoch
	m.lock.RUnlock()

	saved, err := m.notesRepo.Update(ctx, note.ID, note.Title, note.Content)

	m.lock.Lock()
	defer m.lock.Unlock()
	if epoch != m.epoch {
		return nil, apperrors.ErrNotAuthenticated
	}
	if err != nil {
		m.logger.Warn().Str("note_id", note.ID).Err(err).Msg("failed to save note")
		m.state.NotesError = SaveNoteFailedMsg
		return nil, err
	}
	for i := range m.state.Notes {
		if m.state.Notes[i].ID == saved.ID {
			m.state.Notes[i] = *saved
			break
		}
	}
	if m.selected == saved.ID {
		selected := *saved
		m.state.Selected = &selected
	}
	result := *saved
	return &result, nil
}

// DeleteNote removes a note. Deleting the selected note returns to the
// notes list with nothing selected.
func (m *Machine) DeleteNote(ctx context.Context, id string) error {
	m.lock.RLock()
	epoch := m.epoch
	m.lock.RUnlock()

	err := m.notesRepo.Delete(ctx, id)

	m.lock.Lock()
	defer m.lock.Unlock()
	if epoch != m.epoch {
		return apperrors.ErrNotAuthenticated
	}
	if err != nil {
		m.logger.Warn().Str("note_id", id).Err(err).Msg("failed to delete note")
		m.state.NotesError = DeleteNoteFailedMsg
		return err
	}
	kept := m.state.Notes[:0:0]
	for _, n := range m.state.Notes {
		if n.ID != id {
			kept = append(kept, n)
		}
	}
	m.state.Notes = kept
	if m.selected == id {
		m.selected = ""
		m.state.Selected = nil
		m.state.View = ViewNotes
	}
	return nil
}

// OpenEditor starts an editor session on the selected note, saving and
// deleting through the machine.
func (m *Machine) OpenEditor(options ...editor.Option) (*editor.Session, error) {
	m.lock.RLock()
	selected := m.state.Selected
	m.lock.RUnlock()
	if selected == nil {
		return nil, apperrors.Wrapf(apperrors.ErrNotFound, "[OpenEditor] no note selected")
	}

	callbacks := editor.Callbacks{
		Save:   m.SaveNote,
		Delete: m.DeleteNote,
	}
	return editor.New(*selected, callbacks, append([]editor.Option{editor.WithLogger(m.logger)}, options...)...)
}

// Search returns the notes matching query, in collection order.
func (m *Machine) Search(query string) []notes.Note {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return notes.Filter(m.state.Notes, query)
}

// ShowMembers switches to the members view and loads the member list.
func (m *Machine) ShowMembers(ctx context.Context) error {
	m.lock.Lock()
	if !m.state.Authenticated {
		m.lock.Unlock()
		return apperrors.ErrNotAuthenticated
	}
	m.state.View = ViewMembers
	m.lock.Unlock()
	return m.LoadMembers(ctx)
}

func (m *Machine) LoadMembers(ctx context.Context) error {
	m.lock.Lock()
	epoch := m.epoch
	m.state.MembersError = ""
	m.lock.Unlock()

	members, err := m.gateway.ListMembers(ctx)

	m.lock.Lock()
	defer m.lock.Unlock()
	if epoch != m.epoch {
		return apperrors.ErrNotAuthenticated
	}
	if err != nil {
		m.state.MembersError = LoadMembersFailedMsg
		return err
	}
	m.state.Members = members
	return nil
}

// InviteMember invites email into the signed in user's tenant and adds the
// new member to the list.
func (m *Machine) InviteMember(ctx context.Context, email string, role users.RoleType) (*tenants.InviteReceipt, error) {
	user, ok := m.store.CurrentUser()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	receipt, err := m.gateway.InviteUser(ctx, user.TenantName, email, role)
	if err != nil {
		return nil, err
	}
	if receipt.Member != nil {
		m.lock.Lock()
		m.state.Members = append(m.state.Members, *receipt.Member)
		m.lock.Unlock()
	}
	return receipt, nil
}

// UpgradePlan upgrades the signed in user's tenant and clears the upgrade
// prompt.
func (m *Machine) UpgradePlan(ctx context.Context) (*users.User, error) {
	user, ok := m.store.CurrentUser()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	updated, err := m.gateway.UpgradePlan(ctx, user.TenantName)
	if err != nil {
		return nil, err
	}
	m.lock.Lock()
	m.state.UpgradePrompt = false
	m.lock.Unlock()
	return updated, nil
}

func (m *Machine) DismissUpgradePrompt() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.state.UpgradePrompt = false
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.lock.RLock()
	defer m.lock.RUnlock()

	s := m.state
	s.Notes = append([]notes.Note(nil), m.state.Notes...)
	s.Members = append([]tenants.Member(nil), m.state.Members...)
	if m.state.Selected != nil {
		selected := *m.state.Selected
		s.Selected = &selected
	}
	if s.Authenticated {
		s.User, _ = m.store.CurrentUser()
	}
	return s
}

// FindNote looks a note up in the collection by id or by a unique id
// prefix.
func (m *Machine) FindNote(ref string) (notes.Note, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	var found []notes.Note
	for _, n := range m.state.Notes {
		if n.ID == ref {
			return n, nil
		}
		if ref != "" && strings.HasPrefix(n.ID, ref) {
			found = append(found, n)
		}
	}
	if len(found) != 1 {
		return notes.Note{}, apperrors.Wrapf(apperrors.ErrNotFound, "[FindNote] %q", ref)
	}
	return found[0], nil
}
