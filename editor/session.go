package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/rs/zerolog"
)

const (
	// DefaultDelay is the quiet period after the last edit before auto-save
	DefaultDelay = 2 * time.Second

	DeletePrompt = "Are you sure you want to delete this note? This action cannot be undone."

	StatusSaving  = "Saving..."
	StatusUnsaved = "Unsaved changes"
	StatusSaved   = "Saved"
)

// ErrClosed is returned by operations on a session that has been closed.
var ErrClosed = errors.New("editor session closed")

// Callbacks connect the editor to whoever owns the note collection. The
// editor has no network access of its own.
type Callbacks struct {
	Save   func(ctx context.Context, note notes.Note) (*notes.Note, error)
	Delete func(ctx context.Context, id string) error
}

// Draft is a snapshot of the editor state.
type Draft struct {
	Title       string
	Content     string
	Dirty       bool
	IsSaving    bool
	LastSavedAt time.Time
	LastError   error // Error of the most recent failed save, nil after a success
}

// Session edits one note. Edits re-arm a single trailing-edge timer; when it
// fires with unsaved changes the draft is saved through Callbacks.Save.
type Session struct {
	ctx       context.Context
	callbacks Callbacks
	delay     time.Duration
	scheduler Scheduler
	confirmer Confirmer
	nowTime   func() time.Time
	logger    zerolog.Logger

	lock       sync.Mutex
	note       notes.Note
	draft      Draft
	timer      Timer
	generation uint64 // Bumped on every edit
	inFlight   int
	closed     bool
}

// Option defines a function type to modify the Session instance.
type Option func(*Session)

func WithDelay(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.delay = d
		}
	}
}

func WithScheduler(scheduler Scheduler) Option {
	return func(s *Session) {
		s.scheduler = scheduler
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Session) {
		s.nowTime = nowFunc
	}
}

// WithConfirmer sets the prompt consulted before deleting. Without one,
// Delete proceeds unprompted.
func WithConfirmer(c Confirmer) Option {
	return func(s *Session) {
		s.confirmer = c
	}
}

// WithContext sets the context used by timer triggered saves.
func WithContext(ctx context.Context) Option {
	return func(s *Session) {
		s.ctx = ctx
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// New opens note for editing.
func New(note notes.Note, callbacks Callbacks, options ...Option) (*Session, error) {
	if note.ID == "" {
		return nil, errors.New("[editor.New] note id is required")
	}
	if callbacks.Save == nil {
		return nil, errors.New("[editor.New] save callback is required")
	}
	if callbacks.Delete == nil {
		return nil, errors.New("[editor.New] delete callback is required")
	}

	s := &Session{
		ctx:       context.Background(),
		callbacks: callbacks,
		delay:     DefaultDelay,
		scheduler: realScheduler{},
		nowTime:   time.Now,
		logger:    zerolog.Nop(),
		note:      note,
		draft: Draft{
			Title:       note.Title,
			Content:     note.Content,
			LastSavedAt: note.UpdatedAt,
		},
	}
	for _, opt := range options {
		opt(s)
	}
	s.logger = s.logger.With().Str("note_id", note.ID).Logger()
	return s, nil
}

// SetTitle replaces the draft title. Setting the current value is not an
// edit and leaves the draft and timer alone.
func (s *Session) SetTitle(title string) {
	s.edit(func(d *Draft) bool {
		if d.Title == title {
			return false
		}
		d.Title = title
		return true
	})
}

func (s *Session) SetContent(content string) {
	s.edit(func(d *Draft) bool {
		if d.Content == content {
			return false
		}
		d.Content = content
		return true
	})
}

func (s *Session) edit(apply func(*Draft) bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.closed || !apply(&s.draft) {
		return
	}
	s.draft.Dirty = true
	s.generation++
	s.armLocked()
}

// armLocked replaces any pending timer. Called with the lock held.
func (s *Session) armLocked() {
	s.stopTimerLocked()
	generation := s.generation
	s.timer = s.scheduler.AfterFunc(s.delay, func() {
		s.onTimer(generation)
	})
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

func (s *Session) onTimer(generation uint64) {
	s.lock.Lock()
	// A later edit re-armed the timer; that timer will save.
	if s.closed || generation != s.generation {
		s.lock.Unlock()
		return
	}
	s.timer = nil
	dirty := s.draft.Dirty
	s.lock.Unlock()

	if dirty {
		_ = s.save(s.ctx)
	}
}

// Save saves the draft now, cancelling any pending auto-save. A draft whose
// title and content are both blank is skipped, as it is for auto-save.
func (s *Session) Save(ctx context.Context) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return ErrClosed
	}
	s.stopTimerLocked()
	s.lock.Unlock()

	return s.save(ctx)
}

func (s *Session) save(ctx context.Context) error {
	s.lock.Lock()
	if notes.IsBlank(s.draft.Title, s.draft.Content) {
		s.lock.Unlock()
		return nil
	}

	title := s.draft.Title
	if strings.TrimSpace(title) == "" {
		title = notes.UntitledTitle
	}
	updated := s.note
	updated.Title = title
	updated.Content = s.draft.Content
	updated.Snippet = notes.Snippet(s.draft.Content)
	updated.UpdatedAt = s.nowTime()

	generation := s.generation
	s.inFlight++
	s.draft.IsSaving = true
	s.lock.Unlock()

	saved, err := s.callbacks.Save(ctx, updated)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.inFlight--
	s.draft.IsSaving = s.inFlight > 0
	if err != nil {
		// The draft stays dirty so the failure is visible and a later
		// edit or manual save retries.
		s.draft.LastError = err
		s.logger.Warn().Err(err).Msg("save failed")
		return err
	}

	if saved != nil {
		s.note = *saved
	} else {
		s.note = updated
	}
	s.draft.LastError = nil
	s.draft.LastSavedAt = s.nowTime()
	if generation == s.generation {
		s.draft.Dirty = false
	}
	s.logger.Debug().Msg("saved")
	return nil
}

// Delete asks for confirmation and deletes the note. It reports whether the
// delete went ahead. A successful delete closes the session.
func (s *Session) Delete(ctx context.Context) (bool, error) {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return false, ErrClosed
	}
	id := s.note.ID
	s.lock.Unlock()

	if s.confirmer != nil && !s.confirmer.Confirm(ctx, DeletePrompt) {
		return false, nil
	}

	if err := s.callbacks.Delete(ctx, id); err != nil {
		return false, fmt.Errorf("[Delete] %w", err)
	}
	s.Discard()
	return true, nil
}

// Close leaves the editor. Unsaved changes are flushed with one final save
// instead of waiting for the timer.
func (s *Session) Close(ctx context.Context) error {
	s.lock.Lock()
	if s.closed {
		s.lock.Unlock()
		return nil
	}
	s.closed = true
	s.stopTimerLocked()
	dirty := s.draft.Dirty
	s.lock.Unlock()

	if !dirty {
		return nil
	}
	return s.save(ctx)
}

// Discard leaves the editor dropping unsaved changes.
func (s *Session) Discard() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.closed = true
	s.stopTimerLocked()
}

// Draft returns a snapshot of the editor state.
func (s *Session) Draft() Draft {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.draft
}

// Note returns the note as last saved.
func (s *Session) Note() notes.Note {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.note
}

func (s *Session) Pending() bool {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.timer != nil
}

func (s *Session) Status() string {
	d := s.Draft()
	switch {
	case d.IsSaving:
		return StatusSaving
	case d.Dirty:
		return StatusUnsaved
	default:
		return StatusSaved
	}
}

func (s *Session) WordCount() int {
	return notes.WordCount(s.Draft().Content)
}

func (s *Session) CharCount() int {
	return notes.CharCount(s.Draft().Content)
}

// LastSavedLabel describes LastSavedAt relative to now.
func (s *Session) LastSavedLabel(now time.Time) string {
	return RelativeLabel(s.Draft().LastSavedAt, now)
}

// RelativeLabel renders t as "Just now", "5m ago", "3h ago" or a date.
func RelativeLabel(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	elapsed := now.Sub(t)
	switch {
	case elapsed < time.Minute:
		return "Just now"
	case elapsed < time.Hour:
		return fmt.Sprintf("%dm ago", int(elapsed/time.Minute))
	case elapsed < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(elapsed/time.Hour))
	}
	return t.Local().Format("Jan 2, 2006")
}
