package sessions

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// Store owns the signed in user and bearer token and mirrors both into a
// durable Storage so a session survives restarts.
//
// The user is present iff the token is present, at every exit point of
// every method.
type Store struct {
	storage Storage
	logger  zerolog.Logger

	lock  sync.RWMutex
	user  *users.User
	token string
}

// StoreOption modifies a Store on construction.
type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// NewStore creates an empty store over storage. Call Restore to pick up a
// previously persisted session.
func NewStore(storage Storage, options ...StoreOption) (*Store, error) {
	if storage == nil {
		return nil, errors.New("[NewStore] storage is required")
	}
	s := &Store{
		storage: storage,
		logger:  zerolog.Nop(),
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Restore returns the current user, reading the persisted pair on the first
// successful call. A partial or undecodable pair is purged and treated as
// absent; the error is logged, never returned.
func (s *Store) Restore() (*users.User, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.user != nil {
		return copyUser(s.user), true
	}

	user, token, err := s.readPersisted()
	switch {
	case err == nil:
		s.user, s.token = user, token
		s.logger.Debug().Str("user_id", user.ID).Str("tenant", user.TenantName).Msg("session restored")
		return copyUser(user), true
	case errors.Is(err, errNoSession):
		return nil, false
	case errors.Is(err, apperrors.ErrMalformedPersistedState):
		s.logger.Warn().Err(err).Msg("purging persisted session")
		s.removePersisted()
		return nil, false
	default:
		s.logger.Error().Err(err).Msg("failed to read persisted session")
		return nil, false
	}
}

// SetSession replaces the current session and persists it. The in-memory
// pair is set even when persistence fails; storage never keeps half a pair.
func (s *Store) SetSession(user users.User, token string) error {
	if token == "" {
		return errors.New("[SetSession] token is required")
	}
	if user.ID == "" {
		return errors.New("[SetSession] user id is required")
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.user = copyUser(&user)
	s.token = token
	return s.persist(true)
}

// Clear drops the session from memory and storage. Memory is always
// cleared; the returned error only concerns storage.
func (s *Store) Clear() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.user = nil
	s.token = ""
	return s.removePersisted()
}

// UpdateUser applies update to the current user and re-persists it.
func (s *Store) UpdateUser(update func(*users.User)) (*users.User, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.user == nil {
		return nil, apperrors.ErrNotAuthenticated
	}
	updated := copyUser(s.user)
	update(updated)
	updated.ID = s.user.ID
	s.user = updated
	if err := s.persist(false); err != nil {
		return copyUser(updated), err
	}
	return copyUser(updated), nil
}

func (s *Store) CurrentUser() (*users.User, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.user == nil {
		return nil, false
	}
	return copyUser(s.user), true
}

func (s *Store) Token() (string, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.token, s.token != ""
}

func (s *Store) IsAuthenticated() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.user != nil && s.token != ""
}

// TokenSource exposes the bearer token to oauth2.Transport. The token is
// read on every request so logout takes effect immediately.
func (s *Store) TokenSource() oauth2.TokenSource {
	return storeTokenSource{store: s}
}

type storeTokenSource struct {
	store *Store
}

func (ts storeTokenSource) Token() (*oauth2.Token, error) {
	token, ok := ts.store.Token()
	if !ok {
		return nil, apperrors.ErrNotAuthenticated
	}
	return &oauth2.Token{AccessToken: token, TokenType: "Bearer"}, nil
}

var errNoSession = errors.New("no persisted session")

func (s *Store) readPersisted() (*users.User, string, error) {
	rawUser, hasUser, err := s.storage.Get(UserKey)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", UserKey, err)
	}
	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		return nil, "", fmt.Errorf("get %s: %w", TokenKey, err)
	}

	switch {
	case !hasUser && !hasToken:
		return nil, "", errNoSession
	case !hasUser || !hasToken || rawUser == "" || token == "":
		return nil, "", fmt.Errorf("%w: partial pair (user=%t token=%t)", apperrors.ErrMalformedPersistedState, hasUser, hasToken)
	}

	var user users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperrors.ErrMalformedPersistedState, err)
	}
	if err := user.Validate(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", apperrors.ErrMalformedPersistedState, err)
	}
	return &user, token, nil
}

// persist writes the user and, when withToken is set, the token. Called
// with the lock held.
func (s *Store) persist(withToken bool) error {
	data, err := json.Marshal(s.user)
	if err != nil {
		return fmt.Errorf("[persist] marshal user: %w", err)
	}
	if err := s.storage.Set(UserKey, string(data)); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session user")
		return fmt.Errorf("[persist] %s: %w", UserKey, err)
	}
	if !withToken {
		return nil
	}
	if err := s.storage.Set(TokenKey, s.token); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist session token")
		_ = s.storage.Remove(UserKey)
		return fmt.Errorf("[persist] %s: %w", TokenKey, err)
	}
	return nil
}

// removePersisted removes both keys, attempting the second even when the
// first fails. Called with the lock held.
func (s *Store) removePersisted() error {
	userErr := s.storage.Remove(UserKey)
	tokenErr := s.storage.Remove(TokenKey)
	if err := errors.Join(userErr, tokenErr); err != nil {
		s.logger.Error().Err(err).Msg("failed to remove persisted session")
		return fmt.Errorf("[removePersisted] %w", err)
	}
	return nil
}

func copyUser(u *users.User) *users.User {
	c := *u
	return &c
}
