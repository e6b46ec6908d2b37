package sessions_test

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/sessions/filestore"
	"github.com/jrsteele09/go-notes-client/sessions/memstore"
	"github.com/jrsteele09/go-notes-client/users"
	"github.com/stretchr/testify/require"
)

var testUser = users.User{
	ID:         "user-1",
	Email:      "admin@acme.test",
	TenantID:   "tenant-1",
	TenantName: "acme",
	Role:       users.RoleAdmin,
	Plan:       users.PlanFree,
}

// countingStorage wraps a MemStore and can fail writes of a given key.
type countingStorage struct {
	*memstore.MemStore
	gets    int
	sets    int
	failSet string
}

func newCountingStorage() *countingStorage {
	return &countingStorage{MemStore: memstore.New()}
}

func (c *countingStorage) Get(key string) (string, bool, error) {
	c.gets++
	return c.MemStore.Get(key)
}

func (c *countingStorage) Set(key, value string) error {
	c.sets++
	if key == c.failSet {
		return errors.New("disk full")
	}
	return c.MemStore.Set(key, value)
}

func newStore(t *testing.T, storage sessions.Storage) *sessions.Store {
	t.Helper()
	store, err := sessions.NewStore(storage)
	require.NoError(t, err)
	return store
}

// requirePresenceInvariant checks user present iff token present.
func requirePresenceInvariant(t *testing.T, store *sessions.Store) {
	t.Helper()
	_, hasUser := store.CurrentUser()
	_, hasToken := store.Token()
	require.Equal(t, hasUser, hasToken)
	require.Equal(t, hasUser, store.IsAuthenticated())
}

func persist(t *testing.T, storage sessions.Storage, user users.User, token string) {
	t.Helper()
	data, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, storage.Set(sessions.UserKey, string(data)))
	require.NoError(t, storage.Set(sessions.TokenKey, token))
}

func TestNewStore_RequiresStorage(t *testing.T) {
	_, err := sessions.NewStore(nil)
	require.Error(t, err)
}

func TestStore_SetSessionAndClear(t *testing.T) {
	storage := memstore.New()
	store := newStore(t, storage)
	requirePresenceInvariant(t, store)
	require.False(t, store.IsAuthenticated())

	require.NoError(t, store.SetSession(testUser, "token-1"))
	requirePresenceInvariant(t, store)

	user, ok := store.CurrentUser()
	require.True(t, ok)
	require.Equal(t, testUser, *user)
	token, ok := store.Token()
	require.True(t, ok)
	require.Equal(t, "token-1", token)
	require.Equal(t, 2, storage.Len())

	require.NoError(t, store.Clear())
	requirePresenceInvariant(t, store)
	require.False(t, store.IsAuthenticated())
	require.Equal(t, 0, storage.Len())
}

func TestStore_SetSessionRejectsHalfPairs(t *testing.T) {
	store := newStore(t, memstore.New())

	require.Error(t, store.SetSession(testUser, ""))
	require.Error(t, store.SetSession(users.User{}, "token-1"))
	requirePresenceInvariant(t, store)
	require.False(t, store.IsAuthenticated())
}

func TestStore_CurrentUserReturnsCopy(t *testing.T) {
	store := newStore(t, memstore.New())
	require.NoError(t, store.SetSession(testUser, "token-1"))

	user, _ := store.CurrentUser()
	user.Plan = users.PlanPro

	again, _ := store.CurrentUser()
	require.Equal(t, users.PlanFree, again.Plan)
}

func TestStore_Restore(t *testing.T) {
	t.Run("restores persisted pair", func(t *testing.T) {
		storage := newCountingStorage()
		persist(t, storage, testUser, "token-1")

		store := newStore(t, storage)
		user, ok := store.Restore()
		require.True(t, ok)
		require.Equal(t, testUser, *user)
		requirePresenceInvariant(t, store)
	})

	t.Run("idempotent after first restoration", func(t *testing.T) {
		storage := newCountingStorage()
		persist(t, storage, testUser, "token-1")
		store := newStore(t, storage)

		first, ok := store.Restore()
		require.True(t, ok)
		gets, sets := storage.gets, storage.sets

		second, ok := store.Restore()
		require.True(t, ok)
		require.Equal(t, first, second)
		require.Equal(t, gets, storage.gets, "second restore must not read storage")
		require.Equal(t, sets, storage.sets)
	})

	t.Run("nothing persisted", func(t *testing.T) {
		store := newStore(t, memstore.New())
		user, ok := store.Restore()
		require.False(t, ok)
		require.Nil(t, user)
		requirePresenceInvariant(t, store)
	})

	t.Run("partial pair is purged", func(t *testing.T) {
		storage := memstore.New()
		require.NoError(t, storage.Set(sessions.TokenKey, "token-1"))

		store := newStore(t, storage)
		_, ok := store.Restore()
		require.False(t, ok)
		require.Equal(t, 0, storage.Len())
		requirePresenceInvariant(t, store)
	})

	t.Run("undecodable user is purged", func(t *testing.T) {
		storage := memstore.New()
		require.NoError(t, storage.Set(sessions.UserKey, "{not json"))
		require.NoError(t, storage.Set(sessions.TokenKey, "token-1"))

		store := newStore(t, storage)
		_, ok := store.Restore()
		require.False(t, ok)
		require.Equal(t, 0, storage.Len())
	})

	t.Run("user without tenant is purged", func(t *testing.T) {
		storage := memstore.New()
		bad := testUser
		bad.TenantName = ""
		persist(t, storage, bad, "token-1")

		store := newStore(t, storage)
		_, ok := store.Restore()
		require.False(t, ok)
		require.Equal(t, 0, storage.Len())
	})

	t.Run("returns in-memory session without storage", func(t *testing.T) {
		storage := newCountingStorage()
		store := newStore(t, storage)
		require.NoError(t, store.SetSession(testUser, "token-1"))

		user, ok := store.Restore()
		require.True(t, ok)
		require.Equal(t, testUser.ID, user.ID)
		require.Zero(t, storage.gets)
	})
}

func TestStore_TokenPersistFailureRollsBackUser(t *testing.T) {
	storage := newCountingStorage()
	storage.failSet = sessions.TokenKey
	store := newStore(t, storage)

	err := store.SetSession(testUser, "token-1")
	require.Error(t, err)
	requirePresenceInvariant(t, store)

	_, hasUser, _ := storage.MemStore.Get(sessions.UserKey)
	_, hasToken, _ := storage.MemStore.Get(sessions.TokenKey)
	require.False(t, hasUser)
	require.False(t, hasToken)
}

func TestStore_UpdateUser(t *testing.T) {
	t.Run("requires session", func(t *testing.T) {
		store := newStore(t, memstore.New())
		_, err := store.UpdateUser(func(u *users.User) { u.Plan = users.PlanPro })
		require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	})

	t.Run("merges and re-persists", func(t *testing.T) {
		storage := memstore.New()
		store := newStore(t, storage)
		require.NoError(t, store.SetSession(testUser, "token-1"))

		updated, err := store.UpdateUser(func(u *users.User) { u.Plan = users.PlanPro })
		require.NoError(t, err)
		require.Equal(t, users.PlanPro, updated.Plan)
		require.Equal(t, testUser.Email, updated.Email)

		restored := newStore(t, storage)
		user, ok := restored.Restore()
		require.True(t, ok)
		require.Equal(t, users.PlanPro, user.Plan)
	})
}

func TestStore_TokenSource(t *testing.T) {
	store := newStore(t, memstore.New())
	ts := store.TokenSource()

	_, err := ts.Token()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)

	require.NoError(t, store.SetSession(testUser, "token-1"))
	tok, err := ts.Token()
	require.NoError(t, err)
	require.Equal(t, "token-1", tok.AccessToken)
	require.Equal(t, "Bearer", tok.TokenType)

	require.NoError(t, store.Clear())
	_, err = ts.Token()
	require.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
}

func TestStore_RestorePurgesUndecodableSessionFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- a\n- b\n"), 0o600))
	storage, err := filestore.New(path)
	require.NoError(t, err)

	store := newStore(t, storage)
	_, ok := store.Restore()
	require.False(t, ok)
	requirePresenceInvariant(t, store)

	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err), "corrupt session file should be removed")

	// The next start finds nothing instead of the same corrupt file.
	_, ok = newStore(t, storage).Restore()
	require.False(t, ok)
}

// unreadableStorage fails every read with an I/O style error and records
// whether anything tried to change it.
type unreadableStorage struct {
	writes int
}

func (u *unreadableStorage) Get(string) (string, bool, error) {
	return "", false, errors.New("permission denied")
}

func (u *unreadableStorage) Set(string, string) error {
	u.writes++
	return nil
}

func (u *unreadableStorage) Remove(string) error {
	u.writes++
	return nil
}

func TestStore_RestoreKeepsStorageOnReadError(t *testing.T) {
	storage := &unreadableStorage{}
	store := newStore(t, storage)

	_, ok := store.Restore()
	require.False(t, ok)
	require.Zero(t, storage.writes)
}
