// Package storagetest holds the behaviour every sessions.Storage must share.
package storagetest

import (
	"testing"

	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/stretchr/testify/require"
)

// Run exercises a fresh storage returned by newStorage.
func Run(t *testing.T, newStorage func(t *testing.T) sessions.Storage) {
	t.Helper()

	t.Run("missing key", func(t *testing.T) {
		s := newStorage(t)
		_, ok, err := s.Get(sessions.UserKey)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("set then get", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Set(sessions.TokenKey, "token-1"))
		require.NoError(t, s.Set(sessions.UserKey, `{"id":"u1"}`))

		v, ok, err := s.Get(sessions.TokenKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "token-1", v)

		v, ok, err = s.Get(sessions.UserKey)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, `{"id":"u1"}`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Set(sessions.TokenKey, "old"))
		require.NoError(t, s.Set(sessions.TokenKey, "new"))
		v, _, err := s.Get(sessions.TokenKey)
		require.NoError(t, err)
		require.Equal(t, "new", v)
	})

	t.Run("remove", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Set(sessions.TokenKey, "token-1"))
		require.NoError(t, s.Set(sessions.UserKey, "user"))
		require.NoError(t, s.Remove(sessions.TokenKey))

		_, ok, err := s.Get(sessions.TokenKey)
		require.NoError(t, err)
		require.False(t, ok)

		_, ok, err = s.Get(sessions.UserKey)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("remove missing key", func(t *testing.T) {
		s := newStorage(t)
		require.NoError(t, s.Remove(sessions.UserKey))
	})
}
