package boltstore_test

import (
	"path/filepath"
	"testing"

	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/sessions/boltstore"
	"github.com/jrsteele09/go-notes-client/sessions/storagetest"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T, path string) *boltstore.BoltStore {
	t.Helper()
	bs, err := boltstore.Open(path)
	require.NoError(t, err)
	return bs
}

func TestBoltStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) sessions.Storage {
		bs := openStore(t, filepath.Join(t.TempDir(), "session.db"))
		t.Cleanup(func() { bs.Close() })
		return bs
	})
}

func TestBoltStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")

	bs := openStore(t, path)
	require.NoError(t, bs.Set(sessions.TokenKey, "token-1"))
	require.NoError(t, bs.Close())

	bs = openStore(t, path)
	defer bs.Close()
	v, ok, err := bs.Get(sessions.TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "token-1", v)
}
