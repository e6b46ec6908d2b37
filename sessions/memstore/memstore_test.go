package memstore_test

import (
	"testing"

	"github.com/jrsteele09/go-notes-client/sessions"
	"github.com/jrsteele09/go-notes-client/sessions/memstore"
	"github.com/jrsteele09/go-notes-client/sessions/storagetest"
)

func TestMemStore(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) sessions.Storage {
		return memstore.New()
	})
}
