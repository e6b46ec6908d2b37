package auth

import (
	"context"

	"github.com/jrsteele09/go-notes-client/api"
	"github.com/jrsteele09/go-notes-client/tenants"
)

// Remote is the part of the remote API the gateway drives.
type Remote interface {
	Login(ctx context.Context, email, password string) (*api.LoginResponse, error)
	tenants.Repo
}
