package tenants

import (
	"context"

	"github.com/jrsteele09/go-notes-client/users"
)

// Repo is the remote side of the tenant operations. Implementations attach
// the caller's credentials; the server re-validates roles.
type Repo interface {
	ListMembers(ctx context.Context) ([]Member, error)
	Invite(ctx context.Context, tenantName string, req InviteRequest) (*InviteReceipt, error)
	Upgrade(ctx context.Context, tenantName string) (users.PlanType, error)
}
