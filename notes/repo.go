package notes

import "context"

// Repo is the remote note collection of the signed in user's tenant.
// Ids are assigned by the remote side on Create.
type Repo interface {
	List(ctx context.Context) ([]Note, error)
	Create(ctx context.Context, title, content string) (*Note, error)
	Update(ctx context.Context, id, title, content string) (*Note, error)
	Delete(ctx context.Context, id string) error
}
