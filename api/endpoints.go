package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	apperrors "github.com/jrsteele09/go-notes-client/internal/errors"
	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
)

const (
	loginPath   = "/auth/login"
	notesPath   = "/notes"
	membersPath = "/users"
	tenantsPath = "/tenants"
)

var (
	_ notes.Repo   = (*NotesClient)(nil)
	_ tenants.Repo = (*Client)(nil)
)

// Login exchanges credentials for a bearer token. It is the only
// unauthenticated call.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	err := c.do(ctx, c.anon, call{
		op:         "login",
		method:     http.MethodPost,
		path:       loginPath,
		in:         LoginRequest{Email: email, Password: password},
		out:        &resp,
		defaultMsg: "Login failed",
	})
	if err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, &apperrors.RemoteError{Op: "login", StatusCode: http.StatusOK, Message: "Login failed: no token in response"}
	}
	return &resp, nil
}

// ListMembers lists the members of the caller's tenant.
func (c *Client) ListMembers(ctx context.Context) ([]tenants.Member, error) {
	var resp MembersResponse
	err := c.do(ctx, c.authed, call{
		op:         "list members",
		method:     http.MethodGet,
		path:       membersPath,
		out:        &resp,
		defaultMsg: "Failed to fetch users",
	})
	if err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// Invite asks the API to add email to tenantName with role.
func (c *Client) Invite(ctx context.Context, tenantName string, req tenants.InviteRequest) (*tenants.InviteReceipt, error) {
	var receipt tenants.InviteReceipt
	err := c.do(ctx, c.authed, call{
		op:         "invite user",
		method:     http.MethodPost,
		path:       tenantsPath + "/" + url.PathEscape(tenantName) + "/invite",
		in:         req,
		out:        &receipt,
		defaultMsg: "User invitation failed",
		errorFirst: true,
	})
	if err != nil {
		return nil, err
	}
	return &receipt, nil
}

// Upgrade moves tenantName to the pro plan and returns the plan reported by
// the API.
func (c *Client) Upgrade(ctx context.Context, tenantName string) (users.PlanType, error) {
	var resp UpgradeResponse
	err := c.do(ctx, c.authed, call{
		op:         "upgrade plan",
		method:     http.MethodPost,
		path:       tenantsPath + "/" + url.PathEscape(tenantName) + "/upgrade",
		out:        &resp,
		defaultMsg: "Plan upgrade failed",
	})
	if err != nil {
		return "", err
	}
	plan, err := users.ParsePlan(string(resp.Plan))
	if err != nil {
		return "", &apperrors.RemoteError{Op: "upgrade plan", StatusCode: http.StatusOK, Message: "Plan upgrade failed: " + err.Error()}
	}
	return plan, nil
}

// NotesClient is the notes.Repo backed by the API.
type NotesClient struct {
	c *Client
}

// Notes returns the note collection endpoints.
func (c *Client) Notes() *NotesClient {
	return &NotesClient{c: c}
}

func (n *NotesClient) List(ctx context.Context) ([]notes.Note, error) {
	var resp []BackendNote
	err := n.c.do(ctx, n.c.authed, call{
		op:         "list notes",
		method:     http.MethodGet,
		path:       notesPath,
		out:        &resp,
		defaultMsg: "Failed to fetch notes",
	})
	if err != nil {
		return nil, err
	}
	list := make([]notes.Note, 0, len(resp))
	for _, b := range resp {
		list = append(list, b.Note())
	}
	return list, nil
}

func (n *NotesClient) Create(ctx context.Context, title, content string) (*notes.Note, error) {
	var resp BackendNote
	err := n.c.do(ctx, n.c.authed, call{
		op:         "create note",
		method:     http.MethodPost,
		path:       notesPath,
		in:         NoteBody{Title: title, Content: content},
		out:        &resp,
		defaultMsg: "Failed to create note",
	})
	if err != nil {
		return nil, err
	}
	note := resp.Note()
	return &note, nil
}

func (n *NotesClient) Update(ctx context.Context, id, title, content string) (*notes.Note, error) {
	var resp BackendNote
	err := n.c.do(ctx, n.c.authed, call{
		op:         "update note",
		method:     http.MethodPut,
		path:       notesPath + "/" + url.PathEscape(id),
		in:         NoteBody{Title: title, Content: content},
		out:        &resp,
		defaultMsg: "Failed to update note",
	})
	if err != nil {
		return nil, err
	}
	if resp.ID == "" {
		// Server acknowledged without echoing the note.
		note := notes.New(id, title, content, time.Now())
		return &note, nil
	}
	note := resp.Note()
	return &note, nil
}

func (n *NotesClient) Delete(ctx context.Context, id string) error {
	return n.c.do(ctx, n.c.authed, call{
		op:         "delete note",
		method:     http.MethodDelete,
		path:       notesPath + "/" + url.PathEscape(id),
		defaultMsg: "Failed to delete note",
	})
}
