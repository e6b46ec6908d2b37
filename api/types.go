package api

import (
	"time"

	"github.com/jrsteele09/go-notes-client/notes"
	"github.com/jrsteele09/go-notes-client/tenants"
	"github.com/jrsteele09/go-notes-client/users"
)

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the success body of POST /auth/login. The user's tenant
// is nested under tenantId.
type LoginResponse struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type LoginUser struct {
	ID     string         `json:"id"`
	Email  string         `json:"email"`
	Role   users.RoleType `json:"role"`
	Tenant tenants.Tenant `json:"tenantId"`
}

// Flatten converts the nested login user into a session user.
func (u LoginUser) Flatten() users.User {
	return users.User{
		ID:         u.ID,
		Email:      u.Email,
		TenantID:   u.Tenant.ID,
		TenantName: u.Tenant.Slug,
		Role:       u.Role,
		Plan:       u.Tenant.Plan,
	}
}

// NoteBody is the body of POST /notes and PUT /notes/:id
type NoteBody struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// BackendNote is a note as returned by the API
type BackendNote struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	TenantID  string    `json:"tenantId"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Note converts to the client model, deriving the snippet.
func (b BackendNote) Note() notes.Note {
	return notes.New(b.ID, b.Title, b.Content, b.UpdatedAt)
}

// MembersResponse is the success body of GET /users
type MembersResponse struct {
	Users []tenants.Member `json:"users"`
}

// UpgradeResponse is the success body of POST /tenants/:tenantName/upgrade
type UpgradeResponse struct {
	Plan users.PlanType `json:"plan"`
}

// ErrorBody is the shape of non-success responses. Login and upgrade use
// message, invite uses error.
type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
