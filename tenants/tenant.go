package tenants

import "github.com/jrsteele09/go-notes-client/users"

// Tenant is the organization boundary all notes and members are scoped to.
type Tenant struct {
	ID   string         `json:"_id"`
	Slug string         `json:"slug"` // Name used in tenant scoped API paths
	Plan users.PlanType `json:"plan"`
}

// Member is a user listed in the tenant members view
type Member struct {
	ID       string         `json:"id"`
	Email    string         `json:"email"`
	Role     users.RoleType `json:"role"`
	TenantID string         `json:"tenantId"`
}

// InviteRequest is the body of an invitation
type InviteRequest struct {
	Email string         `json:"email"`
	Role  users.RoleType `json:"role"`
}

// InviteReceipt is what the API returns for an accepted invitation.
// Member is nil when the server only acknowledges the request.
type InviteReceipt struct {
	Message string  `json:"message,omitempty"`
	Member  *Member `json:"user,omitempty"`
}
