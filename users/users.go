package users

import (
	"fmt"
	"strings"
)

// RoleType is a user's role within their tenant
type RoleType string

const (
	RoleAdmin  RoleType = "admin"  // Can invite members and change the tenant plan
	RoleMember RoleType = "member" // Regular tenant member
)

// PlanType is the subscription tier of a tenant
type PlanType string

const (
	PlanFree PlanType = "free" // Quota limited
	PlanPro  PlanType = "pro"  // Unlimited notes
)

// User is the signed in identity, flattened with the tenant it belongs to.
type User struct {
	ID         string   `json:"id"`
	Email      string   `json:"email"`
	TenantID   string   `json:"tenantId"`
	TenantName string   `json:"tenantName"` // Tenant slug, used in tenant scoped API paths
	Role       RoleType `json:"role"`
	Plan       PlanType `json:"plan"`
}

// ParseRole validates a role string
func ParseRole(role string) (RoleType, error) {
	switch r := RoleType(strings.ToLower(strings.TrimSpace(role))); r {
	case RoleAdmin, RoleMember:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role %q", role)
	}
}

// ParsePlan validates a plan string
func ParsePlan(plan string) (PlanType, error) {
	switch p := PlanType(strings.ToLower(strings.TrimSpace(plan))); p {
	case PlanFree, PlanPro:
		return p, nil
	default:
		return "", fmt.Errorf("unknown plan %q", plan)
	}
}

func (r RoleType) Valid() bool {
	return r == RoleAdmin || r == RoleMember
}

func (p PlanType) Valid() bool {
	return p == PlanFree || p == PlanPro
}

// IsAdmin returns true if the user administers their tenant
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// IsFree returns true while the tenant is on the quota limited plan
func (u *User) IsFree() bool {
	return u != nil && u.Plan == PlanFree
}

// Validate reports whether the user carries everything a session needs.
func (u *User) Validate() error {
	switch {
	case u == nil:
		return fmt.Errorf("user is nil")
	case u.ID == "":
		return fmt.Errorf("user id is empty")
	case u.TenantName == "":
		return fmt.Errorf("user %s has no tenant", u.ID)
	case !u.Role.Valid():
		return fmt.Errorf("user %s has unknown role %q", u.ID, u.Role)
	case !u.Plan.Valid():
		return fmt.Errorf("user %s has unknown plan %q", u.ID, u.Plan)
	}
	return nil
}
