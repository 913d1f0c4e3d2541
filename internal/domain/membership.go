package domain

import "time"

// TenantRole is a user's role inside one tenant.
type TenantRole string

const (
	TenantRoleOwner  TenantRole = "OWNER"
	TenantRoleAdmin  TenantRole = "ADMIN"
	TenantRoleMember TenantRole = "MEMBER"
)

// Valid reports whether r is a known tenant role.
func (r TenantRole) Valid() bool {
	switch r {
	case TenantRoleOwner, TenantRoleAdmin, TenantRoleMember:
		return true
	}
	return false
}

// IsAdmin reports whether the role may administer the tenant.
func (r TenantRole) IsAdmin() bool {
	return r == TenantRoleOwner || r == TenantRoleAdmin
}

// Membership binds a user to a tenant. Unique per (user, tenant).
type Membership struct {
	ID        string
	UserID    string
	TenantID  string
	Role      TenantRole
	CreatedAt time.Time
}

// MemberView is a membership joined with its user for listings.
type MemberView struct {
	Membership
	Email    string
	Name     string
	IsActive bool
}
