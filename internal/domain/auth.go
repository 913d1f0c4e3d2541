package domain

import "time"

// TokenType differentiates access tokens from impersonation grants.
type TokenType string

const (
	TokenTypeAccess        TokenType = "access"
	TokenTypeImpersonation TokenType = "impersonation"
)

// Principal is the authenticated caller, passed explicitly to guards.
type Principal struct {
	UserID         string
	Email          string
	Role           GlobalRole
	TenantID       string
	TenantRole     TenantRole
	ImpersonatorID string
	Scope          ImpersonationScope
}

// IsSuperAdmin reports whether the principal has the global SUPERADMIN role.
func (p *Principal) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

// HasTenant reports whether a tenant is selected in the session.
func (p *Principal) HasTenant() bool {
	return p != nil && p.TenantID != ""
}

// IsImpersonating reports whether the session was issued through impersonation.
func (p *Principal) IsImpersonating() bool {
	return p != nil && p.ImpersonatorID != ""
}

// PasswordResetToken is a single-use password reset grant.
type PasswordResetToken struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}
