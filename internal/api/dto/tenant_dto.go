package dto

import (
	"time"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// CreateTenantRequest payload.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// InviteMemberRequest payload.
type InviteMemberRequest struct {
	Email string            `json:"email"`
	Name  string            `json:"name"`
	Role  domain.TenantRole `json:"role"`
}

// ChangeRoleRequest payload.
type ChangeRoleRequest struct {
	Role domain.TenantRole `json:"role"`
}

// TenantResponse is the public view of a tenant.
type TenantResponse struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Role      domain.TenantRole `json:"role,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
}

// TenantOverviewResponse is a tenant with its subscription for admins.
type TenantOverviewResponse struct {
	TenantResponse
	MemberCount  int                   `json:"member_count"`
	Subscription *SubscriptionResponse `json:"subscription,omitempty"`
}

// MemberResponse is one tenant member.
type MemberResponse struct {
	UserID    string            `json:"user_id"`
	TenantID  string            `json:"tenant_id"`
	Email     string            `json:"email,omitempty"`
	Name      string            `json:"name,omitempty"`
	Role      domain.TenantRole `json:"role"`
	IsActive  bool              `json:"is_active"`
	CreatedAt time.Time         `json:"created_at"`
}

// NewTenantResponse maps a tenant.
func NewTenantResponse(t domain.Tenant, role domain.TenantRole) TenantResponse {
	return TenantResponse{ID: t.ID, Name: t.Name, Role: role, CreatedAt: t.CreatedAt}
}

// NewMemberResponse maps a member view.
func NewMemberResponse(v domain.MemberView) MemberResponse {
	return MemberResponse{
		UserID:    v.UserID,
		TenantID:  v.TenantID,
		Email:     v.Email,
		Name:      v.Name,
		Role:      v.Role,
		IsActive:  v.IsActive,
		CreatedAt: v.CreatedAt,
	}
}
