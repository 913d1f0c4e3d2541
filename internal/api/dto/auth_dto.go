package dto

import (
	"time"

	"github.com/perdeci/curtain-order-service/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	TenantName string `json:"tenant_name"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SelectTenantRequest payload for switching the session tenant.
type SelectTenantRequest struct {
	TenantID string `json:"tenant_id"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// PasswordResetRequest payload.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// ImpersonateRequest payload.
type ImpersonateRequest struct {
	TargetUserID string                    `json:"target_user_id"`
	Scope        domain.ImpersonationScope `json:"scope"`
}

// ImpersonationExchangeRequest payload.
type ImpersonationExchangeRequest struct {
	Token string `json:"token"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID                 string            `json:"id"`
	Email              string            `json:"email"`
	Name               string            `json:"name"`
	Role               domain.GlobalRole `json:"role"`
	IsActive           bool              `json:"is_active"`
	MustChangePassword bool              `json:"must_change_password"`
}

// SessionResponse pairs a user with a token and the selected tenant.
type SessionResponse struct {
	User           UserResponse              `json:"user"`
	Auth           AuthResponse              `json:"auth"`
	TenantID       string                    `json:"tenant_id,omitempty"`
	TenantRole     domain.TenantRole         `json:"tenant_role,omitempty"`
	ImpersonatorID string                    `json:"impersonator_id,omitempty"`
	Scope          domain.ImpersonationScope `json:"scope,omitempty"`
}

// ImpersonationResponse returns an impersonation grant.
type ImpersonationResponse struct {
	Token        string                    `json:"token"`
	ExpiresAt    time.Time                 `json:"expires_at"`
	TargetUserID string                    `json:"target_user_id"`
	Scope        domain.ImpersonationScope `json:"scope"`
}

// ImpersonationLogResponse is one audit entry.
type ImpersonationLogResponse struct {
	ID             string                    `json:"id"`
	TargetUserID   string                    `json:"target_user_id"`
	ImpersonatorID string                    `json:"impersonator_id"`
	Scope          domain.ImpersonationScope `json:"scope"`
	StartedAt      time.Time                 `json:"started_at"`
	EndedAt        *time.Time                `json:"ended_at,omitempty"`
}

// NewUserResponse maps a user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Name:               u.Name,
		Role:               u.Role,
		IsActive:           u.IsActive,
		MustChangePassword: u.MustChangePassword,
	}
}
