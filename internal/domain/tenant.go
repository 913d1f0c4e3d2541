package domain

import "time"

// Tenant is an isolated customer workspace.
type Tenant struct {
	ID        string
	Name      string
	CreatedBy *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Branch is a store location of a tenant. Every tenant has one default branch.
type Branch struct {
	ID        string
	TenantID  string
	Name      string
	IsDefault bool
	CreatedAt time.Time
}

// DefaultBranchName is used for the branch created alongside a tenant.
const DefaultBranchName = "Main"
