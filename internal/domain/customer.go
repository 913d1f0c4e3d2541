package domain

import "time"

// Customer is a retail client of a tenant.
type Customer struct {
	ID        string
	TenantID  string
	BranchID  *string
	Name      string
	Phone     string
	Email     string
	Address   string
	Notes     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
