package domain

import "time"

// GlobalRole is the platform-wide role of a user.
type GlobalRole string

const (
	RoleUser       GlobalRole = "USER"
	RoleAdmin      GlobalRole = "ADMIN"
	RoleSuperAdmin GlobalRole = "SUPERADMIN"
)

// Valid reports whether r is a known role.
func (r GlobalRole) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

func (r GlobalRole) rank() int {
	switch r {
	case RoleSuperAdmin:
		return 2
	case RoleAdmin:
		return 1
	}
	return 0
}

// Outranks reports whether r carries strictly more privilege than other.
func (r GlobalRole) Outranks(other GlobalRole) bool {
	return r.rank() > other.rank()
}

// User is an identity record. Users are deactivated, never hard-deleted.
type User struct {
	ID                 string
	Email              string
	Name               string
	PasswordHash       string
	Role               GlobalRole
	IsActive           bool
	MustChangePassword bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// CanImpersonate reports whether the user may mint impersonation tokens.
func (u *User) CanImpersonate() bool {
	return u != nil && (u.Role == RoleAdmin || u.Role == RoleSuperAdmin)
}
