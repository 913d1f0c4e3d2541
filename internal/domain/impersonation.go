package domain

import "time"

// ImpersonationScope limits what an impersonated session reaches.
type ImpersonationScope string

const (
	ScopeTenant ImpersonationScope = "tenant"
	ScopeGlobal ImpersonationScope = "global"
)

// Valid reports whether s is a known scope.
func (s ImpersonationScope) Valid() bool {
	return s == ScopeTenant || s == ScopeGlobal
}

// ImpersonationLog is the audit trail of an impersonation session.
type ImpersonationLog struct {
	ID             string
	TargetUserID   string
	ImpersonatorID string
	Scope          ImpersonationScope
	StartedAt      time.Time
	EndedAt        *time.Time
}
