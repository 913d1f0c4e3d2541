package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGlobalRoleOutranks(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Outranks(RoleAdmin))
	assert.True(t, RoleAdmin.Outranks(RoleUser))
	assert.False(t, RoleAdmin.Outranks(RoleAdmin))
	assert.False(t, RoleAdmin.Outranks(RoleSuperAdmin))
	assert.False(t, RoleUser.Outranks(RoleAdmin))
}
