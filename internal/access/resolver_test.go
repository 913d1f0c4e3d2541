package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perdeci/curtain-order-service/internal/domain"
	"github.com/perdeci/curtain-order-service/internal/repository"
	"github.com/perdeci/curtain-order-service/internal/repository/memory"
	apperrors "github.com/perdeci/curtain-order-service/pkg/util/errorutil"
)

const trial = 14 * 24 * time.Hour

func createUser(t *testing.T, store *memory.Store, email string, role domain.GlobalRole) *domain.User {
	t.Helper()
	u := &domain.User{Email: email, Name: email, Role: role, IsActive: true}
	require.NoError(t, store.Repos().Users.Create(context.Background(), u))
	return u
}

func provision(t *testing.T, store *memory.Store, ownerID, name string, now time.Time) *domain.Tenant {
	t.Helper()
	var tenant *domain.Tenant
	err := store.WithinTx(context.Background(), func(ctx context.Context, repos repository.Repositories) error {
		var err error
		tenant, err = ProvisionTenant(ctx, repos, ProvisionParams{Name: name, OwnerID: ownerID, Now: now, Trial: trial})
		return err
	})
	require.NoError(t, err)
	return tenant
}

func TestResolveTenantID_SelectedTenantWins(t *testing.T) {
	store := memory.New()
	r := NewResolver(store, trial, nil, nil)

	id, err := r.ResolveTenantID(context.Background(), &domain.Principal{UserID: "u1", TenantID: "t9"})
	require.NoError(t, err)
	assert.Equal(t, "t9", id)
}

func TestResolveTenantID_Anonymous(t *testing.T) {
	r := NewResolver(memory.New(), trial, nil, nil)
	_, err := r.ResolveTenantID(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrUnauthenticated)
}

func TestResolveTenantID_OldestMembership(t *testing.T) {
	store := memory.New()
	now := time.Now().UTC()
	owner := createUser(t, store, "owner@example.com", domain.RoleUser)
	first := provision(t, store, owner.ID, "First", now)
	provision(t, store, owner.ID, "Second", now)

	r := NewResolver(store, trial, nil, nil)
	id, err := r.ResolveTenantID(context.Background(), &domain.Principal{UserID: owner.ID, Role: domain.RoleUser})
	require.NoError(t, err)
	assert.Equal(t, first.ID, id)
}

func TestResolveTenantID_NoMembership(t *testing.T) {
	store := memory.New()
	user := createUser(t, store, "lonely@example.com", domain.RoleUser)

	r := NewResolver(store, trial, nil, nil)
	_, err := r.ResolveTenantID(context.Background(), &domain.Principal{UserID: user.ID, Role: domain.RoleUser})
	assert.ErrorIs(t, err, apperrors.ErrNoTenant)
}

func TestResolveTenantID_SuperAdminProvisionsFirstTenant(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	admin := createUser(t, store, "root@example.com", domain.RoleSuperAdmin)

	r := NewResolver(store, trial, nil, func() time.Time { return now })
	p := &domain.Principal{UserID: admin.ID, Role: domain.RoleSuperAdmin}
	id, err := r.ResolveTenantID(ctx, p)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	repos := store.Repos()
	tenant, err := repos.Tenants.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultTenantName, tenant.Name)

	m, err := repos.Memberships.Get(ctx, admin.ID, id)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantRoleOwner, m.Role)

	branch, err := repos.Tenants.DefaultBranch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultBranchName, branch.Name)

	sub, err := repos.Subscriptions.GetByTenant(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, domain.PlanFree, sub.Plan)
	assert.Equal(t, domain.StatusTrialing, sub.Status)
	require.NotNil(t, sub.TrialEndsAt)
	assert.Equal(t, now.Add(trial), *sub.TrialEndsAt)

	again, err := r.ResolveTenantID(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, id, again)

	overview, err := repos.Tenants.ListOverview(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, overview, 1)
}

func TestResolveTenantID_SuperAdminAttachesToOldestTenant(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	owner := createUser(t, store, "owner@example.com", domain.RoleUser)
	oldest := provision(t, store, owner.ID, "Oldest", time.Now())
	provision(t, store, owner.ID, "Newer", time.Now())
	admin := createUser(t, store, "root@example.com", domain.RoleSuperAdmin)

	r := NewResolver(store, trial, nil, nil)
	id, err := r.ResolveTenantID(ctx, &domain.Principal{UserID: admin.ID, Role: domain.RoleSuperAdmin})
	require.NoError(t, err)
	assert.Equal(t, oldest.ID, id)

	m, err := store.Repos().Memberships.Get(ctx, admin.ID, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TenantRoleOwner, m.Role)

	count, err := store.Repos().Memberships.CountForTenant(ctx, oldest.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}
