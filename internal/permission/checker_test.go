package permission_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/fakeuow"
	"github.com/guility/relrag/internal/permission"
	"github.com/guility/relrag/internal/relrag"
)

func TestCheck_NoPermissionRowReturnsFalse(t *testing.T) {
	uow := fakeuow.New()
	checker := permission.New(uow)

	allowed, err := checker.Check(context.Background(), "user-1", uuid.New(), relrag.ActionRead)
	require.NoError(t, err)
	assert.False(t, allowed)
}

func TestCheck_OverrideWins(t *testing.T) {
	uow := fakeuow.New()
	collID := uuid.New()
	roleID := uow.SeedRole("viewer", []string{"read"})
	uow.SeedPermission(relrag.Permission{
		ID: uuid.New(), CollectionID: collID, Subject: "user-1",
		RoleID: roleID, ActionsOverride: []string{"write"},
	})

	checker := permission.New(uow)
	allowed, err := checker.Check(context.Background(), "user-1", collID, relrag.ActionWrite)
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = checker.Check(context.Background(), "user-1", collID, relrag.ActionRead)
	require.NoError(t, err)
	assert.False(t, allowed, "override replaces, not extends, the role's action set")
}

func TestCheck_FallsBackToRoleActions(t *testing.T) {
	uow := fakeuow.New()
	collID := uuid.New()
	roleID := uow.SeedRole("admin", []string{"read", "write", "delete", "admin", "migrate"})
	uow.SeedPermission(relrag.Permission{
		ID: uuid.New(), CollectionID: collID, Subject: "user-2", RoleID: roleID,
	})

	checker := permission.New(uow)
	allowed, err := checker.Check(context.Background(), "user-2", collID, relrag.ActionMigrate)
	require.NoError(t, err)
	assert.True(t, allowed)
}
