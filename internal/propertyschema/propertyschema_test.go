package propertyschema_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/fakeuow"
	"github.com/guility/relrag/internal/permission"
	"github.com/guility/relrag/internal/propertyschema"
	"github.com/guility/relrag/internal/relrag"
)

func TestListSchema_Unauthorized(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	svc := propertyschema.New(store, checker)

	_, err := svc.ListSchema(context.Background(), "nobody", uuid.New())
	require.Error(t, err)
	var denied *relrag.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestListSchema_ReturnsDistinctKeysAndValues(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	collID := uuid.New()
	store.SeedCollection(relrag.Collection{ID: collID})
	roleID := store.SeedRole(relrag.RoleViewer, []string{"read"})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	docID := uuid.New()
	packID := uuid.New()
	err := store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		if _, err := uow.Documents().Create(ctx, relrag.Document{ID: docID, Content: "x"}); err != nil {
			return err
		}
		if _, err := uow.Packs().Create(ctx, relrag.Pack{ID: packID, DocumentID: docID}); err != nil {
			return err
		}
		if err := uow.Packs().AddToCollection(ctx, packID, collID); err != nil {
			return err
		}
		return uow.Properties().CreateBatch(ctx, []relrag.Property{
			{DocumentID: docID, Key: "status", Value: "open", Type: relrag.PropertyString},
		})
	})
	require.NoError(t, err)

	svc := propertyschema.New(store, checker)
	items, err := svc.ListSchema(context.Background(), "user-1", collID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "status", items[0].Key)
	assert.Equal(t, []string{"open"}, items[0].Values)
}

func TestLabel_FallsBackToKey(t *testing.T) {
	assert.Equal(t, "Author", propertyschema.Label("author"))
	assert.Equal(t, "custom_key", propertyschema.Label("custom_key"))
}
