package migration_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/fakeuow"
	"github.com/guility/relrag/internal/migration"
	"github.com/guility/relrag/internal/permission"
	"github.com/guility/relrag/internal/relrag"
)

type fakeEmbedder struct{ dims int }

func (f fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, f.dims)
	}
	return out, nil
}

type splittingChunker struct{ parts int }

// Chunk ignores cfg and always splits text into a fixed number of parts, so
// tests can observe a change in chunk cardinality across a migration.
func (c splittingChunker) Chunk(text string, cfg relrag.Configuration) ([]string, error) {
	out := make([]string, c.parts)
	for i := range out {
		out[i] = text
	}
	return out, nil
}

func seedMigratable(t *testing.T, store *fakeuow.Store, oldDims, newDims int) (uuid.UUID, uuid.UUID, uuid.UUID) {
	oldCfgID := uuid.New()
	newCfgID := uuid.New()
	collID := uuid.New()
	store.SeedConfiguration(relrag.Configuration{ID: oldCfgID, EmbeddingDimensions: oldDims})
	store.SeedConfiguration(relrag.Configuration{ID: newCfgID, EmbeddingDimensions: newDims})
	store.SeedCollection(relrag.Collection{ID: collID, ConfigurationID: oldCfgID})

	docID := uuid.New()
	packID := uuid.New()
	err := store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		if _, err := uow.Documents().Create(ctx, relrag.Document{ID: docID, Content: "migratable content"}); err != nil {
			return err
		}
		if _, err := uow.Packs().Create(ctx, relrag.Pack{ID: packID, DocumentID: docID}); err != nil {
			return err
		}
		if err := uow.Packs().AddToCollection(ctx, packID, collID); err != nil {
			return err
		}
		_, err := uow.Chunks().CreateBatch(ctx, []relrag.Chunk{
			{ID: uuid.New(), PackID: packID, Content: "migratable content", Embedding: []float32{1, 0}, Position: 0},
		})
		return err
	})
	require.NoError(t, err)
	return collID, newCfgID, packID
}

func TestMigrateCollection_Unauthorized(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	svc := migration.New(store, checker, splittingChunker{parts: 1}, fakeEmbedder{dims: 2})

	_, err := svc.MigrateCollection(context.Background(), "nobody", uuid.New(), uuid.New())
	require.Error(t, err)
	var denied *relrag.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestMigrateCollection_MissingNewConfigurationIsNotFound(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	roleID := store.SeedRole(relrag.RoleAdmin, []string{"migrate"})
	collID, _, _ := seedMigratable(t, store, 2, 3)
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	svc := migration.New(store, checker, splittingChunker{parts: 1}, fakeEmbedder{dims: 2})
	_, err := svc.MigrateCollection(context.Background(), "user-1", collID, uuid.New())
	require.Error(t, err)
	var notFound *relrag.NotFoundError
	assert.ErrorAs(t, err, &notFound)
}

func TestMigrateCollection_RechunksAndUpdatesConfiguration(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	roleID := store.SeedRole(relrag.RoleAdmin, []string{"migrate"})
	collID, newCfgID, packID := seedMigratable(t, store, 2, 3)
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	svc := migration.New(store, checker, splittingChunker{parts: 3}, fakeEmbedder{dims: 3})
	migrated, err := svc.MigrateCollection(context.Background(), "user-1", collID, newCfgID)
	require.NoError(t, err)
	assert.Equal(t, 1, migrated)

	err = store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		chunks, err := uow.Chunks().GetByPackID(ctx, packID)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		for i, c := range chunks {
			assert.Equal(t, i, c.Position)
			assert.Len(t, c.Embedding, 3)
		}

		coll, err := uow.Collections().GetByID(ctx, collID, false)
		require.NoError(t, err)
		assert.Equal(t, newCfgID, coll.ConfigurationID)
		return nil
	})
	require.NoError(t, err)
}

func TestMigrateCollection_SkipsDocumentsWithEmptyContent(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	roleID := store.SeedRole(relrag.RoleAdmin, []string{"migrate"})

	oldCfgID := uuid.New()
	newCfgID := uuid.New()
	collID := uuid.New()
	store.SeedConfiguration(relrag.Configuration{ID: oldCfgID, EmbeddingDimensions: 2})
	store.SeedConfiguration(relrag.Configuration{ID: newCfgID, EmbeddingDimensions: 2})
	store.SeedCollection(relrag.Collection{ID: collID, ConfigurationID: oldCfgID})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	docID := uuid.New()
	packID := uuid.New()
	err := store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		if _, err := uow.Documents().Create(ctx, relrag.Document{ID: docID, Content: ""}); err != nil {
			return err
		}
		if _, err := uow.Packs().Create(ctx, relrag.Pack{ID: packID, DocumentID: docID}); err != nil {
			return err
		}
		return uow.Packs().AddToCollection(ctx, packID, collID)
	})
	require.NoError(t, err)

	svc := migration.New(store, checker, splittingChunker{parts: 3}, fakeEmbedder{dims: 2})
	migrated, err := svc.MigrateCollection(context.Background(), "user-1", collID, newCfgID)
	require.NoError(t, err)
	assert.Equal(t, 0, migrated, "documents with empty content must be skipped, not re-chunked")
}
