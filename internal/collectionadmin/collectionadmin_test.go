package collectionadmin_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/collectionadmin"
	"github.com/guility/relrag/internal/fakeuow"
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

func TestCreateConfiguration_RejectsUnknownStrategy(t *testing.T) {
	store := fakeuow.New()
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	_, err := svc.CreateConfiguration(context.Background(), collectionadmin.CreateConfigurationInput{
		ChunkingStrategy: "nonsense",
		EmbeddingModel:   "text-embedding-3-small",
		ChunkSize:        500,
	})
	var validationErr *relrag.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateConfiguration_DefaultsStrategyToRecursive(t *testing.T) {
	store := fakeuow.New()
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	cfg, err := svc.CreateConfiguration(context.Background(), collectionadmin.CreateConfigurationInput{
		EmbeddingModel: "text-embedding-3-small",
		ChunkSize:      500,
		ChunkOverlap:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, relrag.ChunkingRecursive, cfg.ChunkingStrategy)
	assert.NotEqual(t, uuid.Nil, cfg.ID)
}

func TestCreateConfiguration_RejectsOverlapNotSmallerThanChunkSize(t *testing.T) {
	store := fakeuow.New()
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	_, err := svc.CreateConfiguration(context.Background(), collectionadmin.CreateConfigurationInput{
		EmbeddingModel: "text-embedding-3-small",
		ChunkSize:      100,
		ChunkOverlap:   100,
	})
	var validationErr *relrag.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateConfiguration_SetsEmbeddingDimensionsFromProbe(t *testing.T) {
	store := fakeuow.New()
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	cfg, err := svc.CreateConfiguration(context.Background(), collectionadmin.CreateConfigurationInput{
		EmbeddingModel: "text-embedding-3-small",
		ChunkSize:      500,
		ChunkOverlap:   50,
	})
	require.NoError(t, err)
	assert.Equal(t, 1536, cfg.EmbeddingDimensions)
}

func TestCreateConfiguration_RejectsMismatchedEmbeddingDimensions(t *testing.T) {
	store := fakeuow.New()
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	_, err := svc.CreateConfiguration(context.Background(), collectionadmin.CreateConfigurationInput{
		EmbeddingModel:      "text-embedding-3-small",
		EmbeddingDimensions: 768,
		ChunkSize:           500,
		ChunkOverlap:        50,
	})
	var validationErr *relrag.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestCreateCollection_MissingConfigurationIsNotFound(t *testing.T) {
	store := fakeuow.New()
	store.SeedRole(relrag.RoleAdmin, []string{"read", "write", "delete", "admin", "migrate"})
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	_, err := svc.CreateCollection(context.Background(), "alice", collectionadmin.CreateCollectionInput{
		ConfigurationID: uuid.New(),
	})
	var notFound *relrag.NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestCreateCollection_GrantsCreatorAdmin(t *testing.T) {
	store := fakeuow.New()
	store.SeedRole(relrag.RoleAdmin, []string{"read", "write", "delete", "admin", "migrate"})
	cfgID := uuid.New()
	store.SeedConfiguration(relrag.Configuration{ID: cfgID})
	svc := collectionadmin.New(store, fakeEmbedder{dims: 1536})

	coll, err := svc.CreateCollection(context.Background(), "alice", collectionadmin.CreateCollectionInput{
		ConfigurationID: cfgID,
		Name:            "docs",
	})
	require.NoError(t, err)

	var perm *relrag.Permission
	err = store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		perm, err = uow.Permissions().GetForCollection(ctx, coll.ID, "alice")
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, perm)
	assert.Equal(t, "alice", perm.Subject)
}
