package ingestion_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/fakeuow"
	"github.com/guility/relrag/internal/ingestion"
	"github.com/guility/relrag/internal/permission"
	"github.com/guility/relrag/internal/relrag"
)

// countingEmbedder counts Embed calls so tests can assert the dedup fast
// path never reaches the embedding collaborator (S2).
type countingEmbedder struct {
	calls int
	dims  int
}

func (e *countingEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i := range texts {
		vec := make([]float32, e.dims)
		for j := range vec {
			vec[j] = float32(i + j)
		}
		out[i] = vec
	}
	return out, nil
}

type passthroughChunker struct{}

func (passthroughChunker) Chunk(text string, cfg relrag.Configuration) ([]string, error) {
	return []string{text}, nil
}

func setup(t *testing.T) (*fakeuow.Store, *ingestion.Service, uuid.UUID, *countingEmbedder) {
	store := fakeuow.New()
	checker := permission.New(store)

	roleID := store.SeedRole(relrag.RoleAdmin, []string{"read", "write", "delete", "admin", "migrate"})
	collID := uuid.New()
	cfgID := uuid.New()
	store.SeedConfiguration(relrag.Configuration{
		ID: cfgID, ChunkingStrategy: relrag.ChunkingRecursive,
		EmbeddingModel: "m", EmbeddingDimensions: 4, ChunkSize: 1000, ChunkOverlap: 0,
	})
	store.SeedCollection(relrag.Collection{ID: collID, ConfigurationID: cfgID})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	embedder := &countingEmbedder{dims: 4}
	svc := ingestion.New(store, checker, passthroughChunker{}, embedder)
	return store, svc, collID, embedder
}

func TestLoadDocument_Unauthorized(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	svc := ingestion.New(store, checker, passthroughChunker{}, &countingEmbedder{dims: 4})

	_, err := svc.LoadDocument(context.Background(), "nobody", ingestion.LoadDocumentInput{
		CollectionID: uuid.New(), Content: "hello",
	})
	require.Error(t, err)
	var denied *relrag.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestLoadDocument_CreatesDocumentPackChunks(t *testing.T) {
	store, svc, collID, embedder := setup(t)

	doc, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{
		CollectionID: collID,
		Content:      "This is a test document with enough text to be chunked.",
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, 1, embedder.calls)

	err = store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		page, err := uow.Packs().List(ctx, &doc.ID, nil, "", 10, false)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)

		chunks, err := uow.Chunks().GetByPackID(ctx, page.Items[0].ID)
		require.NoError(t, err)
		assert.Len(t, chunks, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestLoadDocument_DedupIdempotence(t *testing.T) {
	_, svc, collID, embedder := setup(t)
	content := "Repeated content for dedup idempotence."

	first, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{CollectionID: collID, Content: content})
	require.NoError(t, err)

	second, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{CollectionID: collID, Content: content})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.SourceHash, second.SourceHash)
	assert.Equal(t, 1, embedder.calls, "dedup fast path must not call the embedder a second time")
}

func TestLoadDocument_CrossCollectionDedup(t *testing.T) {
	store, svc, collA, _ := setup(t)
	roleID := store.SeedRole("editor2", []string{"read", "write"})
	collB := uuid.New()
	cfgID := uuid.New()
	store.SeedConfiguration(relrag.Configuration{
		ID: cfgID, ChunkingStrategy: relrag.ChunkingRecursive,
		EmbeddingModel: "m", EmbeddingDimensions: 4, ChunkSize: 1000,
	})
	store.SeedCollection(relrag.Collection{ID: collB, ConfigurationID: cfgID})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collB, Subject: "user-1", RoleID: roleID})

	content := "Shared content across two collections."
	first, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{CollectionID: collA, Content: content})
	require.NoError(t, err)
	second, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{CollectionID: collB, Content: content})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
}

func TestLoadDocument_MissingConfigurationIsValidationError(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	roleID := store.SeedRole(relrag.RoleAdmin, []string{"write"})
	collID := uuid.New()
	store.SeedCollection(relrag.Collection{ID: collID, ConfigurationID: uuid.New()})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	svc := ingestion.New(store, checker, passthroughChunker{}, &countingEmbedder{dims: 4})
	_, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{CollectionID: collID, Content: "x"})
	require.Error(t, err)
	var validation *relrag.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestLoadDocument_ChunkPositionsAreDense(t *testing.T) {
	store, svc, collID, _ := setup(t)
	doc, err := svc.LoadDocument(context.Background(), "user-1", ingestion.LoadDocumentInput{
		CollectionID: collID, Content: "first chunk second chunk",
	})
	require.NoError(t, err)

	err = store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		page, err := uow.Packs().List(ctx, &doc.ID, nil, "", 1, false)
		require.NoError(t, err)
		require.Len(t, page.Items, 1)

		chunks, err := uow.Chunks().GetByPackID(ctx, page.Items[0].ID)
		require.NoError(t, err)
		for i, c := range chunks {
			assert.Equal(t, i, c.Position)
		}
		return nil
	})
	require.NoError(t, err)
}
