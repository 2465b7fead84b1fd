package search_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guility/relrag/internal/fakeuow"
	"github.com/guility/relrag/internal/permission"
	"github.com/guility/relrag/internal/relrag"
	"github.com/guility/relrag/internal/search"
)

type fakeEmbedder struct{ vector []float32 }

func (f fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func seedSearchable(t *testing.T, store *fakeuow.Store, content string, props map[string]relrag.Property) (uuid.UUID, uuid.UUID) {
	collID := uuid.New()
	cfgID := uuid.New()
	store.SeedConfiguration(relrag.Configuration{ID: cfgID, EmbeddingDimensions: 3})
	store.SeedCollection(relrag.Collection{ID: collID, ConfigurationID: cfgID})

	docID := uuid.New()
	packID := uuid.New()
	chunkID := uuid.New()

	err := store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		doc := relrag.Document{ID: docID, Content: content}
		if _, err := uow.Documents().Create(ctx, doc); err != nil {
			return err
		}
		pack := relrag.Pack{ID: packID, DocumentID: docID}
		if _, err := uow.Packs().Create(ctx, pack); err != nil {
			return err
		}
		if err := uow.Packs().AddToCollection(ctx, packID, collID); err != nil {
			return err
		}
		chunk := relrag.Chunk{ID: chunkID, PackID: packID, Content: content, Embedding: []float32{1, 0, 0}, Position: 0}
		_, err := uow.Chunks().CreateBatch(ctx, []relrag.Chunk{chunk})
		if err != nil {
			return err
		}
		if len(props) > 0 {
			batch := make([]relrag.Property, 0, len(props))
			for _, p := range props {
				p.DocumentID = docID
				batch = append(batch, p)
			}
			return uow.Properties().CreateBatch(ctx, batch)
		}
		return nil
	})
	require.NoError(t, err)
	return collID, docID
}

func TestHybridSearch_Unauthorized(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	svc := search.New(store, checker, fakeEmbedder{vector: []float32{1, 0, 0}})

	_, err := svc.HybridSearch(context.Background(), "nobody", search.Input{CollectionID: uuid.New(), Query: "test"})
	require.Error(t, err)
	var denied *relrag.PermissionDeniedError
	assert.ErrorAs(t, err, &denied)
}

func TestHybridSearch_ReturnsMatchingChunk(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	collID, _ := seedSearchable(t, store, "test document content", nil)
	roleID := store.SeedRole(relrag.RoleViewer, []string{"read"})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	svc := search.New(store, checker, fakeEmbedder{vector: []float32{1, 0, 0}})
	results, err := svc.HybridSearch(context.Background(), "user-1", search.Input{CollectionID: collID, Query: "test", Limit: 10})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "test document content", results[0].Content)
	assert.NotEqual(t, uuid.Nil, results[0].ChunkID)
	assert.NotEqual(t, uuid.Nil, results[0].PackID)
}

func TestHybridSearch_PropertyFilterEq(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	collID, _ := seedSearchable(t, store, "open ticket", map[string]relrag.Property{
		"status": {Key: "status", Value: "open", Type: relrag.PropertyString},
	})
	_, closedDocID := seedSearchable(t, store, "closed ticket", map[string]relrag.Property{
		"status": {Key: "status", Value: "closed", Type: relrag.PropertyString},
	})
	err := store.Run(context.Background(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		page, err := uow.Packs().List(ctx, &closedDocID, nil, "", 1, false)
		if err != nil {
			return err
		}
		return uow.Packs().AddToCollection(ctx, page.Items[0].ID, collID)
	})
	require.NoError(t, err)
	roleID := store.SeedRole(relrag.RoleViewer, []string{"read"})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	svc := search.New(store, checker, fakeEmbedder{vector: []float32{1, 0, 0}})
	results, err := svc.HybridSearch(context.Background(), "user-1", search.Input{
		CollectionID: collID, Query: "ticket", Limit: 10,
		Filters: map[string]relrag.PropertyFilter{"status": relrag.NewEqFilter("open")},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "open ticket", results[0].Content)
}

func TestHybridSearch_EmptyOneOfIgnoresFilter(t *testing.T) {
	store := fakeuow.New()
	checker := permission.New(store)
	collID, _ := seedSearchable(t, store, "open ticket", map[string]relrag.Property{
		"status": {Key: "status", Value: "open", Type: relrag.PropertyString},
	})
	roleID := store.SeedRole(relrag.RoleViewer, []string{"read"})
	store.SeedPermission(relrag.Permission{ID: uuid.New(), CollectionID: collID, Subject: "user-1", RoleID: roleID})

	svc := search.New(store, checker, fakeEmbedder{vector: []float32{1, 0, 0}})
	results, err := svc.HybridSearch(context.Background(), "user-1", search.Input{
		CollectionID: collID, Query: "ticket", Limit: 10,
		Filters: map[string]relrag.PropertyFilter{"status": relrag.NewOneOfFilter(nil)},
	})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
