// Package migration implements the MigrateCollection use case (§4.I),
// ported one-to-one from original_source's MigrateCollectionUseCase:
// re-chunk and re-embed every Pack of a Collection under a new
// Configuration, inside one UnitOfWork.
package migration

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

// maxPacksPerMigration matches original_source's migrate_collection.py
// literal limit=10000 pack fetch; see DESIGN.md for the large-collection
// open-question decision this preserves.
const maxPacksPerMigration = 10000

// Service runs collection migration.
type Service struct {
	uow        relrag.UnitOfWorkRunner
	permission relrag.PermissionChecker
	chunker    relrag.Chunker
	embedder   relrag.EmbeddingProvider
}

// New builds a Service wired to its collaborators.
func New(uow relrag.UnitOfWorkRunner, perm relrag.PermissionChecker, chunker relrag.Chunker, embedder relrag.EmbeddingProvider) *Service {
	return &Service{uow: uow, permission: perm, chunker: chunker, embedder: embedder}
}

// MigrateCollection implements §4.I and returns the count of migrated
// Packs. If the UoW rolls back, none of the re-chunking takes effect.
func (s *Service) MigrateCollection(ctx context.Context, subject string, collectionID, newConfigurationID uuid.UUID) (int, error) {
	allowed, err := s.permission.Check(ctx, subject, collectionID, relrag.ActionMigrate)
	if err != nil {
		return 0, err
	}
	if !allowed {
		return 0, &relrag.PermissionDeniedError{Action: string(relrag.ActionMigrate)}
	}

	var migrated int
	err = s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		newConfig, err := uow.Configurations().GetByID(ctx, newConfigurationID)
		if err != nil {
			return err
		}
		if newConfig == nil {
			return &relrag.NotFoundError{Resource: "Configuration", ID: newConfigurationID.String()}
		}

		collection, err := uow.Collections().GetByID(ctx, collectionID, false)
		if err != nil {
			return err
		}
		if collection == nil {
			return &relrag.NotFoundError{Resource: "Collection", ID: collectionID.String()}
		}

		page, err := uow.Packs().List(ctx, nil, &collectionID, "", maxPacksPerMigration, false)
		if err != nil {
			return err
		}

		for _, pack := range page.Items {
			doc, err := uow.Documents().GetByID(ctx, pack.DocumentID, false)
			if err != nil {
				return err
			}
			if doc == nil || doc.Content == "" {
				continue
			}

			texts, err := s.chunker.Chunk(doc.Content, *newConfig)
			if err != nil {
				return err
			}
			vectors, err := s.embedder.Embed(ctx, texts)
			if err != nil {
				return err
			}
			if len(vectors) != len(texts) {
				return &relrag.ValidationError{Message: "embedding provider returned mismatched cardinality"}
			}
			for _, v := range vectors {
				if len(v) != newConfig.EmbeddingDimensions {
					return &relrag.ValidationError{Message: "embedding dimensions do not match the configuration"}
				}
			}

			if err := uow.Chunks().DeleteByPackID(ctx, pack.ID); err != nil {
				return err
			}
			newChunks := make([]relrag.Chunk, len(texts))
			for i, text := range texts {
				newChunks[i] = relrag.Chunk{ID: uuid.New(), PackID: pack.ID, Content: text, Embedding: vectors[i], Position: i}
			}
			if len(newChunks) > 0 {
				if _, err := uow.Chunks().CreateBatch(ctx, newChunks); err != nil {
					return err
				}
			}
			migrated++
		}

		collection.ConfigurationID = newConfigurationID
		collection.UpdatedAt = time.Now().UTC()
		return uow.Collections().Update(ctx, *collection)
	})
	if err != nil {
		return 0, err
	}
	return migrated, nil
}
