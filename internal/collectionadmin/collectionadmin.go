// Package collectionadmin implements the CreateConfiguration and
// CreateCollection use cases (§6.1): Configuration creation takes no subject
// and performs no authorization check, and creating a Collection
// additionally grants the creator the admin Role on it in the same unit of
// work, the way §4.J's permission administration grants any other Role.
package collectionadmin

import (
	"time"

	"context"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

// Service runs collection and configuration administration.
type Service struct {
	uow      relrag.UnitOfWorkRunner
	embedder relrag.EmbeddingProvider
}

// New builds a Service wired to its collaborators.
func New(uow relrag.UnitOfWorkRunner, embedder relrag.EmbeddingProvider) *Service {
	return &Service{uow: uow, embedder: embedder}
}

// CreateConfigurationInput bundles the inputs to Service.CreateConfiguration.
type CreateConfigurationInput struct {
	ChunkingStrategy    relrag.ChunkingStrategy
	EmbeddingModel      string
	EmbeddingDimensions int
	ChunkSize           int
	ChunkOverlap        int
	Name                string
}

// CreateConfiguration validates and persists a new Configuration. Per §3,
// Configurations are immutable once created.
func (s *Service) CreateConfiguration(ctx context.Context, in CreateConfigurationInput) (relrag.Configuration, error) {
	strategy := in.ChunkingStrategy
	if strategy == "" {
		strategy = relrag.ChunkingRecursive
	}
	if !strategy.IsValid() {
		return relrag.Configuration{}, &relrag.ValidationError{Message: "unknown chunking strategy"}
	}
	if in.EmbeddingModel == "" {
		return relrag.Configuration{}, &relrag.ValidationError{Message: "embedding_model is required"}
	}
	if in.ChunkSize <= 0 {
		return relrag.Configuration{}, &relrag.ValidationError{Message: "chunk_size must be positive"}
	}
	if in.ChunkOverlap < 0 || in.ChunkOverlap >= in.ChunkSize {
		return relrag.Configuration{}, &relrag.ValidationError{Message: "chunk_overlap must be non-negative and smaller than chunk_size"}
	}

	dims, err := s.probeEmbeddingDimensions(ctx)
	if err != nil {
		return relrag.Configuration{}, err
	}
	if in.EmbeddingDimensions == 0 {
		in.EmbeddingDimensions = dims
	} else if in.EmbeddingDimensions != dims {
		return relrag.Configuration{}, &relrag.ValidationError{Message: "embedding_dimensions does not match the embedding model's actual output dimensionality"}
	}

	cfg := relrag.Configuration{
		ID:                  uuid.New(),
		ChunkingStrategy:    strategy,
		EmbeddingModel:      in.EmbeddingModel,
		EmbeddingDimensions: in.EmbeddingDimensions,
		ChunkSize:           in.ChunkSize,
		ChunkOverlap:        in.ChunkOverlap,
		Name:                in.Name,
	}

	var created relrag.Configuration
	err = s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		created, err = uow.Configurations().Create(ctx, cfg)
		return err
	})
	if err != nil {
		return relrag.Configuration{}, err
	}
	return created, nil
}

// CreateCollectionInput bundles the inputs to Service.CreateCollection.
type CreateCollectionInput struct {
	ConfigurationID uuid.UUID
	Name            string
}

// CreateCollection persists a new Collection pinned to an existing
// Configuration and grants the creating subject the admin Role on it, all
// within one unit of work.
func (s *Service) CreateCollection(ctx context.Context, creator string, in CreateCollectionInput) (relrag.Collection, error) {
	var created relrag.Collection
	err := s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		cfg, err := uow.Configurations().GetByID(ctx, in.ConfigurationID)
		if err != nil {
			return err
		}
		if cfg == nil {
			return &relrag.NotFoundError{Resource: "Configuration", ID: in.ConfigurationID.String()}
		}

		coll := relrag.Collection{
			ID:              uuid.New(),
			ConfigurationID: in.ConfigurationID,
			Name:            in.Name,
		}
		created, err = uow.Collections().Create(ctx, coll)
		if err != nil {
			return err
		}

		adminRole, err := uow.Roles().GetByName(ctx, relrag.RoleAdmin)
		if err != nil {
			return err
		}
		if adminRole == nil {
			return &relrag.NotFoundError{Resource: "Role", ID: relrag.RoleAdmin}
		}

		_, err = uow.Permissions().Create(ctx, relrag.Permission{
			ID:           uuid.New(),
			CollectionID: created.ID,
			Subject:      creator,
			RoleID:       adminRole.ID,
			CreatedAt:    time.Now().UTC(),
			CreatedBy:    creator,
		})
		return err
	})
	if err != nil {
		return relrag.Collection{}, err
	}
	return created, nil
}

// probeEmbeddingDimensions embeds a single-space placeholder through the
// configured model and returns the width of the resulting vector. §9
// decides EmbeddingDimensions by measuring the model and checking any
// caller-supplied value against it, so a Configuration can never disagree with what its
// own embedder actually produces.
func (s *Service) probeEmbeddingDimensions(ctx context.Context) (int, error) {
	if prober, ok := s.embedder.(relrag.DimensionProber); ok {
		return prober.ProbeDimensions(ctx)
	}

	vectors, err := s.embedder.Embed(ctx, []string{" "})
	if err != nil {
		return 0, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return 0, &relrag.ValidationError{Message: "embedding provider returned an empty probe vector"}
	}
	return len(vectors[0]), nil
}
