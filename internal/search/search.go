// Package search implements the HybridSearch use case (§4.H): authorize,
// embed the query, run one ranked SQL statement fusing vector similarity
// and full-text rank under property filters, and return ordered results.
package search

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

const (
	defaultVectorWeight = 0.7
	defaultFTSWeight    = 0.3
	defaultLimit        = 10
)

// Input bundles the HybridSearch request (§4.H).
type Input struct {
	CollectionID uuid.UUID
	Query        string
	VectorWeight float64
	FTSWeight    float64
	Limit        int
	Filters      map[string]relrag.PropertyFilter
}

// Service runs hybrid search.
type Service struct {
	uow        relrag.UnitOfWorkRunner
	permission relrag.PermissionChecker
	embedder   relrag.EmbeddingProvider
}

// New builds a Service wired to its collaborators.
func New(uow relrag.UnitOfWorkRunner, perm relrag.PermissionChecker, embedder relrag.EmbeddingProvider) *Service {
	return &Service{uow: uow, permission: perm, embedder: embedder}
}

// HybridSearch implements §4.H. An empty query yields fts-only scoring with
// zero fts contribution (query_fts="" ⇒ fts_score=0), per the spec note on
// an empty embedding.
func (s *Service) HybridSearch(ctx context.Context, subject string, in Input) ([]relrag.SearchResult, error) {
	allowed, err := s.permission.Check(ctx, subject, in.CollectionID, relrag.ActionRead)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, &relrag.PermissionDeniedError{Action: string(relrag.ActionRead)}
	}

	params := relrag.SearchParams{
		CollectionID:    in.CollectionID,
		QueryFTS:        in.Query,
		VectorWeight:    orDefault(in.VectorWeight, defaultVectorWeight),
		FTSWeight:       orDefault(in.FTSWeight, defaultFTSWeight),
		Limit:           orDefaultInt(in.Limit, defaultLimit),
		PropertyFilters: in.Filters,
	}

	if trimmed := strings.TrimSpace(in.Query); trimmed != "" {
		vectors, err := s.embedder.Embed(ctx, []string{in.Query})
		if err != nil {
			return nil, err
		}
		if len(vectors) > 0 {
			params.QueryEmbedding = vectors[0]
		}
	}

	var results []relrag.SearchResult
	err = s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		r, err := uow.Chunks().Search(ctx, params)
		if err != nil {
			return err
		}
		results = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultInt(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
