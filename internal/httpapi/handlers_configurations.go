package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/collectionadmin"
	"github.com/guility/relrag/internal/relrag"
)

// parseLimit reads the "limit" query parameter, falling back to def and
// capping at max, per §6.1's "?cursor&limit≤100" contract.
func parseLimit(r *http.Request, def, max int) int {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

type configurationDTO struct {
	ID                  string `json:"id"`
	ChunkingStrategy    string `json:"chunking_strategy"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	ChunkSize           int    `json:"chunk_size"`
	ChunkOverlap        int    `json:"chunk_overlap"`
	Name                string `json:"name"`
}

func configurationToDTO(cfg relrag.Configuration) configurationDTO {
	return configurationDTO{
		ID:                  cfg.ID.String(),
		ChunkingStrategy:    string(cfg.ChunkingStrategy),
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDimensions,
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		Name:                cfg.Name,
	}
}

type createConfigurationRequest struct {
	ChunkingStrategy    string `json:"chunking_strategy"`
	EmbeddingModel      string `json:"embedding_model"`
	EmbeddingDimensions int    `json:"embedding_dimensions"`
	ChunkSize           int    `json:"chunk_size"`
	ChunkOverlap        int    `json:"chunk_overlap"`
	Name                string `json:"name"`
}

func (s *Server) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	var req createConfigurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid JSON body"})
		return
	}

	cfg, err := s.collectionAdmin.CreateConfiguration(r.Context(), collectionadmin.CreateConfigurationInput{
		ChunkingStrategy:    relrag.ChunkingStrategy(req.ChunkingStrategy),
		EmbeddingModel:      req.EmbeddingModel,
		EmbeddingDimensions: req.EmbeddingDimensions,
		ChunkSize:           req.ChunkSize,
		ChunkOverlap:        req.ChunkOverlap,
		Name:                req.Name,
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, configurationToDTO(cfg))
}

func (s *Server) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	cursor := r.URL.Query().Get("cursor")
	limit := parseLimit(r, 20, 100)

	var page relrag.Page[relrag.Configuration]
	err := s.uow.Run(r.Context(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		page, err = uow.Configurations().List(ctx, cursor, limit)
		return err
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	items := make([]configurationDTO, len(page.Items))
	for i, cfg := range page.Items {
		items[i] = configurationToDTO(cfg)
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items, "next_cursor": page.NextCursor})
}

func parseID(r *http.Request, key string) (uuid.UUID, error) {
	return uuid.Parse(r.PathValue(key))
}
