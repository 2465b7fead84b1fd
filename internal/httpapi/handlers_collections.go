package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/collectionadmin"
	"github.com/guility/relrag/internal/relrag"
)

type collectionDTO struct {
	ID              string `json:"id"`
	ConfigurationID string `json:"configuration_id"`
	Name            string `json:"name"`
}

func collectionToDTO(c relrag.Collection) collectionDTO {
	return collectionDTO{ID: c.ID.String(), ConfigurationID: c.ConfigurationID.String(), Name: c.Name}
}

type createCollectionRequest struct {
	ConfigurationID string `json:"configuration_id"`
	Name            string `json:"name"`
}

func (s *Server) handleCreateCollection(w http.ResponseWriter, r *http.Request) {
	var req createCollectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid JSON body"})
		return
	}
	cfgID, err := uuid.Parse(req.ConfigurationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "configuration_id must be a UUID"})
		return
	}

	subject := subjectFrom(r)
	if subject == "" {
		respondError(w, http.StatusUnauthorized, &relrag.ValidationError{Message: "authentication required"})
		return
	}

	coll, err := s.collectionAdmin.CreateCollection(r.Context(), subject, collectionadmin.CreateCollectionInput{
		ConfigurationID: cfgID,
		Name:            req.Name,
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, collectionToDTO(coll))
}

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	subject := subjectFrom(r)
	if subject == "" {
		respondError(w, http.StatusUnauthorized, &relrag.ValidationError{Message: "authentication required"})
		return
	}
	cursor := r.URL.Query().Get("cursor")
	limit := parseLimit(r, 20, 100)

	var page relrag.Page[relrag.Collection]
	err := s.uow.Run(r.Context(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		page, err = uow.Collections().ListBySubject(ctx, subject, cursor, limit)
		return err
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	items := make([]collectionDTO, len(page.Items))
	for i, c := range page.Items {
		items[i] = collectionToDTO(c)
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items, "next_cursor": page.NextCursor})
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}

	subject := subjectFrom(r)
	allowed, err := s.permission.Check(r.Context(), subject, id, relrag.ActionRead)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if !allowed {
		respondError(w, http.StatusForbidden, &relrag.PermissionDeniedError{Action: string(relrag.ActionRead)})
		return
	}

	var coll *relrag.Collection
	err = s.uow.Run(r.Context(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		coll, err = uow.Collections().GetByID(ctx, id, false)
		return err
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if coll == nil {
		respondError(w, http.StatusNotFound, &relrag.NotFoundError{Resource: "Collection", ID: id.String()})
		return
	}
	respondJSON(w, http.StatusOK, collectionToDTO(*coll))
}

func (s *Server) handleMigrateCollection(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}
	var req struct {
		NewConfigurationID string `json:"new_configuration_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid JSON body"})
		return
	}
	newCfgID, err := uuid.Parse(req.NewConfigurationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "new_configuration_id must be a UUID"})
		return
	}

	migrated, err := s.migration.MigrateCollection(r.Context(), subjectFrom(r), id, newCfgID)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"migrated": migrated})
}
