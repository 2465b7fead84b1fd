package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/guility/relrag/internal/permissionadmin"
	"github.com/guility/relrag/internal/relrag"
)

type permissionDTO struct {
	ID              string   `json:"id"`
	CollectionID    string   `json:"collection_id"`
	Subject         string   `json:"subject"`
	RoleID          string   `json:"role_id"`
	ActionsOverride []string `json:"actions_override,omitempty"`
}

func permissionToDTO(p relrag.Permission) permissionDTO {
	return permissionDTO{
		ID:              p.ID.String(),
		CollectionID:    p.CollectionID.String(),
		Subject:         p.Subject,
		RoleID:          p.RoleID.String(),
		ActionsOverride: p.ActionsOverride,
	}
}

func (s *Server) handleListPermissions(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}
	allowed, err := s.permission.Check(r.Context(), subjectFrom(r), id, relrag.ActionAdmin)
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	if !allowed {
		respondError(w, http.StatusForbidden, &relrag.PermissionDeniedError{Action: string(relrag.ActionAdmin)})
		return
	}

	var perms []relrag.Permission
	err = s.uow.Run(r.Context(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		var err error
		perms, err = uow.Permissions().ListByCollection(ctx, id)
		return err
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}

	items := make([]permissionDTO, len(perms))
	for i, p := range perms {
		items[i] = permissionToDTO(p)
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

type assignPermissionRequest struct {
	Subject         string   `json:"subject"`
	Role            string   `json:"role"`
	ActionsOverride []string `json:"actions_override"`
}

func (s *Server) handleAssignPermission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}
	var req assignPermissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "invalid JSON body"})
		return
	}

	perm, err := s.permAdmin.Assign(r.Context(), subjectFrom(r), permissionadmin.AssignInput{
		CollectionID:    id,
		Subject:         req.Subject,
		RoleName:        req.Role,
		ActionsOverride: req.ActionsOverride,
	})
	if err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	respondJSON(w, http.StatusCreated, permissionToDTO(perm))
}

func (s *Server) handleRevokePermission(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, &relrag.ValidationError{Message: "id must be a UUID"})
		return
	}
	subject := r.PathValue("subject")

	if err := s.permAdmin.Revoke(r.Context(), subjectFrom(r), id, subject); err != nil {
		respondError(w, statusFromError(err), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
