// Package httpapi exposes every use case behind a versioned HTTP surface,
// grounded on internal/httpapi/server.go's "one registerRoutes() call wiring
// every route" style and handlers.go's respondJSON/respondError/
// statusFromError helpers.
package httpapi

import (
	"context"
	"net/http"

	"github.com/guility/relrag/internal/collectionadmin"
	"github.com/guility/relrag/internal/docparser"
	"github.com/guility/relrag/internal/identity"
	"github.com/guility/relrag/internal/ingestion"
	"github.com/guility/relrag/internal/migration"
	"github.com/guility/relrag/internal/permissionadmin"
	"github.com/guility/relrag/internal/propertyschema"
	"github.com/guility/relrag/internal/relrag"
	"github.com/guility/relrag/internal/search"
)

// Server exposes the §6.1 HTTP surface.
type Server struct {
	uow             relrag.UnitOfWorkRunner
	verifier        *identity.Verifier
	permission      relrag.PermissionChecker
	collectionAdmin *collectionadmin.Service
	docParser       *docparser.Manager
	ingestion       *ingestion.Service
	search          *search.Service
	migration       *migration.Service
	permAdmin       *permissionadmin.Service
	propSchema      *propertyschema.Service
	modelID         string
	modelDims       int
	corsOrigins     []string

	mux *http.ServeMux
}

// Deps bundles every collaborator the Server needs.
type Deps struct {
	UnitOfWork      relrag.UnitOfWorkRunner
	Verifier        *identity.Verifier
	Permission      relrag.PermissionChecker
	CollectionAdmin *collectionadmin.Service
	DocParser       *docparser.Manager
	Ingestion       *ingestion.Service
	Search          *search.Service
	Migration       *migration.Service
	PermissionAdmin *permissionadmin.Service
	PropertySchema  *propertyschema.Service
	ModelID         string
	ModelDims       int
	CORSOrigins     []string
}

// NewServer builds a Server wired to its collaborators and registers every
// route named in §6.1.
func NewServer(d Deps) *Server {
	s := &Server{
		uow:             d.UnitOfWork,
		verifier:        d.Verifier,
		permission:      d.Permission,
		collectionAdmin: d.CollectionAdmin,
		docParser:       d.DocParser,
		ingestion:       d.Ingestion,
		search:          d.Search,
		migration:       d.Migration,
		permAdmin:       d.PermissionAdmin,
		propSchema:      d.PropertySchema,
		modelID:         d.ModelID,
		modelDims:       d.ModelDims,
		corsOrigins:     d.CORSOrigins,
		mux:             http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// ServeHTTP satisfies http.Handler, wrapping every route with CORS and
// identity-resolution middleware.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.withCORS(s.withIdentity(s.mux)).ServeHTTP(w, r)
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/health/ready", s.handleHealthReady)
	s.mux.HandleFunc("GET /v1/models", s.handleListModels)

	s.mux.HandleFunc("POST /v1/configurations", s.handleCreateConfiguration)
	s.mux.HandleFunc("GET /v1/configurations", s.handleListConfigurations)

	s.mux.HandleFunc("POST /v1/collections", s.handleCreateCollection)
	s.mux.HandleFunc("GET /v1/collections", s.handleListCollections)
	s.mux.HandleFunc("GET /v1/collections/{id}", s.handleGetCollection)
	s.mux.HandleFunc("POST /v1/collections/{id}/migrate", s.handleMigrateCollection)
	s.mux.HandleFunc("GET /v1/collections/{id}/permissions", s.handleListPermissions)
	s.mux.HandleFunc("POST /v1/collections/{id}/permissions", s.handleAssignPermission)
	s.mux.HandleFunc("DELETE /v1/collections/{id}/permissions/{subject}", s.handleRevokePermission)
	s.mux.HandleFunc("GET /v1/collections/{id}/property-schema", s.handlePropertySchema)
	s.mux.HandleFunc("POST /v1/collections/{id}/search", s.handleSearch)

	s.mux.HandleFunc("POST /v1/documents", s.handleIngestDocuments)
	s.mux.HandleFunc("POST /v1/documents/stream", s.handleIngestDocumentsStream)
	s.mux.HandleFunc("GET /v1/documents/{id}", s.handleGetDocument)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealthReady(w http.ResponseWriter, r *http.Request) {
	err := s.uow.Run(r.Context(), func(ctx context.Context, uow relrag.UnitOfWork) error {
		_, err := uow.Roles().ListAll(ctx)
		return err
	})
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"items": []map[string]any{
			{"id": s.modelID, "dimensions": s.modelDims},
		},
	})
}
