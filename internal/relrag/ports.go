package relrag

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Chunker splits text into an ordered sequence of substrings per a
// Configuration's chunking strategy and size parameters (§4.B).
type Chunker interface {
	Chunk(text string, cfg Configuration) ([]string, error)
}

// EmbeddingProvider turns a batch of texts into dense vectors, preserving
// order and cardinality (§4.C).
type EmbeddingProvider interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// DimensionProber is implemented by EmbeddingProvider adapters that can
// report a model's output width directly. Configuration creation (§9) uses
// it, when available, to set or validate EmbeddingDimensions against the
// embedder actually configured.
type DimensionProber interface {
	ProbeDimensions(ctx context.Context) (int, error)
}

// ParsedFile is the (text, properties) pair a DocumentParser extracts from
// one uploaded file.
type ParsedFile struct {
	Content    string
	Properties map[string]PropertyValue
}

// DocumentParser extracts text and metadata from an uploaded file, selecting
// an extraction strategy by filename extension (§6.1 multipart ingest).
type DocumentParser interface {
	Parse(filename string, r io.Reader) (ParsedFile, error)
}

// PermissionChecker resolves (subject, collection, action) against the
// stored Permission and Role (§4.F). It never returns an error for "no
// permission"; absence of access is simply false.
type PermissionChecker interface {
	Check(ctx context.Context, subject string, collectionID uuid.UUID, action PermissionAction) (bool, error)
}

// Page is an opaque-cursor page of results. NextCursor is empty when there
// is no further page.
type Page[T any] struct {
	Items      []T
	NextCursor string
}

// PropertyValue is the (value, type) pair supplied per key when ingesting a
// document.
type PropertyValue struct {
	Value string
	Type  PropertyType
}

// DocumentRepository is the CRUD and lookup surface over Document rows.
type DocumentRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Document, error)
	GetBySourceHash(ctx context.Context, hash [16]byte) (*Document, error)
	List(ctx context.Context, cursor string, limit int, includeDeleted bool) (Page[Document], error)
	Create(ctx context.Context, doc Document) (Document, error)
	Update(ctx context.Context, doc Document) (Document, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// PackRepository is the CRUD and membership surface over Pack rows.
type PackRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Pack, error)
	List(ctx context.Context, documentID, collectionID *uuid.UUID, cursor string, limit int, includeDeleted bool) (Page[Pack], error)
	Create(ctx context.Context, pack Pack) (Pack, error)
	Update(ctx context.Context, pack Pack) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	AddToCollection(ctx context.Context, packID, collectionID uuid.UUID) error
}

// SearchParams bundles the inputs to ChunkRepository.Search (§4.H).
type SearchParams struct {
	CollectionID     uuid.UUID
	QueryEmbedding   []float32
	QueryFTS         string
	VectorWeight     float64
	FTSWeight        float64
	Limit            int
	PropertyFilters  map[string]PropertyFilter
}

// ChunkRepository is the CRUD and search surface over Chunk rows.
type ChunkRepository interface {
	CreateBatch(ctx context.Context, chunks []Chunk) ([]Chunk, error)
	DeleteByPackID(ctx context.Context, packID uuid.UUID) error
	GetByPackID(ctx context.Context, packID uuid.UUID) ([]Chunk, error)
	Search(ctx context.Context, params SearchParams) ([]SearchResult, error)
}

// CollectionRepository is the CRUD and listing surface over Collection rows.
type CollectionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Collection, error)
	List(ctx context.Context, cursor string, limit int, includeDeleted bool) (Page[Collection], error)
	ListBySubject(ctx context.Context, subject string, cursor string, limit int) (Page[Collection], error)
	Create(ctx context.Context, coll Collection) (Collection, error)
	Update(ctx context.Context, coll Collection) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
}

// ConfigurationRepository is the CRUD surface over Configuration rows.
type ConfigurationRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Configuration, error)
	GetByCollectionID(ctx context.Context, collectionID uuid.UUID) (*Configuration, error)
	List(ctx context.Context, cursor string, limit int) (Page[Configuration], error)
	Create(ctx context.Context, cfg Configuration) (Configuration, error)
}

// PropertyRepository is the CRUD and schema-inspection surface over
// Property rows.
type PropertyRepository interface {
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]Property, error)
	CreateBatch(ctx context.Context, props []Property) error
	DeleteByDocument(ctx context.Context, documentID uuid.UUID) error
	ListSchemaByCollection(ctx context.Context, collectionID uuid.UUID) ([]PropertySchemaItem, error)
}

// RoleRepository is the lookup surface over seeded Role rows.
type RoleRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Role, error)
	GetByName(ctx context.Context, name string) (*Role, error)
	ListAll(ctx context.Context) ([]Role, error)
	GetActionsForRole(ctx context.Context, roleID uuid.UUID) ([]string, error)
}

// PermissionRepository is the CRUD and lookup surface over Permission rows.
type PermissionRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Permission, error)
	ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]Permission, error)
	ListBySubject(ctx context.Context, subject string) ([]Permission, error)
	GetForCollection(ctx context.Context, collectionID uuid.UUID, subject string) (*Permission, error)
	Create(ctx context.Context, perm Permission) (Permission, error)
	Update(ctx context.Context, perm Permission) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// UnitOfWork exposes one repository per entity, all bound to the same
// underlying connection and transaction (§4.E). A UnitOfWork must not
// outlive the call that produced it.
type UnitOfWork interface {
	Documents() DocumentRepository
	Packs() PackRepository
	Chunks() ChunkRepository
	Collections() CollectionRepository
	Properties() PropertyRepository
	Configurations() ConfigurationRepository
	Permissions() PermissionRepository
	Roles() RoleRepository
}

// UnitOfWorkRunner opens one UnitOfWork, runs fn, and commits on a nil
// return or rolls back otherwise. Implementations must guarantee the
// connection is released on every exit path.
type UnitOfWorkRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context, uow UnitOfWork) error) error
}
