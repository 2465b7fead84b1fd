package relrag

import (
	"time"

	"github.com/google/uuid"
)

// Configuration is an immutable bundle of chunking and embedding parameters.
// Collections pin one Configuration; migrating a Collection replaces which
// Configuration it points at, it never mutates an existing one.
type Configuration struct {
	ID                  uuid.UUID
	ChunkingStrategy    ChunkingStrategy
	EmbeddingModel      string
	EmbeddingDimensions int
	ChunkSize           int
	ChunkOverlap        int
	Name                string
}

// Collection groups Packs under one Configuration with its own access
// control list.
type Collection struct {
	ID              uuid.UUID
	ConfigurationID uuid.UUID
	Name            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

func (c *Collection) IsDeleted() bool { return c.DeletedAt != nil }

// Document is the original ingested content plus the hash used for
// cross-collection deduplication.
type Document struct {
	ID         uuid.UUID
	Content    string
	SourceHash [16]byte
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

func (d *Document) IsDeleted() bool { return d.DeletedAt != nil }

// Pack is one realization of a Document's text under one chunking strategy.
// It owns its Chunks and may belong to several Collections through the
// PackCollection membership edge.
type Pack struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  *time.Time
}

func (p *Pack) IsDeleted() bool { return p.DeletedAt != nil }

// Chunk is a contiguous text fragment of a Pack with its dense embedding and
// its dense, 0-based ordinal position within the pack.
type Chunk struct {
	ID        uuid.UUID
	PackID    uuid.UUID
	Content   string
	Embedding []float32
	Position  int
}

// Property is a typed metadatum attached to a Document, keyed by
// (document_id, key), used to build filter predicates over search results.
type Property struct {
	DocumentID uuid.UUID
	Key        string
	Value      string
	Type       PropertyType
}

// Role is a named bundle of actions, seeded at bootstrap (viewer, editor,
// admin) and referenced by Permission rows.
type Role struct {
	ID          uuid.UUID
	Name        string
	Description string
}

// Permission binds one subject to one Role on one Collection, optionally
// overriding the Role's default action set.
type Permission struct {
	ID              uuid.UUID
	CollectionID    uuid.UUID
	Subject         string
	RoleID          uuid.UUID
	ActionsOverride []string
	CreatedAt       time.Time
	CreatedBy       string
}

// EffectiveActions returns override actions when present, else the role's
// own action set. Implements invariant 5 of the data model.
func (p *Permission) EffectiveActions(roleActions []string) []string {
	if p.ActionsOverride != nil {
		return p.ActionsOverride
	}
	return roleActions
}

// HasAction reports whether action appears in the given effective action set.
func HasAction(actions []string, action PermissionAction) bool {
	for _, a := range actions {
		if a == string(action) {
			return true
		}
	}
	return false
}

// PropertySchemaItem describes one distinct (key, type) pair observed among
// a Collection's documents, with a sample of distinct values for
// string/bool types. Returned by the property schema inspector (§4.K).
type PropertySchemaItem struct {
	Key    string
	Type   PropertyType
	Values []string
}

// SearchResult is one ranked hit from HybridSearch (§4.H).
type SearchResult struct {
	ChunkID        uuid.UUID
	PackID         uuid.UUID
	DocumentID     uuid.UUID
	Content        string
	VectorScore    float64
	FTSScore       float64
	Score          float64
	DocumentTitle  string
	Metadata       map[string]string
}
