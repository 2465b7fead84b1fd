// Package fakeuow provides an in-memory implementation of every relrag
// port, used by use-case-level tests in place of a live Postgres instance
// (§8 "Expansion — test tooling"). It is not a teaching example of the
// Postgres adapters; see internal/postgres for those.
package fakeuow

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

// Store is the shared in-memory backing for every repository fake. It
// implements relrag.UnitOfWorkRunner by running fn directly against its own
// maps under a single mutex — there is no real transactional isolation, and
// writes made before fn returns an error are not rolled back.
type Store struct {
	mu sync.Mutex

	documents      map[uuid.UUID]relrag.Document
	packs          map[uuid.UUID]relrag.Pack
	chunks         map[uuid.UUID]relrag.Chunk
	collections    map[uuid.UUID]relrag.Collection
	properties     map[uuid.UUID][]relrag.Property // keyed by document id
	configurations map[uuid.UUID]relrag.Configuration
	permissions    map[uuid.UUID]relrag.Permission
	roles          map[uuid.UUID]relrag.Role
	roleActions    map[uuid.UUID][]string
	packCollection map[uuid.UUID]map[uuid.UUID]bool // pack id -> set of collection ids

	// EmbedCalls is a counter for tests to use; the Store never updates it
	// itself.
	EmbedCalls int
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		documents:      map[uuid.UUID]relrag.Document{},
		packs:          map[uuid.UUID]relrag.Pack{},
		chunks:         map[uuid.UUID]relrag.Chunk{},
		collections:    map[uuid.UUID]relrag.Collection{},
		properties:     map[uuid.UUID][]relrag.Property{},
		configurations: map[uuid.UUID]relrag.Configuration{},
		permissions:    map[uuid.UUID]relrag.Permission{},
		roles:          map[uuid.UUID]relrag.Role{},
		roleActions:    map[uuid.UUID][]string{},
		packCollection: map[uuid.UUID]map[uuid.UUID]bool{},
	}
}

// Run implements relrag.UnitOfWorkRunner.
func (s *Store) Run(ctx context.Context, fn func(ctx context.Context, uow relrag.UnitOfWork) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(ctx, &unitOfWork{s: s})
}

// SeedRole installs a Role with the given actions and returns its ID.
func (s *Store) SeedRole(name string, actions []string) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	s.roles[id] = relrag.Role{ID: id, Name: name}
	s.roleActions[id] = actions
	return id
}

// SeedPermission installs perm as-is (ID must already be set).
func (s *Store) SeedPermission(perm relrag.Permission) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.permissions[perm.ID] = perm
}

// SeedConfiguration installs cfg as-is.
func (s *Store) SeedConfiguration(cfg relrag.Configuration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configurations[cfg.ID] = cfg
}

// SeedCollection installs coll as-is.
func (s *Store) SeedCollection(coll relrag.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.collections[coll.ID] = coll
}

func sortedIDs[T any](m map[uuid.UUID]T) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
