package fakeuow

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

type unitOfWork struct{ s *Store }

func (u *unitOfWork) Documents() relrag.DocumentRepository         { return documentRepo{u.s} }
func (u *unitOfWork) Packs() relrag.PackRepository                 { return packRepo{u.s} }
func (u *unitOfWork) Chunks() relrag.ChunkRepository               { return chunkRepo{u.s} }
func (u *unitOfWork) Collections() relrag.CollectionRepository     { return collectionRepo{u.s} }
func (u *unitOfWork) Properties() relrag.PropertyRepository        { return propertyRepo{u.s} }
func (u *unitOfWork) Configurations() relrag.ConfigurationRepository { return configurationRepo{u.s} }
func (u *unitOfWork) Permissions() relrag.PermissionRepository     { return permissionRepo{u.s} }
func (u *unitOfWork) Roles() relrag.RoleRepository                 { return roleRepo{u.s} }

// --- documents ---

type documentRepo struct{ s *Store }

func (r documentRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*relrag.Document, error) {
	doc, ok := r.s.documents[id]
	if !ok || (!includeDeleted && doc.IsDeleted()) {
		return nil, nil
	}
	return &doc, nil
}

func (r documentRepo) GetBySourceHash(ctx context.Context, hash [16]byte) (*relrag.Document, error) {
	for _, id := range sortedIDs(r.s.documents) {
		doc := r.s.documents[id]
		if doc.SourceHash == hash && !doc.IsDeleted() {
			return &doc, nil
		}
	}
	return nil, nil
}

func (r documentRepo) List(ctx context.Context, cursor string, limit int, includeDeleted bool) (relrag.Page[relrag.Document], error) {
	var items []relrag.Document
	for _, id := range sortedIDs(r.s.documents) {
		doc := r.s.documents[id]
		if !includeDeleted && doc.IsDeleted() {
			continue
		}
		if cursor != "" && id.String() <= cursor {
			continue
		}
		items = append(items, doc)
	}
	return paginate(items, limit, func(d relrag.Document) string { return d.ID.String() }), nil
}

func (r documentRepo) Create(ctx context.Context, doc relrag.Document) (relrag.Document, error) {
	r.s.documents[doc.ID] = doc
	return doc, nil
}

func (r documentRepo) Update(ctx context.Context, doc relrag.Document) (relrag.Document, error) {
	r.s.documents[doc.ID] = doc
	return doc, nil
}

func (r documentRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	doc := r.s.documents[id]
	now := nowFunc()
	doc.DeletedAt = &now
	r.s.documents[id] = doc
	return nil
}

func (r documentRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.documents, id)
	return nil
}

// --- packs ---

type packRepo struct{ s *Store }

func (r packRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*relrag.Pack, error) {
	p, ok := r.s.packs[id]
	if !ok || (!includeDeleted && p.IsDeleted()) {
		return nil, nil
	}
	return &p, nil
}

func (r packRepo) List(ctx context.Context, documentID, collectionID *uuid.UUID, cursor string, limit int, includeDeleted bool) (relrag.Page[relrag.Pack], error) {
	var items []relrag.Pack
	for _, id := range sortedIDs(r.s.packs) {
		p := r.s.packs[id]
		if !includeDeleted && p.IsDeleted() {
			continue
		}
		if documentID != nil && p.DocumentID != *documentID {
			continue
		}
		if collectionID != nil {
			members := r.s.packCollection[p.ID]
			if !members[*collectionID] {
				continue
			}
		}
		if cursor != "" && id.String() <= cursor {
			continue
		}
		items = append(items, p)
	}
	return paginate(items, limit, func(p relrag.Pack) string { return p.ID.String() }), nil
}

func (r packRepo) Create(ctx context.Context, pack relrag.Pack) (relrag.Pack, error) {
	r.s.packs[pack.ID] = pack
	return pack, nil
}

func (r packRepo) Update(ctx context.Context, pack relrag.Pack) error {
	r.s.packs[pack.ID] = pack
	return nil
}

func (r packRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	p := r.s.packs[id]
	now := nowFunc()
	p.DeletedAt = &now
	r.s.packs[id] = p
	return nil
}

func (r packRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.packs, id)
	return nil
}

func (r packRepo) AddToCollection(ctx context.Context, packID, collectionID uuid.UUID) error {
	if r.s.packCollection[packID] == nil {
		r.s.packCollection[packID] = map[uuid.UUID]bool{}
	}
	r.s.packCollection[packID][collectionID] = true
	return nil
}

// --- chunks ---

type chunkRepo struct{ s *Store }

func (r chunkRepo) CreateBatch(ctx context.Context, chunks []relrag.Chunk) ([]relrag.Chunk, error) {
	for _, c := range chunks {
		r.s.chunks[c.ID] = c
	}
	return chunks, nil
}

func (r chunkRepo) DeleteByPackID(ctx context.Context, packID uuid.UUID) error {
	for id, c := range r.s.chunks {
		if c.PackID == packID {
			delete(r.s.chunks, id)
		}
	}
	return nil
}

func (r chunkRepo) GetByPackID(ctx context.Context, packID uuid.UUID) ([]relrag.Chunk, error) {
	var out []relrag.Chunk
	for _, id := range sortedIDs(r.s.chunks) {
		c := r.s.chunks[id]
		if c.PackID == packID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (r chunkRepo) Search(ctx context.Context, params relrag.SearchParams) ([]relrag.SearchResult, error) {
	return cosineAndFTSSearch(r.s, params), nil
}

// --- collections ---

type collectionRepo struct{ s *Store }

func (r collectionRepo) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*relrag.Collection, error) {
	c, ok := r.s.collections[id]
	if !ok || (!includeDeleted && c.IsDeleted()) {
		return nil, nil
	}
	return &c, nil
}

func (r collectionRepo) List(ctx context.Context, cursor string, limit int, includeDeleted bool) (relrag.Page[relrag.Collection], error) {
	var items []relrag.Collection
	for _, id := range sortedIDs(r.s.collections) {
		c := r.s.collections[id]
		if !includeDeleted && c.IsDeleted() {
			continue
		}
		if cursor != "" && id.String() <= cursor {
			continue
		}
		items = append(items, c)
	}
	return paginate(items, limit, func(c relrag.Collection) string { return c.ID.String() }), nil
}

func (r collectionRepo) ListBySubject(ctx context.Context, subject string, cursor string, limit int) (relrag.Page[relrag.Collection], error) {
	allowed := map[uuid.UUID]bool{}
	for _, perm := range r.s.permissions {
		if perm.Subject == subject {
			allowed[perm.CollectionID] = true
		}
	}
	var items []relrag.Collection
	for _, id := range sortedIDs(r.s.collections) {
		if !allowed[id] {
			continue
		}
		c := r.s.collections[id]
		if c.IsDeleted() {
			continue
		}
		if cursor != "" && id.String() <= cursor {
			continue
		}
		items = append(items, c)
	}
	return paginate(items, limit, func(c relrag.Collection) string { return c.ID.String() }), nil
}

func (r collectionRepo) Create(ctx context.Context, coll relrag.Collection) (relrag.Collection, error) {
	r.s.collections[coll.ID] = coll
	return coll, nil
}

func (r collectionRepo) Update(ctx context.Context, coll relrag.Collection) error {
	r.s.collections[coll.ID] = coll
	return nil
}

func (r collectionRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	c := r.s.collections[id]
	now := nowFunc()
	c.DeletedAt = &now
	r.s.collections[id] = c
	return nil
}

func (r collectionRepo) HardDelete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.collections, id)
	return nil
}

// --- configurations ---

type configurationRepo struct{ s *Store }

func (r configurationRepo) GetByID(ctx context.Context, id uuid.UUID) (*relrag.Configuration, error) {
	c, ok := r.s.configurations[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r configurationRepo) GetByCollectionID(ctx context.Context, collectionID uuid.UUID) (*relrag.Configuration, error) {
	coll, ok := r.s.collections[collectionID]
	if !ok {
		return nil, nil
	}
	cfg, ok := r.s.configurations[coll.ConfigurationID]
	if !ok {
		return nil, nil
	}
	return &cfg, nil
}

func (r configurationRepo) List(ctx context.Context, cursor string, limit int) (relrag.Page[relrag.Configuration], error) {
	var items []relrag.Configuration
	for _, id := range sortedIDs(r.s.configurations) {
		if cursor != "" && id.String() <= cursor {
			continue
		}
		items = append(items, r.s.configurations[id])
	}
	return paginate(items, limit, func(c relrag.Configuration) string { return c.ID.String() }), nil
}

func (r configurationRepo) Create(ctx context.Context, cfg relrag.Configuration) (relrag.Configuration, error) {
	r.s.configurations[cfg.ID] = cfg
	return cfg, nil
}

// --- properties ---

type propertyRepo struct{ s *Store }

func (r propertyRepo) ListByDocument(ctx context.Context, documentID uuid.UUID) ([]relrag.Property, error) {
	return append([]relrag.Property{}, r.s.properties[documentID]...), nil
}

func (r propertyRepo) CreateBatch(ctx context.Context, props []relrag.Property) error {
	for _, p := range props {
		r.s.properties[p.DocumentID] = append(r.s.properties[p.DocumentID], p)
	}
	return nil
}

func (r propertyRepo) DeleteByDocument(ctx context.Context, documentID uuid.UUID) error {
	delete(r.s.properties, documentID)
	return nil
}

func (r propertyRepo) ListSchemaByCollection(ctx context.Context, collectionID uuid.UUID) ([]relrag.PropertySchemaItem, error) {
	type key struct {
		k string
		t relrag.PropertyType
	}
	valuesByKey := map[key]map[string]bool{}

	for packID, members := range r.s.packCollection {
		if !members[collectionID] {
			continue
		}
		pack, ok := r.s.packs[packID]
		if !ok || pack.IsDeleted() {
			continue
		}
		doc, ok := r.s.documents[pack.DocumentID]
		if !ok || doc.IsDeleted() {
			continue
		}
		for _, p := range r.s.properties[doc.ID] {
			k := key{p.Key, p.Type}
			if valuesByKey[k] == nil {
				valuesByKey[k] = map[string]bool{}
			}
			valuesByKey[k][p.Value] = true
		}
	}

	var items []relrag.PropertySchemaItem
	for k, values := range valuesByKey {
		item := relrag.PropertySchemaItem{Key: k.k, Type: k.t}
		if k.t == relrag.PropertyString || k.t == relrag.PropertyBool {
			for v := range values {
				item.Values = append(item.Values, v)
			}
			sort.Strings(item.Values)
			if len(item.Values) > 500 {
				item.Values = item.Values[:500]
			}
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return items, nil
}

// --- roles ---

type roleRepo struct{ s *Store }

func (r roleRepo) GetByID(ctx context.Context, id uuid.UUID) (*relrag.Role, error) {
	role, ok := r.s.roles[id]
	if !ok {
		return nil, nil
	}
	return &role, nil
}

func (r roleRepo) GetByName(ctx context.Context, name string) (*relrag.Role, error) {
	for _, id := range sortedIDs(r.s.roles) {
		role := r.s.roles[id]
		if role.Name == name {
			return &role, nil
		}
	}
	return nil, nil
}

func (r roleRepo) ListAll(ctx context.Context) ([]relrag.Role, error) {
	var out []relrag.Role
	for _, id := range sortedIDs(r.s.roles) {
		out = append(out, r.s.roles[id])
	}
	return out, nil
}

func (r roleRepo) GetActionsForRole(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	return r.s.roleActions[roleID], nil
}

// --- permissions ---

type permissionRepo struct{ s *Store }

func (r permissionRepo) GetByID(ctx context.Context, id uuid.UUID) (*relrag.Permission, error) {
	p, ok := r.s.permissions[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r permissionRepo) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]relrag.Permission, error) {
	var out []relrag.Permission
	for _, id := range sortedIDs(r.s.permissions) {
		p := r.s.permissions[id]
		if p.CollectionID == collectionID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r permissionRepo) ListBySubject(ctx context.Context, subject string) ([]relrag.Permission, error) {
	var out []relrag.Permission
	for _, id := range sortedIDs(r.s.permissions) {
		p := r.s.permissions[id]
		if p.Subject == subject {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r permissionRepo) GetForCollection(ctx context.Context, collectionID uuid.UUID, subject string) (*relrag.Permission, error) {
	for _, id := range sortedIDs(r.s.permissions) {
		p := r.s.permissions[id]
		if p.CollectionID == collectionID && p.Subject == subject {
			return &p, nil
		}
	}
	return nil, nil
}

func (r permissionRepo) Create(ctx context.Context, perm relrag.Permission) (relrag.Permission, error) {
	r.s.permissions[perm.ID] = perm
	return perm, nil
}

func (r permissionRepo) Update(ctx context.Context, perm relrag.Permission) error {
	r.s.permissions[perm.ID] = perm
	return nil
}

func (r permissionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(r.s.permissions, id)
	return nil
}
