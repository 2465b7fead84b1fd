package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaDDL matches the table list and index set of
// original_source/alembic/versions/001_initial_schema.py and
// 002_add_display_names.py. The embedding column is an untyped pgvector
// vector (no fixed dimension at the column level) since distinct
// Configurations may declare distinct embedding_dimensions; dimension
// consistency within one Pack's Chunks is enforced by the ingestion and
// migration use cases, not by the schema.
const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS role (
  id UUID PRIMARY KEY,
  name VARCHAR(50) NOT NULL,
  description VARCHAR(255)
);
CREATE UNIQUE INDEX IF NOT EXISTS ix_role_name ON role (name);

CREATE TABLE IF NOT EXISTS role_permission (
  role_id UUID NOT NULL REFERENCES role(id) ON DELETE CASCADE,
  action VARCHAR(50) NOT NULL,
  PRIMARY KEY (role_id, action)
);

CREATE TABLE IF NOT EXISTS configuration (
  id UUID PRIMARY KEY,
  chunking_strategy VARCHAR(50) NOT NULL,
  embedding_model VARCHAR(255) NOT NULL,
  embedding_dimensions INTEGER NOT NULL,
  chunk_size INTEGER NOT NULL,
  chunk_overlap INTEGER NOT NULL,
  name VARCHAR(255)
);

CREATE TABLE IF NOT EXISTS document (
  id UUID PRIMARY KEY,
  content TEXT NOT NULL,
  source_hash BYTEA NOT NULL,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);
CREATE UNIQUE INDEX IF NOT EXISTS ix_document_source_hash_live ON document (source_hash) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS collection (
  id UUID PRIMARY KEY,
  configuration_id UUID NOT NULL REFERENCES configuration(id),
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ,
  name VARCHAR(255)
);

CREATE TABLE IF NOT EXISTS pack (
  id UUID PRIMARY KEY,
  document_id UUID NOT NULL REFERENCES document(id) ON DELETE CASCADE,
  created_at TIMESTAMPTZ NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL,
  deleted_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS chunk (
  id UUID PRIMARY KEY,
  pack_id UUID NOT NULL REFERENCES pack(id) ON DELETE CASCADE,
  content TEXT NOT NULL,
  embedding vector NOT NULL,
  position INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS ix_chunk_pack_id ON chunk (pack_id);
CREATE INDEX IF NOT EXISTS ix_chunk_embedding_ivfflat ON chunk USING ivfflat (embedding vector_cosine_ops);
CREATE INDEX IF NOT EXISTS ix_chunk_content_fts ON chunk USING GIN (to_tsvector('simple', content));

CREATE TABLE IF NOT EXISTS property (
  document_id UUID NOT NULL REFERENCES document(id) ON DELETE CASCADE,
  key VARCHAR(255) NOT NULL,
  value TEXT NOT NULL,
  property_type VARCHAR(50) NOT NULL,
  PRIMARY KEY (document_id, key)
);

CREATE TABLE IF NOT EXISTS permission (
  id UUID PRIMARY KEY,
  collection_id UUID NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
  subject VARCHAR(255) NOT NULL,
  role_id UUID NOT NULL REFERENCES role(id),
  actions_override JSONB,
  created_at TIMESTAMPTZ NOT NULL,
  created_by VARCHAR(255)
);
CREATE UNIQUE INDEX IF NOT EXISTS ix_permission_collection_subject ON permission (collection_id, subject);

CREATE TABLE IF NOT EXISTS pack_collection (
  pack_id UUID NOT NULL REFERENCES pack(id) ON DELETE CASCADE,
  collection_id UUID NOT NULL REFERENCES collection(id) ON DELETE CASCADE,
  PRIMARY KEY (pack_id, collection_id)
);
`

// seedRolesDDL inserts the three roles this service ships with and their
// action sets, idempotently.
const seedRolesDDL = `
INSERT INTO role (id, name, description)
SELECT gen_random_uuid(), v.name, v.description
FROM (VALUES
  ('viewer', 'Read-only access'),
  ('editor', 'Read and write access'),
  ('admin', 'Full access including migrate')
) AS v(name, description)
WHERE NOT EXISTS (SELECT 1 FROM role WHERE role.name = v.name);

INSERT INTO role_permission (role_id, action)
SELECT id, 'read' FROM role WHERE name = 'viewer'
ON CONFLICT DO NOTHING;

INSERT INTO role_permission (role_id, action)
SELECT id, unnest(ARRAY['read','write']) FROM role WHERE name = 'editor'
ON CONFLICT DO NOTHING;

INSERT INTO role_permission (role_id, action)
SELECT id, unnest(ARRAY['read','write','delete','admin','migrate']) FROM role WHERE name = 'admin'
ON CONFLICT DO NOTHING;
`

// Bootstrap creates every table and index this service needs and seeds the
// three default roles, idempotently. It is run once at startup in place of
// a migration framework (out of scope, §1).
func Bootstrap(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return err
	}
	if _, err := pool.Exec(ctx, seedRolesDDL); err != nil {
		return err
	}
	return nil
}
