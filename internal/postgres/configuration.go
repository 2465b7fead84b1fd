package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

type configurationRepository struct {
	tx pgx.Tx
}

func (r *configurationRepository) GetByID(ctx context.Context, id uuid.UUID) (*relrag.Configuration, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, chunking_strategy, embedding_model, embedding_dimensions, chunk_size, chunk_overlap, name
FROM configuration WHERE id = $1`, id)
	return scanConfiguration(row)
}

func (r *configurationRepository) GetByCollectionID(ctx context.Context, collectionID uuid.UUID) (*relrag.Configuration, error) {
	row := r.tx.QueryRow(ctx, `SELECT cfg.id, cfg.chunking_strategy, cfg.embedding_model, cfg.embedding_dimensions, cfg.chunk_size, cfg.chunk_overlap, cfg.name
FROM configuration cfg
JOIN collection c ON c.configuration_id = cfg.id
WHERE c.id = $1`, collectionID)
	return scanConfiguration(row)
}

func (r *configurationRepository) List(ctx context.Context, cursor string, limit int) (relrag.Page[relrag.Configuration], error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return relrag.Page[relrag.Configuration]{}, err
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.tx.Query(ctx, `SELECT id, chunking_strategy, embedding_model, embedding_dimensions, chunk_size, chunk_overlap, name
FROM configuration WHERE id > $1 ORDER BY id LIMIT $2`, after, limit+1)
	if err != nil {
		return relrag.Page[relrag.Configuration]{}, err
	}
	defer rows.Close()

	var items []relrag.Configuration
	for rows.Next() {
		c, err := scanConfiguration(rows)
		if err != nil {
			return relrag.Page[relrag.Configuration]{}, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return relrag.Page[relrag.Configuration]{}, err
	}
	return trimPage(items, limit, func(c relrag.Configuration) uuid.UUID { return c.ID }), nil
}

func (r *configurationRepository) Create(ctx context.Context, cfg relrag.Configuration) (relrag.Configuration, error) {
	_, err := r.tx.Exec(ctx, `INSERT INTO configuration (id, chunking_strategy, embedding_model, embedding_dimensions, chunk_size, chunk_overlap, name)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, cfg.ID, string(cfg.ChunkingStrategy), cfg.EmbeddingModel, cfg.EmbeddingDimensions, cfg.ChunkSize, cfg.ChunkOverlap, cfg.Name)
	if err != nil {
		return relrag.Configuration{}, err
	}
	return cfg, nil
}

func scanConfiguration(row rowScanner) (*relrag.Configuration, error) {
	var c relrag.Configuration
	var strategy string
	err := row.Scan(&c.ID, &strategy, &c.EmbeddingModel, &c.EmbeddingDimensions, &c.ChunkSize, &c.ChunkOverlap, &c.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.ChunkingStrategy = relrag.ChunkingStrategy(strategy)
	return &c, nil
}
