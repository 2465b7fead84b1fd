package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

type collectionRepository struct {
	tx pgx.Tx
}

func (r *collectionRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*relrag.Collection, error) {
	query := `SELECT id, configuration_id, name, created_at, updated_at, deleted_at FROM collection WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return scanCollection(r.tx.QueryRow(ctx, query, id))
}

func (r *collectionRepository) List(ctx context.Context, cursor string, limit int, includeDeleted bool) (relrag.Page[relrag.Collection], error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return relrag.Page[relrag.Collection]{}, err
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, configuration_id, name, created_at, updated_at, deleted_at FROM collection WHERE id > $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY id LIMIT $2`

	rows, err := r.tx.Query(ctx, query, after, limit+1)
	if err != nil {
		return relrag.Page[relrag.Collection]{}, err
	}
	defer rows.Close()

	var items []relrag.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return relrag.Page[relrag.Collection]{}, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return relrag.Page[relrag.Collection]{}, err
	}
	return trimPage(items, limit, func(c relrag.Collection) uuid.UUID { return c.ID }), nil
}

// ListBySubject returns the collections a subject holds any Permission on,
// grounded on the membership join in original_source/.../permission tables.
func (r *collectionRepository) ListBySubject(ctx context.Context, subject string, cursor string, limit int) (relrag.Page[relrag.Collection], error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return relrag.Page[relrag.Collection]{}, err
	}
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.tx.Query(ctx, `SELECT c.id, c.configuration_id, c.name, c.created_at, c.updated_at, c.deleted_at
FROM collection c
JOIN permission perm ON perm.collection_id = c.id
WHERE perm.subject = $1 AND c.id > $2 AND c.deleted_at IS NULL
ORDER BY c.id LIMIT $3`, subject, after, limit+1)
	if err != nil {
		return relrag.Page[relrag.Collection]{}, err
	}
	defer rows.Close()

	var items []relrag.Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return relrag.Page[relrag.Collection]{}, err
		}
		items = append(items, *c)
	}
	if err := rows.Err(); err != nil {
		return relrag.Page[relrag.Collection]{}, err
	}
	return trimPage(items, limit, func(c relrag.Collection) uuid.UUID { return c.ID }), nil
}

func (r *collectionRepository) Create(ctx context.Context, coll relrag.Collection) (relrag.Collection, error) {
	now := time.Now().UTC()
	coll.CreatedAt, coll.UpdatedAt = now, now
	_, err := r.tx.Exec(ctx, `INSERT INTO collection (id, configuration_id, name, created_at, updated_at, deleted_at)
VALUES ($1, $2, $3, $4, $5, $6)`, coll.ID, coll.ConfigurationID, coll.Name, coll.CreatedAt, coll.UpdatedAt, coll.DeletedAt)
	if err != nil {
		return relrag.Collection{}, err
	}
	return coll, nil
}

func (r *collectionRepository) Update(ctx context.Context, coll relrag.Collection) error {
	coll.UpdatedAt = time.Now().UTC()
	_, err := r.tx.Exec(ctx, `UPDATE collection SET configuration_id = $2, name = $3, updated_at = $4 WHERE id = $1`,
		coll.ID, coll.ConfigurationID, coll.Name, coll.UpdatedAt)
	return err
}

func (r *collectionRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := r.tx.Exec(ctx, `UPDATE collection SET deleted_at = $2, updated_at = $2 WHERE id = $1`, id, now)
	return err
}

func (r *collectionRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM collection WHERE id = $1`, id)
	return err
}

func scanCollection(row rowScanner) (*relrag.Collection, error) {
	var c relrag.Collection
	var deletedAt *time.Time
	err := row.Scan(&c.ID, &c.ConfigurationID, &c.Name, &c.CreatedAt, &c.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	c.DeletedAt = deletedAt
	return &c, nil
}
