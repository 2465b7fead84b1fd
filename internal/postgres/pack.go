package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

type packRepository struct {
	tx pgx.Tx
}

func (r *packRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*relrag.Pack, error) {
	query := `SELECT id, document_id, created_at, updated_at, deleted_at FROM pack WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	return scanPack(r.tx.QueryRow(ctx, query, id))
}

func (r *packRepository) List(ctx context.Context, documentID, collectionID *uuid.UUID, cursor string, limit int, includeDeleted bool) (relrag.Page[relrag.Pack], error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return relrag.Page[relrag.Pack]{}, err
	}
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT DISTINCT p.id, p.document_id, p.created_at, p.updated_at, p.deleted_at
FROM pack p`
	args := []any{after}
	where := []string{"p.id > $1"}

	if collectionID != nil {
		query += ` JOIN pack_collection pc ON pc.pack_id = p.id`
		args = append(args, *collectionID)
		where = append(where, "pc.collection_id = $"+itoa(len(args)))
	}
	if documentID != nil {
		args = append(args, *documentID)
		where = append(where, "p.document_id = $"+itoa(len(args)))
	}
	if !includeDeleted {
		where = append(where, "p.deleted_at IS NULL")
	}
	query += " WHERE " + joinAnd(where) + " ORDER BY p.id LIMIT $" + itoa(len(args)+1)
	args = append(args, limit+1)

	rows, err := r.tx.Query(ctx, query, args...)
	if err != nil {
		return relrag.Page[relrag.Pack]{}, err
	}
	defer rows.Close()

	var items []relrag.Pack
	for rows.Next() {
		p, err := scanPack(rows)
		if err != nil {
			return relrag.Page[relrag.Pack]{}, err
		}
		items = append(items, *p)
	}
	if err := rows.Err(); err != nil {
		return relrag.Page[relrag.Pack]{}, err
	}
	return trimPage(items, limit, func(p relrag.Pack) uuid.UUID { return p.ID }), nil
}

func (r *packRepository) Create(ctx context.Context, pack relrag.Pack) (relrag.Pack, error) {
	now := time.Now().UTC()
	pack.CreatedAt, pack.UpdatedAt = now, now
	_, err := r.tx.Exec(ctx, `INSERT INTO pack (id, document_id, created_at, updated_at, deleted_at)
VALUES ($1, $2, $3, $4, $5)`, pack.ID, pack.DocumentID, pack.CreatedAt, pack.UpdatedAt, pack.DeletedAt)
	if err != nil {
		return relrag.Pack{}, err
	}
	return pack, nil
}

func (r *packRepository) Update(ctx context.Context, pack relrag.Pack) error {
	pack.UpdatedAt = time.Now().UTC()
	_, err := r.tx.Exec(ctx, `UPDATE pack SET updated_at = $2 WHERE id = $1`, pack.ID, pack.UpdatedAt)
	return err
}

func (r *packRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := r.tx.Exec(ctx, `UPDATE pack SET deleted_at = $2, updated_at = $2 WHERE id = $1`, id, now)
	return err
}

func (r *packRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM pack WHERE id = $1`, id)
	return err
}

func (r *packRepository) AddToCollection(ctx context.Context, packID, collectionID uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO pack_collection (pack_id, collection_id) VALUES ($1, $2)
ON CONFLICT DO NOTHING`, packID, collectionID)
	return err
}

func scanPack(row rowScanner) (*relrag.Pack, error) {
	var p relrag.Pack
	var deletedAt *time.Time
	err := row.Scan(&p.ID, &p.DocumentID, &p.CreatedAt, &p.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	p.DeletedAt = deletedAt
	return &p, nil
}
