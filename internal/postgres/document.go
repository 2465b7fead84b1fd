package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

type documentRepository struct {
	tx pgx.Tx
}

func (r *documentRepository) GetByID(ctx context.Context, id uuid.UUID, includeDeleted bool) (*relrag.Document, error) {
	query := `SELECT id, content, source_hash, created_at, updated_at, deleted_at FROM document WHERE id = $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	row := r.tx.QueryRow(ctx, query, id)
	return scanDocument(row)
}

func (r *documentRepository) GetBySourceHash(ctx context.Context, hash [16]byte) (*relrag.Document, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, content, source_hash, created_at, updated_at, deleted_at
FROM document WHERE source_hash = $1 AND deleted_at IS NULL`, hash[:])
	return scanDocument(row)
}

func (r *documentRepository) List(ctx context.Context, cursor string, limit int, includeDeleted bool) (relrag.Page[relrag.Document], error) {
	after, err := decodeCursor(cursor)
	if err != nil {
		return relrag.Page[relrag.Document]{}, err
	}
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT id, content, source_hash, created_at, updated_at, deleted_at FROM document WHERE id > $1`
	if !includeDeleted {
		query += ` AND deleted_at IS NULL`
	}
	query += ` ORDER BY id LIMIT $2`

	rows, err := r.tx.Query(ctx, query, after, limit+1)
	if err != nil {
		return relrag.Page[relrag.Document]{}, err
	}
	defer rows.Close()

	var items []relrag.Document
	for rows.Next() {
		doc, err := scanDocumentRow(rows)
		if err != nil {
			return relrag.Page[relrag.Document]{}, err
		}
		items = append(items, *doc)
	}
	if err := rows.Err(); err != nil {
		return relrag.Page[relrag.Document]{}, err
	}
	return pageOf(items, limit), nil
}

func (r *documentRepository) Create(ctx context.Context, doc relrag.Document) (relrag.Document, error) {
	now := time.Now().UTC()
	doc.CreatedAt, doc.UpdatedAt = now, now
	_, err := r.tx.Exec(ctx, `INSERT INTO document (id, content, source_hash, created_at, updated_at, deleted_at)
VALUES ($1, $2, $3, $4, $5, $6)`, doc.ID, doc.Content, doc.SourceHash[:], doc.CreatedAt, doc.UpdatedAt, doc.DeletedAt)
	if err != nil {
		return relrag.Document{}, err
	}
	return doc, nil
}

func (r *documentRepository) Update(ctx context.Context, doc relrag.Document) (relrag.Document, error) {
	doc.UpdatedAt = time.Now().UTC()
	_, err := r.tx.Exec(ctx, `UPDATE document SET content = $2, updated_at = $3 WHERE id = $1`,
		doc.ID, doc.Content, doc.UpdatedAt)
	if err != nil {
		return relrag.Document{}, err
	}
	return doc, nil
}

func (r *documentRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	_, err := r.tx.Exec(ctx, `UPDATE document SET deleted_at = $2, updated_at = $2 WHERE id = $1`, id, now)
	return err
}

func (r *documentRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM document WHERE id = $1`, id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row pgx.Row) (*relrag.Document, error) {
	return scanDocumentRow(row)
}

func scanDocumentRow(row rowScanner) (*relrag.Document, error) {
	var doc relrag.Document
	var hash []byte
	var deletedAt *time.Time
	err := row.Scan(&doc.ID, &doc.Content, &hash, &doc.CreatedAt, &doc.UpdatedAt, &deletedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	copy(doc.SourceHash[:], hash)
	doc.DeletedAt = deletedAt
	return &doc, nil
}
