package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

type permissionRepository struct {
	tx pgx.Tx
}

func (r *permissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*relrag.Permission, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, collection_id, subject, role_id, actions_override, created_at, created_by
FROM permission WHERE id = $1`, id)
	return scanPermission(row)
}

func (r *permissionRepository) ListByCollection(ctx context.Context, collectionID uuid.UUID) ([]relrag.Permission, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, collection_id, subject, role_id, actions_override, created_at, created_by
FROM permission WHERE collection_id = $1 ORDER BY subject`, collectionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func (r *permissionRepository) ListBySubject(ctx context.Context, subject string) ([]relrag.Permission, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, collection_id, subject, role_id, actions_override, created_at, created_by
FROM permission WHERE subject = $1 ORDER BY collection_id`, subject)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPermissions(rows)
}

func (r *permissionRepository) GetForCollection(ctx context.Context, collectionID uuid.UUID, subject string) (*relrag.Permission, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, collection_id, subject, role_id, actions_override, created_at, created_by
FROM permission WHERE collection_id = $1 AND subject = $2`, collectionID, subject)
	return scanPermission(row)
}

func (r *permissionRepository) Create(ctx context.Context, perm relrag.Permission) (relrag.Permission, error) {
	perm.CreatedAt = time.Now().UTC()
	override, err := marshalActionsOverride(perm.ActionsOverride)
	if err != nil {
		return relrag.Permission{}, err
	}
	_, err = r.tx.Exec(ctx, `INSERT INTO permission (id, collection_id, subject, role_id, actions_override, created_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		perm.ID, perm.CollectionID, perm.Subject, perm.RoleID, override, perm.CreatedAt, perm.CreatedBy)
	if err != nil {
		return relrag.Permission{}, err
	}
	return perm, nil
}

func (r *permissionRepository) Update(ctx context.Context, perm relrag.Permission) error {
	override, err := marshalActionsOverride(perm.ActionsOverride)
	if err != nil {
		return err
	}
	_, err = r.tx.Exec(ctx, `UPDATE permission SET role_id = $2, actions_override = $3 WHERE id = $1`,
		perm.ID, perm.RoleID, override)
	return err
}

func (r *permissionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.tx.Exec(ctx, `DELETE FROM permission WHERE id = $1`, id)
	return err
}

func marshalActionsOverride(actions []string) ([]byte, error) {
	if actions == nil {
		return nil, nil
	}
	return json.Marshal(actions)
}

func scanPermissions(rows pgx.Rows) ([]relrag.Permission, error) {
	var out []relrag.Permission
	for rows.Next() {
		p, err := scanPermission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func scanPermission(row rowScanner) (*relrag.Permission, error) {
	var p relrag.Permission
	var override []byte
	err := row.Scan(&p.ID, &p.CollectionID, &p.Subject, &p.RoleID, &override, &p.CreatedAt, &p.CreatedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if len(override) > 0 {
		if err := json.Unmarshal(override, &p.ActionsOverride); err != nil {
			return nil, err
		}
	}
	return &p, nil
}
