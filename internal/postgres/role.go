package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/guility/relrag/internal/relrag"
)

type roleRepository struct {
	tx pgx.Tx
}

func (r *roleRepository) GetByID(ctx context.Context, id uuid.UUID) (*relrag.Role, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, description FROM role WHERE id = $1`, id)
	return scanRole(row)
}

func (r *roleRepository) GetByName(ctx context.Context, name string) (*relrag.Role, error) {
	row := r.tx.QueryRow(ctx, `SELECT id, name, description FROM role WHERE name = $1`, name)
	return scanRole(row)
}

func (r *roleRepository) ListAll(ctx context.Context) ([]relrag.Role, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, name, description FROM role ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []relrag.Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *role)
	}
	return out, rows.Err()
}

func (r *roleRepository) GetActionsForRole(ctx context.Context, roleID uuid.UUID) ([]string, error) {
	rows, err := r.tx.Query(ctx, `SELECT action FROM role_permission WHERE role_id = $1 ORDER BY action`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

func scanRole(row rowScanner) (*relrag.Role, error) {
	var role relrag.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &role, nil
}
