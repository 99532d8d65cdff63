package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"minicms/internal/biz"
)

type roleRepo struct {
	db *DB
}

// NewRoleRepo 创建角色仓库
func NewRoleRepo(db *DB) biz.RoleRepo {
	return &roleRepo{db: db}
}

func (r *roleRepo) List(ctx context.Context) ([]biz.Role, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT id, name FROM roles ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	defer rows.Close()

	var roles []biz.Role
	for rows.Next() {
		var role biz.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("failed to scan role: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

func (r *roleRepo) FindByID(ctx context.Context, id int64) (*biz.Role, error) {
	var role biz.Role
	err := r.db.QueryRowContext(ctx, r.db.rebind("SELECT id, name FROM roles WHERE id = ?"), id).Scan(&role.ID, &role.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, biz.ErrRoleNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query role: %w", err)
	}
	return &role, nil
}
