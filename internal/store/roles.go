package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Role struct {
	ID   int64
	Name string
}

type RoleRepo struct {
	q DBTX
}

func NewRoleRepo(q DBTX) *RoleRepo {
	return &RoleRepo{q: q}
}

func (r *RoleRepo) GetByName(ctx context.Context, name string) (*Role, error) {
	var role Role
	err := r.q.QueryRowContext(ctx, `
		SELECT id, name FROM roles WHERE name = ?
	`, name).Scan(&role.ID, &role.Name)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get role by name: %w", err)
	}
	return &role, nil
}

func (r *RoleRepo) List(ctx context.Context) ([]Role, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("store: list roles: %w", err)
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("store: list roles: %w", err)
		}
		roles = append(roles, role)
	}
	return roles, rows.Err()
}

// Assign attaches a role to a user. Assigning the same role twice is a
// no-op.
func (r *RoleRepo) Assign(ctx context.Context, userID string, roleID int64) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT OR IGNORE INTO user_roles (user_id, role_id) VALUES (?, ?)
	`, userID, roleID)
	if err != nil {
		return fmt.Errorf("store: assign role: %w", err)
	}
	return nil
}

// ListForUser returns the role names attached to userID.
func (r *RoleRepo) ListForUser(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT r.name
		FROM user_roles ur
		JOIN roles r ON r.id = ur.role_id
		WHERE ur.user_id = ?
		ORDER BY r.name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("store: list roles for user: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("store: list roles for user: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
