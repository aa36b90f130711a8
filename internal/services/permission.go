package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dimitrije/smsdesk/internal/database"
	"github.com/dimitrije/smsdesk/internal/models"
	"github.com/dimitrije/smsdesk/internal/permissions"
)

var ErrUnknownPermission = errors.New("unknown permission")

// PermissionService resolves the permission set of a role.
type PermissionService struct {
	db *database.DB
}

func NewPermissionService(db *database.DB) *PermissionService {
	return &PermissionService{db: db}
}

func (s *PermissionService) ForRole(ctx context.Context, role string) (permissions.Set, error) {
	if role == models.RoleSuperAdmin {
		return permissions.All(), nil
	}

	rows, err := s.db.Pool.Query(ctx, `
		SELECT permission FROM role_permissions WHERE role = $1
	`, role)
	if err != nil {
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	defer rows.Close()

	set := permissions.Set{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		set[name] = true
	}
	return set, rows.Err()
}

func (s *PermissionService) Grant(ctx context.Context, role, permission string) error {
	if !permissions.IsKnown(permission) {
		return fmt.Errorf("%w: %s", ErrUnknownPermission, permission)
	}
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO role_permissions (role, permission) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, role, permission)
	return err
}

func (s *PermissionService) Revoke(ctx context.Context, role, permission string) error {
	_, err := s.db.Pool.Exec(ctx, `
		DELETE FROM role_permissions WHERE role = $1 AND permission = $2
	`, role, permission)
	return err
}
