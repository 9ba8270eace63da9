package repository

import (
	"context"
	"fmt"

	"github.com/mmeshcher/sigecafe-server/internal/model"
)

type permissionRow struct {
	ID    int64    `db:"id"`
	Path  string   `db:"path"`
	Title string   `db:"title"`
	Roles []string `db:"roles"`
}

// ListPermissions возвращает все права доступа к разделам приложения.
func (r *PostgresRepository) ListPermissions(ctx context.Context) ([]model.Permission, error) {
	rows, err := collect[permissionRow](ctx, r,
		`SELECT id, path, title, roles FROM permissions ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("select permissions: %w", err)
	}

	res := make([]model.Permission, 0, len(rows))
	for _, row := range rows {
		roles := make([]model.Role, 0, len(row.Roles))
		for _, role := range row.Roles {
			roles = append(roles, model.Role(role))
		}
		res = append(res, model.Permission{
			ID:    row.ID,
			Path:  row.Path,
			Title: row.Title,
			Roles: roles,
		})
	}
	return res, nil
}
