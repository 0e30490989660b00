package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

// The Store implements authz.PolicyStore.

// ProjectOwner returns the owner of a project, or authz.ErrProjectNotFound.
func (s *Store) ProjectOwner(ctx context.Context, projectID string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT owner_id FROM projects WHERE id = $1`), projectID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", authz.ErrProjectNotFound
	}
	if err != nil {
		return "", translateErr("resolving project owner", err)
	}
	return owner, nil
}

// IsAdmin reports whether the user holds the global admin role.
func (s *Store) IsAdmin(ctx context.Context, userID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT COUNT(*) FROM user_roles WHERE user_id = $1 AND role = 'admin'`),
		userID).Scan(&n)
	if err != nil {
		return false, translateErr("resolving admin role", err)
	}
	return n > 0, nil
}

// Grants returns the explicit module grants for (project, user).
func (s *Store) Grants(ctx context.Context, projectID, userID string) (map[authz.Module]authz.Level, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT module, level FROM module_permissions WHERE project_id = $1 AND user_id = $2`),
		projectID, userID)
	if err != nil {
		return nil, translateErr("listing grants", err)
	}
	defer rows.Close()

	grants := make(map[authz.Module]authz.Level)
	for rows.Next() {
		var moduleName, levelName string
		if err := rows.Scan(&moduleName, &levelName); err != nil {
			return nil, translateErr("scanning grant", err)
		}
		m, err := authz.ParseModule(moduleName)
		if err != nil {
			// Rows written before a module was retired are skipped, not fatal.
			s.logger.WarnContext(ctx, "skipping grant with unknown module",
				"module", moduleName, "project_id", projectID)
			continue
		}
		lvl, err := authz.ParseLevel(levelName)
		if err != nil {
			continue
		}
		grants[m] = lvl
	}
	return grants, rows.Err()
}

// ListGrants returns every grant row on a project, for access management.
func (s *Store) ListGrants(ctx context.Context, projectID string) ([]*model.ModulePermission, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, project_id, user_id, module, level, granted_by, created_at
			FROM module_permissions WHERE project_id = $1 ORDER BY user_id, module`),
		projectID)
	if err != nil {
		return nil, translateErr("listing project grants", err)
	}
	defer rows.Close()

	var grants []*model.ModulePermission
	for rows.Next() {
		var g model.ModulePermission
		if err := rows.Scan(&g.ID, &g.ProjectID, &g.UserID, &g.Module, &g.Level,
			&g.GrantedBy, &g.CreatedAt); err != nil {
			return nil, translateErr("scanning project grant", err)
		}
		grants = append(grants, &g)
	}
	return grants, rows.Err()
}

// UpsertGrant creates or replaces the grant for (project, user, module).
func (s *Store) UpsertGrant(ctx context.Context, actorID string, g *model.ModulePermission) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	g.GrantedBy = actorID
	g.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO module_permissions
		(id, project_id, user_id, module, level, granted_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (project_id, user_id, module) DO UPDATE SET
			level = EXCLUDED.level,
			granted_by = EXCLUDED.granted_by`),
		g.ID, g.ProjectID, g.UserID, g.Module, g.Level, g.GrantedBy, g.CreatedAt)
	return translateErr("upserting grant", err)
}

// RevokeGrant removes the grant for (project, user, module).
func (s *Store) RevokeGrant(ctx context.Context, actorID, projectID, userID, module string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM module_permissions WHERE project_id = $1 AND user_id = $2 AND module = $3`),
		projectID, userID, module)
	if err != nil {
		return translateErr("revoking grant", err)
	}
	return requireAffected(res)
}

// GetUser resolves a user by id. Used by the auth middleware to verify the
// token subject still exists.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, email, name, created_at FROM users WHERE id = $1`), id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, translateErr("getting user", err)
	}
	return &u, nil
}

// CreateUser inserts a user row. Used by the seed utility.
func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	u.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO users
		(id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`),
		u.ID, u.Email, u.Name, u.PasswordHash, u.CreatedAt)
	return translateErr("inserting user", err)
}

// GrantAdminRole marks a user as global admin. Used by the seed utility.
func (s *Store) GrantAdminRole(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO user_roles (user_id, role, created_at)
		VALUES ($1, 'admin', $2) ON CONFLICT (user_id, role) DO NOTHING`),
		userID, time.Now().UTC())
	return translateErr("granting admin role", err)
}
