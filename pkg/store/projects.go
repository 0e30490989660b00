package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

const projectColumns = `id, name, description, owner_id, status, priority, start_date, end_date, created_at, updated_at`

func scanProject(row interface{ Scan(...any) error }) (*model.Project, error) {
	var p model.Project
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.OwnerID, &p.Status, &p.Priority,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, translateErr("scanning project", err)
	}
	return &p, nil
}

// CreateProject inserts a project owned by actorID.
func (s *Store) CreateProject(ctx context.Context, actorID string, p *model.Project) error {
	s.fillProjectDefaults(actorID, p)
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`),
		p.ID, p.Name, p.Description, p.OwnerID, p.Status, p.Priority,
		p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	return translateErr("inserting project", err)
}

// CreateProjectWizard creates a project together with its initial milestones
// and tasks in a single transaction. Either everything lands or nothing does;
// there is no partially-created state to clean up afterwards.
func (s *Store) CreateProjectWizard(ctx context.Context, actorID string, p *model.Project,
	milestones []*model.Milestone, tasks []*model.Task) error {

	s.fillProjectDefaults(actorID, p)
	now := time.Now().UTC()

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO projects (`+projectColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`),
			p.ID, p.Name, p.Description, p.OwnerID, p.Status, p.Priority,
			p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return translateErr("inserting project", err)
		}

		for _, m := range milestones {
			m.ID = uuid.NewString()
			m.ProjectID = p.ID
			m.CreatedBy = actorID
			m.CreatedAt = now
			m.UpdatedAt = now
			if m.Status == "" {
				m.Status = "planning"
			}
			_, err := tx.ExecContext(ctx, s.q(`INSERT INTO milestones
				(id, project_id, name, description, status, due_date, created_by, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
				m.ID, m.ProjectID, m.Name, m.Description, m.Status, m.DueDate,
				m.CreatedBy, m.CreatedAt, m.UpdatedAt)
			if err != nil {
				return translateErr("inserting wizard milestone", err)
			}
		}

		for _, t := range tasks {
			t.ID = uuid.NewString()
			t.ProjectID = p.ID
			t.CreatedBy = actorID
			t.CreatedAt = now
			t.UpdatedAt = now
			if t.Status == "" {
				t.Status = model.TaskStatusTodo
			}
			if t.Priority == "" {
				t.Priority = "medium"
			}
			_, err := tx.ExecContext(ctx, s.q(`INSERT INTO tasks
				(id, project_id, milestone_id, title, description, status, priority, assignee_id, due_date, created_by, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`),
				t.ID, t.ProjectID, t.MilestoneID, t.Title, t.Description, t.Status,
				t.Priority, t.AssigneeID, t.DueDate, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
			if err != nil {
				return translateErr("inserting wizard task", err)
			}
		}
		return nil
	})
}

func (s *Store) fillProjectDefaults(actorID string, p *model.Project) {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.OwnerID = actorID
	if p.Status == "" {
		p.Status = "active"
	}
	if p.Priority == "" {
		p.Priority = "medium"
	}
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
}

func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+projectColumns+` FROM projects WHERE id = $1`), id)
	return scanProject(row)
}

// ListProjectsForUser returns projects the user owns plus projects where the
// user holds at least one module grant. Admins see everything.
func (s *Store) ListProjectsForUser(ctx context.Context, userID string) ([]*model.Project, error) {
	admin, err := s.IsAdmin(ctx, userID)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + projectColumns + ` FROM projects
		WHERE owner_id = $1
		   OR id IN (SELECT project_id FROM module_permissions WHERE user_id = $1)
		ORDER BY created_at DESC`
	args := []any{userID}
	if admin {
		query = `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC`
		args = nil
	}

	rows, err := s.db.QueryContext(ctx, s.q(query), args...)
	if err != nil {
		return nil, translateErr("listing projects", err)
	}
	defer rows.Close()

	var projects []*model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// UpdateProject persists the full row; partial-patch merging happens in the
// handler against the currently stored row.
func (s *Store) UpdateProject(ctx context.Context, actorID string, p *model.Project) error {
	p.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE projects
		SET name = $1, description = $2, status = $3, priority = $4,
		    start_date = $5, end_date = $6, updated_at = $7
		WHERE id = $8`),
		p.Name, p.Description, p.Status, p.Priority, p.StartDate, p.EndDate, p.UpdatedAt, p.ID)
	if err != nil {
		return translateErr("updating project", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteProject(ctx context.Context, actorID, id string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM projects WHERE id = $1`), id)
	if err != nil {
		return translateErr("deleting project", err)
	}
	return requireAffected(res)
}

// requireAffected converts a zero-row mutation into ErrNotFound.
func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
