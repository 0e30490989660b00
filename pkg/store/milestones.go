package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

const milestoneColumns = `id, project_id, name, description, status, due_date, created_by, created_at, updated_at`

func scanMilestone(row interface{ Scan(...any) error }, now time.Time) (*model.Milestone, error) {
	var m model.Milestone
	err := row.Scan(&m.ID, &m.ProjectID, &m.Name, &m.Description, &m.Status,
		&m.DueDate, &m.CreatedBy, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, translateErr("scanning milestone", err)
	}
	// Overdue is derived, never stored.
	m.Overdue = m.DueDate != nil && m.DueDate.Before(now) && !model.Finished(m.Status)
	return &m, nil
}

func (s *Store) ListMilestones(ctx context.Context, projectID string) ([]*model.Milestone, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+milestoneColumns+` FROM milestones WHERE project_id = $1 ORDER BY due_date, created_at`),
		projectID)
	if err != nil {
		return nil, translateErr("listing milestones", err)
	}
	defer rows.Close()

	now := time.Now().UTC()
	var milestones []*model.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows, now)
		if err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}

func (s *Store) GetMilestone(ctx context.Context, projectID, id string) (*model.Milestone, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+milestoneColumns+` FROM milestones WHERE id = $1 AND project_id = $2`),
		id, projectID)
	return scanMilestone(row, time.Now().UTC())
}

func (s *Store) CreateMilestone(ctx context.Context, actorID string, m *model.Milestone) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedBy = actorID
	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now
	if m.Status == "" {
		m.Status = "planning"
	}
	m.Overdue = m.DueDate != nil && m.DueDate.Before(now) && !model.Finished(m.Status)
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO milestones (`+milestoneColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`),
		m.ID, m.ProjectID, m.Name, m.Description, m.Status, m.DueDate,
		m.CreatedBy, m.CreatedAt, m.UpdatedAt)
	return translateErr("inserting milestone", err)
}

func (s *Store) UpdateMilestone(ctx context.Context, actorID string, m *model.Milestone) error {
	m.UpdatedAt = time.Now().UTC()
	m.Overdue = m.DueDate != nil && m.DueDate.Before(m.UpdatedAt) && !model.Finished(m.Status)
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE milestones
		SET name = $1, description = $2, status = $3, due_date = $4, updated_at = $5
		WHERE id = $6 AND project_id = $7`),
		m.Name, m.Description, m.Status, m.DueDate, m.UpdatedAt, m.ID, m.ProjectID)
	if err != nil {
		return translateErr("updating milestone", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteMilestone(ctx context.Context, actorID, projectID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM milestones WHERE id = $1 AND project_id = $2`), id, projectID)
	if err != nil {
		return translateErr("deleting milestone", err)
	}
	return requireAffected(res)
}
