package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

const taskColumns = `id, project_id, milestone_id, title, description, status, priority, assignee_id, due_date, created_by, created_at, updated_at`

func scanTask(row interface{ Scan(...any) error }) (*model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.MilestoneID, &t.Title, &t.Description,
		&t.Status, &t.Priority, &t.AssigneeID, &t.DueDate, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, translateErr("scanning task", err)
	}
	return &t, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID string) ([]*model.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+taskColumns+` FROM tasks WHERE project_id = $1 ORDER BY created_at`),
		projectID)
	if err != nil {
		return nil, translateErr("listing tasks", err)
	}
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *Store) GetTask(ctx context.Context, projectID, id string) (*model.Task, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND project_id = $2`),
		id, projectID)
	return scanTask(row)
}

func (s *Store) CreateTask(ctx context.Context, actorID string, t *model.Task) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.CreatedBy = actorID
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Status == "" {
		t.Status = model.TaskStatusTodo
	}
	if t.Priority == "" {
		t.Priority = "medium"
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`),
		t.ID, t.ProjectID, t.MilestoneID, t.Title, t.Description, t.Status,
		t.Priority, t.AssigneeID, t.DueDate, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	return translateErr("inserting task", err)
}

func (s *Store) UpdateTask(ctx context.Context, actorID string, t *model.Task) error {
	t.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE tasks
		SET milestone_id = $1, title = $2, description = $3, status = $4,
		    priority = $5, assignee_id = $6, due_date = $7, updated_at = $8
		WHERE id = $9 AND project_id = $10`),
		t.MilestoneID, t.Title, t.Description, t.Status, t.Priority,
		t.AssigneeID, t.DueDate, t.UpdatedAt, t.ID, t.ProjectID)
	if err != nil {
		return translateErr("updating task", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteTask(ctx context.Context, actorID, projectID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM tasks WHERE id = $1 AND project_id = $2`), id, projectID)
	if err != nil {
		return translateErr("deleting task", err)
	}
	return requireAffected(res)
}
