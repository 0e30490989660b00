package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

const backlogColumns = `id, project_id, title, description, status, priority, story_points, rank, created_by, created_at, updated_at`

func scanBacklogItem(row interface{ Scan(...any) error }) (*model.BacklogItem, error) {
	var b model.BacklogItem
	err := row.Scan(&b.ID, &b.ProjectID, &b.Title, &b.Description, &b.Status,
		&b.Priority, &b.StoryPoints, &b.Rank, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, translateErr("scanning backlog item", err)
	}
	return &b, nil
}

func (s *Store) ListBacklog(ctx context.Context, projectID string) ([]*model.BacklogItem, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+backlogColumns+` FROM backlog_items WHERE project_id = $1 ORDER BY rank, created_at`),
		projectID)
	if err != nil {
		return nil, translateErr("listing backlog", err)
	}
	defer rows.Close()

	var items []*model.BacklogItem
	for rows.Next() {
		b, err := scanBacklogItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, b)
	}
	return items, rows.Err()
}

func (s *Store) GetBacklogItem(ctx context.Context, projectID, id string) (*model.BacklogItem, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+backlogColumns+` FROM backlog_items WHERE id = $1 AND project_id = $2`),
		id, projectID)
	return scanBacklogItem(row)
}

func (s *Store) CreateBacklogItem(ctx context.Context, actorID string, b *model.BacklogItem) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedBy = actorID
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Status == "" {
		b.Status = "new"
	}
	if b.Priority == "" {
		b.Priority = "medium"
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO backlog_items (`+backlogColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`),
		b.ID, b.ProjectID, b.Title, b.Description, b.Status, b.Priority,
		b.StoryPoints, b.Rank, b.CreatedBy, b.CreatedAt, b.UpdatedAt)
	return translateErr("inserting backlog item", err)
}

func (s *Store) UpdateBacklogItem(ctx context.Context, actorID string, b *model.BacklogItem) error {
	b.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE backlog_items
		SET title = $1, description = $2, status = $3, priority = $4,
		    story_points = $5, rank = $6, updated_at = $7
		WHERE id = $8 AND project_id = $9`),
		b.Title, b.Description, b.Status, b.Priority, b.StoryPoints, b.Rank,
		b.UpdatedAt, b.ID, b.ProjectID)
	if err != nil {
		return translateErr("updating backlog item", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteBacklogItem(ctx context.Context, actorID, projectID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM backlog_items WHERE id = $1 AND project_id = $2`), id, projectID)
	if err != nil {
		return translateErr("deleting backlog item", err)
	}
	return requireAffected(res)
}
