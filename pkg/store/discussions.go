package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

func (s *Store) ListDiscussions(ctx context.Context, projectID string) ([]*model.Discussion, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, project_id, title, body, author_id, created_at
			FROM discussions WHERE project_id = $1 ORDER BY created_at DESC`),
		projectID)
	if err != nil {
		return nil, translateErr("listing discussions", err)
	}
	defer rows.Close()

	var discussions []*model.Discussion
	for rows.Next() {
		var d model.Discussion
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Body, &d.AuthorID, &d.CreatedAt); err != nil {
			return nil, translateErr("scanning discussion", err)
		}
		discussions = append(discussions, &d)
	}
	return discussions, rows.Err()
}

func (s *Store) CreateDiscussion(ctx context.Context, actorID string, d *model.Discussion) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	d.AuthorID = actorID
	d.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO discussions
		(id, project_id, title, body, author_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`),
		d.ID, d.ProjectID, d.Title, d.Body, d.AuthorID, d.CreatedAt)
	return translateErr("inserting discussion", err)
}

func (s *Store) DeleteDiscussion(ctx context.Context, actorID, projectID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM discussions WHERE id = $1 AND project_id = $2`), id, projectID)
	if err != nil {
		return translateErr("deleting discussion", err)
	}
	return requireAffected(res)
}
