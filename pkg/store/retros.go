package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

// defaultRetroColumns are created with every new retrospective.
var defaultRetroColumns = []string{"What went well", "What to improve", "Action items"}

// CreateRetro inserts a retrospective and its default columns in one
// transaction.
func (s *Store) CreateRetro(ctx context.Context, actorID string, r *model.Retrospective) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedBy = actorID
	r.CreatedAt = time.Now().UTC()
	if r.Status == "" {
		r.Status = "active"
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, s.q(`INSERT INTO retrospectives
			(id, project_id, name, sprint, status, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`),
			r.ID, r.ProjectID, r.Name, r.Sprint, r.Status, r.CreatedBy, r.CreatedAt)
		if err != nil {
			return translateErr("inserting retrospective", err)
		}
		for i, title := range defaultRetroColumns {
			col := model.RetroColumn{ID: uuid.NewString(), RetroID: r.ID, Title: title, Position: i}
			_, err := tx.ExecContext(ctx, s.q(`INSERT INTO retro_columns
				(id, retro_id, title, position) VALUES ($1, $2, $3, $4)`),
				col.ID, col.RetroID, col.Title, col.Position)
			if err != nil {
				return translateErr("inserting retro column", err)
			}
			r.Columns = append(r.Columns, col)
		}
		return nil
	})
}

// ListRetros returns the retrospectives of a project with their full
// column/card trees.
func (s *Store) ListRetros(ctx context.Context, projectID string) ([]*model.Retrospective, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, project_id, name, sprint, status, created_by, created_at
			FROM retrospectives WHERE project_id = $1 ORDER BY created_at DESC`),
		projectID)
	if err != nil {
		return nil, translateErr("listing retrospectives", err)
	}
	defer rows.Close()

	var retros []*model.Retrospective
	for rows.Next() {
		var r model.Retrospective
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Name, &r.Sprint, &r.Status,
			&r.CreatedBy, &r.CreatedAt); err != nil {
			return nil, translateErr("scanning retrospective", err)
		}
		retros = append(retros, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range retros {
		if err := s.loadRetroTree(ctx, r); err != nil {
			return nil, err
		}
	}
	return retros, nil
}

// GetRetro loads one retrospective with columns, cards and actions.
func (s *Store) GetRetro(ctx context.Context, id string) (*model.Retrospective, error) {
	var r model.Retrospective
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, project_id, name, sprint, status, created_by, created_at
			FROM retrospectives WHERE id = $1`), id).
		Scan(&r.ID, &r.ProjectID, &r.Name, &r.Sprint, &r.Status, &r.CreatedBy, &r.CreatedAt)
	if err != nil {
		return nil, translateErr("getting retrospective", err)
	}
	if err := s.loadRetroTree(ctx, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Store) loadRetroTree(ctx context.Context, r *model.Retrospective) error {
	colRows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, retro_id, title, position FROM retro_columns
			WHERE retro_id = $1 ORDER BY position`), r.ID)
	if err != nil {
		return translateErr("listing retro columns", err)
	}
	defer colRows.Close()

	r.Columns = nil
	for colRows.Next() {
		var c model.RetroColumn
		if err := colRows.Scan(&c.ID, &c.RetroID, &c.Title, &c.Position); err != nil {
			return translateErr("scanning retro column", err)
		}
		r.Columns = append(r.Columns, c)
	}
	if err := colRows.Err(); err != nil {
		return err
	}

	for i := range r.Columns {
		cards, err := s.listCards(ctx, r.Columns[i].ID)
		if err != nil {
			return err
		}
		r.Columns[i].Cards = cards
	}

	actRows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, retro_id, text, owner_id, done, created_at FROM retro_actions
			WHERE retro_id = $1 ORDER BY created_at`), r.ID)
	if err != nil {
		return translateErr("listing retro actions", err)
	}
	defer actRows.Close()

	r.Actions = nil
	for actRows.Next() {
		var a model.RetroAction
		if err := actRows.Scan(&a.ID, &a.RetroID, &a.Text, &a.OwnerID, &a.Done, &a.CreatedAt); err != nil {
			return translateErr("scanning retro action", err)
		}
		r.Actions = append(r.Actions, a)
	}
	return actRows.Err()
}

func (s *Store) listCards(ctx context.Context, columnID string) ([]model.RetroCard, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, column_id, text, votes, position, created_by, created_at
			FROM retro_cards WHERE column_id = $1 ORDER BY position, created_at`), columnID)
	if err != nil {
		return nil, translateErr("listing retro cards", err)
	}
	defer rows.Close()

	var cards []model.RetroCard
	for rows.Next() {
		var c model.RetroCard
		if err := rows.Scan(&c.ID, &c.ColumnID, &c.Text, &c.Votes, &c.Position,
			&c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, translateErr("scanning retro card", err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// RetroProject resolves the owning project of a retrospective.
func (s *Store) RetroProject(ctx context.Context, retroID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT project_id FROM retrospectives WHERE id = $1`), retroID).Scan(&projectID)
	if err != nil {
		return "", translateErr("resolving retro project", err)
	}
	return projectID, nil
}

// ColumnProject resolves the owning project of a column.
func (s *Store) ColumnProject(ctx context.Context, columnID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT r.project_id
		FROM retro_columns c JOIN retrospectives r ON r.id = c.retro_id
		WHERE c.id = $1`), columnID).Scan(&projectID)
	if err != nil {
		return "", translateErr("resolving column project", err)
	}
	return projectID, nil
}

// CardProject resolves the owning project of a card.
func (s *Store) CardProject(ctx context.Context, cardID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT r.project_id
		FROM retro_cards cc
		JOIN retro_columns c ON c.id = cc.column_id
		JOIN retrospectives r ON r.id = c.retro_id
		WHERE cc.id = $1`), cardID).Scan(&projectID)
	if err != nil {
		return "", translateErr("resolving card project", err)
	}
	return projectID, nil
}

// AddRetroAction appends an action item to a retrospective.
func (s *Store) AddRetroAction(ctx context.Context, actorID string, a *model.RetroAction) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO retro_actions
		(id, retro_id, text, owner_id, done, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`),
		a.ID, a.RetroID, a.Text, a.OwnerID, a.Done, a.CreatedAt)
	return translateErr("inserting retro action", err)
}

// AddCard appends a card to a column.
func (s *Store) AddCard(ctx context.Context, actorID string, c *model.RetroCard) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedBy = actorID
	c.CreatedAt = time.Now().UTC()
	c.Votes = 0
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO retro_cards
		(id, column_id, text, votes, position, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`),
		c.ID, c.ColumnID, c.Text, c.Votes, c.Position, c.CreatedBy, c.CreatedAt)
	return translateErr("inserting retro card", err)
}

// DeleteCard removes a card; its vote rows go with it via cascade.
func (s *Store) DeleteCard(ctx context.Context, actorID, cardID string) error {
	res, err := s.db.ExecContext(ctx, s.q(`DELETE FROM retro_cards WHERE id = $1`), cardID)
	if err != nil {
		return translateErr("deleting retro card", err)
	}
	return requireAffected(res)
}

// MoveCard reparents a card to another column within the same retrospective.
func (s *Store) MoveCard(ctx context.Context, actorID, cardID, toColumnID string, position int) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var fromRetro, toRetro string
		err := tx.QueryRowContext(ctx, s.q(`SELECT c.retro_id
			FROM retro_cards cc JOIN retro_columns c ON c.id = cc.column_id
			WHERE cc.id = $1`), cardID).Scan(&fromRetro)
		if err != nil {
			return translateErr("resolving card column", err)
		}
		err = tx.QueryRowContext(ctx,
			s.q(`SELECT retro_id FROM retro_columns WHERE id = $1`), toColumnID).Scan(&toRetro)
		if err != nil {
			return translateErr("resolving target column", err)
		}
		if fromRetro != toRetro {
			return errors.New("cannot move card across retrospectives")
		}
		res, err := tx.ExecContext(ctx,
			s.q(`UPDATE retro_cards SET column_id = $1, position = $2 WHERE id = $3`),
			toColumnID, position, cardID)
		if err != nil {
			return translateErr("moving retro card", err)
		}
		return requireAffected(res)
	})
}

// ToggleVote flips the acting user's vote on a card. The vote row and the
// denormalized tally change in the same transaction, so the stored tally
// always equals the live count of vote rows.
func (s *Store) ToggleVote(ctx context.Context, actorID, cardID string) (votes int, added bool, err error) {
	err = s.withTx(ctx, func(tx *sql.Tx) error {
		var existing int
		err := tx.QueryRowContext(ctx,
			s.q(`SELECT COUNT(*) FROM card_votes WHERE card_id = $1 AND user_id = $2`),
			cardID, actorID).Scan(&existing)
		if err != nil {
			return translateErr("checking existing vote", err)
		}

		if existing > 0 {
			if _, err := tx.ExecContext(ctx,
				s.q(`DELETE FROM card_votes WHERE card_id = $1 AND user_id = $2`),
				cardID, actorID); err != nil {
				return translateErr("removing vote", err)
			}
			added = false
		} else {
			if _, err := tx.ExecContext(ctx,
				s.q(`INSERT INTO card_votes (card_id, user_id, created_at) VALUES ($1, $2, $3)`),
				cardID, actorID, time.Now().UTC()); err != nil {
				return translateErr("adding vote", err)
			}
			added = true
		}

		// Rederive the tally from the vote rows instead of incrementing, so
		// a historically skewed counter heals on the next toggle.
		res, err := tx.ExecContext(ctx, s.q(`UPDATE retro_cards
			SET votes = (SELECT COUNT(*) FROM card_votes WHERE card_id = $1)
			WHERE id = $2`), cardID, cardID)
		if err != nil {
			return translateErr("updating vote tally", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}

		return tx.QueryRowContext(ctx,
			s.q(`SELECT votes FROM retro_cards WHERE id = $1`), cardID).Scan(&votes)
	})
	if err != nil {
		return 0, false, err
	}
	return votes, added, nil
}
