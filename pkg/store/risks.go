package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

const riskColumns = `id, project_id, title, description, category, likelihood, impact, risk_score, status, mitigation_plan, owner_id, created_by, created_at, updated_at`

func scanRisk(row interface{ Scan(...any) error }) (*model.Risk, error) {
	var r model.Risk
	err := row.Scan(&r.ID, &r.ProjectID, &r.Title, &r.Description, &r.Category,
		&r.Likelihood, &r.Impact, &r.Score, &r.Status, &r.MitigationPlan,
		&r.OwnerID, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, translateErr("scanning risk", err)
	}
	return &r, nil
}

func (s *Store) ListRisks(ctx context.Context, projectID string) ([]*model.Risk, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+riskColumns+` FROM risks WHERE project_id = $1 ORDER BY risk_score DESC, created_at`),
		projectID)
	if err != nil {
		return nil, translateErr("listing risks", err)
	}
	defer rows.Close()

	var risks []*model.Risk
	for rows.Next() {
		r, err := scanRisk(rows)
		if err != nil {
			return nil, err
		}
		risks = append(risks, r)
	}
	return risks, rows.Err()
}

func (s *Store) GetRisk(ctx context.Context, projectID, id string) (*model.Risk, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+riskColumns+` FROM risks WHERE id = $1 AND project_id = $2`),
		id, projectID)
	return scanRisk(row)
}

// CreateRisk inserts a risk. The score is always Likelihood * Impact as
// computed here; any client-supplied value is discarded.
func (s *Store) CreateRisk(ctx context.Context, actorID string, r *model.Risk) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedBy = actorID
	now := time.Now().UTC()
	r.CreatedAt = now
	r.UpdatedAt = now
	if r.Status == "" {
		r.Status = model.RiskStatusOpen
	}
	r.Score = r.Likelihood * r.Impact
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO risks (`+riskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`),
		r.ID, r.ProjectID, r.Title, r.Description, r.Category, r.Likelihood,
		r.Impact, r.Score, r.Status, r.MitigationPlan, r.OwnerID,
		r.CreatedBy, r.CreatedAt, r.UpdatedAt)
	return translateErr("inserting risk", err)
}

// UpdateRisk persists the full row, recomputing the score server-side.
func (s *Store) UpdateRisk(ctx context.Context, actorID string, r *model.Risk) error {
	r.UpdatedAt = time.Now().UTC()
	r.Score = r.Likelihood * r.Impact
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE risks
		SET title = $1, description = $2, category = $3, likelihood = $4, impact = $5,
		    risk_score = $6, status = $7, mitigation_plan = $8, owner_id = $9, updated_at = $10
		WHERE id = $11 AND project_id = $12`),
		r.Title, r.Description, r.Category, r.Likelihood, r.Impact, r.Score,
		r.Status, r.MitigationPlan, r.OwnerID, r.UpdatedAt, r.ID, r.ProjectID)
	if err != nil {
		return translateErr("updating risk", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteRisk(ctx context.Context, actorID, projectID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM risks WHERE id = $1 AND project_id = $2`), id, projectID)
	if err != nil {
		return translateErr("deleting risk", err)
	}
	return requireAffected(res)
}
