package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

const stakeholderColumns = `id, project_id, name, role, organization, influence, interest, email, created_by, created_at, updated_at`

func scanStakeholder(row interface{ Scan(...any) error }) (*model.Stakeholder, error) {
	var st model.Stakeholder
	err := row.Scan(&st.ID, &st.ProjectID, &st.Name, &st.Role, &st.Organization,
		&st.Influence, &st.Interest, &st.Email, &st.CreatedBy, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, translateErr("scanning stakeholder", err)
	}
	return &st, nil
}

func (s *Store) ListStakeholders(ctx context.Context, projectID string) ([]*model.Stakeholder, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT `+stakeholderColumns+` FROM stakeholders WHERE project_id = $1 ORDER BY name`),
		projectID)
	if err != nil {
		return nil, translateErr("listing stakeholders", err)
	}
	defer rows.Close()

	var stakeholders []*model.Stakeholder
	for rows.Next() {
		st, err := scanStakeholder(rows)
		if err != nil {
			return nil, err
		}
		stakeholders = append(stakeholders, st)
	}
	return stakeholders, rows.Err()
}

func (s *Store) CreateStakeholder(ctx context.Context, actorID string, st *model.Stakeholder) error {
	if st.ID == "" {
		st.ID = uuid.NewString()
	}
	st.CreatedBy = actorID
	now := time.Now().UTC()
	st.CreatedAt = now
	st.UpdatedAt = now
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO stakeholders (`+stakeholderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`),
		st.ID, st.ProjectID, st.Name, st.Role, st.Organization, st.Influence,
		st.Interest, st.Email, st.CreatedBy, st.CreatedAt, st.UpdatedAt)
	return translateErr("inserting stakeholder", err)
}

func (s *Store) GetStakeholder(ctx context.Context, projectID, id string) (*model.Stakeholder, error) {
	row := s.db.QueryRowContext(ctx,
		s.q(`SELECT `+stakeholderColumns+` FROM stakeholders WHERE id = $1 AND project_id = $2`),
		id, projectID)
	return scanStakeholder(row)
}

func (s *Store) UpdateStakeholder(ctx context.Context, actorID string, st *model.Stakeholder) error {
	st.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, s.q(`UPDATE stakeholders
		SET name = $1, role = $2, organization = $3, influence = $4, interest = $5,
		    email = $6, updated_at = $7
		WHERE id = $8 AND project_id = $9`),
		st.Name, st.Role, st.Organization, st.Influence, st.Interest,
		st.Email, st.UpdatedAt, st.ID, st.ProjectID)
	if err != nil {
		return translateErr("updating stakeholder", err)
	}
	return requireAffected(res)
}

func (s *Store) DeleteStakeholder(ctx context.Context, actorID, projectID, id string) error {
	res, err := s.db.ExecContext(ctx,
		s.q(`DELETE FROM stakeholders WHERE id = $1 AND project_id = $2`), id, projectID)
	if err != nil {
		return translateErr("deleting stakeholder", err)
	}
	return requireAffected(res)
}
