package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

// CreateIteration inserts a capacity iteration. The week count is derived
// from the date range and fixed for the iteration's lifetime.
func (s *Store) CreateIteration(ctx context.Context, actorID string, it *model.CapacityIteration) error {
	if it.ID == "" {
		it.ID = uuid.NewString()
	}
	it.CreatedBy = actorID
	it.CreatedAt = time.Now().UTC()
	it.WeekCount = weeksBetween(it.StartDate, it.EndDate)
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO capacity_iterations
		(id, project_id, name, start_date, end_date, week_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`),
		it.ID, it.ProjectID, it.Name, it.StartDate, it.EndDate, it.WeekCount,
		it.CreatedBy, it.CreatedAt)
	return translateErr("inserting capacity iteration", err)
}

// weeksBetween counts calendar weeks covered by [start, end], minimum 1.
func weeksBetween(start, end time.Time) int {
	if end.Before(start) {
		return 1
	}
	days := int(end.Sub(start).Hours()/24) + 1
	weeks := (days + 6) / 7
	if weeks < 1 {
		weeks = 1
	}
	return weeks
}

// ListIterations returns the iterations of a project with members and
// per-week availability.
func (s *Store) ListIterations(ctx context.Context, projectID string) ([]*model.CapacityIteration, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, project_id, name, start_date, end_date, week_count, created_by, created_at
			FROM capacity_iterations WHERE project_id = $1 ORDER BY start_date DESC`),
		projectID)
	if err != nil {
		return nil, translateErr("listing capacity iterations", err)
	}
	defer rows.Close()

	var iterations []*model.CapacityIteration
	for rows.Next() {
		var it model.CapacityIteration
		if err := rows.Scan(&it.ID, &it.ProjectID, &it.Name, &it.StartDate, &it.EndDate,
			&it.WeekCount, &it.CreatedBy, &it.CreatedAt); err != nil {
			return nil, translateErr("scanning capacity iteration", err)
		}
		iterations = append(iterations, &it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, it := range iterations {
		members, err := s.listMembers(ctx, it.ID)
		if err != nil {
			return nil, err
		}
		it.Members = members
	}
	return iterations, nil
}

func (s *Store) listMembers(ctx context.Context, iterationID string) ([]model.TeamMember, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, iteration_id, name, role, weekly_hours
			FROM team_members WHERE iteration_id = $1 ORDER BY name`), iterationID)
	if err != nil {
		return nil, translateErr("listing team members", err)
	}
	defer rows.Close()

	var members []model.TeamMember
	for rows.Next() {
		var m model.TeamMember
		if err := rows.Scan(&m.ID, &m.IterationID, &m.Name, &m.Role, &m.WeeklyHours); err != nil {
			return nil, translateErr("scanning team member", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range members {
		avail, err := s.listAvailability(ctx, members[i].ID)
		if err != nil {
			return nil, err
		}
		members[i].Availability = avail
	}
	return members, nil
}

func (s *Store) listAvailability(ctx context.Context, memberID string) ([]model.WeeklyAvailability, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, member_id, week_index, available_hours
			FROM weekly_availability WHERE member_id = $1 ORDER BY week_index`), memberID)
	if err != nil {
		return nil, translateErr("listing availability", err)
	}
	defer rows.Close()

	var avail []model.WeeklyAvailability
	for rows.Next() {
		var w model.WeeklyAvailability
		if err := rows.Scan(&w.ID, &w.MemberID, &w.WeekIndex, &w.AvailableHours); err != nil {
			return nil, translateErr("scanning availability", err)
		}
		avail = append(avail, w)
	}
	return avail, rows.Err()
}

// IterationProject resolves the owning project of an iteration.
func (s *Store) IterationProject(ctx context.Context, iterationID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT project_id FROM capacity_iterations WHERE id = $1`), iterationID).
		Scan(&projectID)
	if err != nil {
		return "", translateErr("resolving iteration project", err)
	}
	return projectID, nil
}

// AddTeamMember adds a member to an iteration.
func (s *Store) AddTeamMember(ctx context.Context, actorID string, m *model.TeamMember) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO team_members
		(id, iteration_id, name, role, weekly_hours) VALUES ($1, $2, $3, $4, $5)`),
		m.ID, m.IterationID, m.Name, m.Role, m.WeeklyHours)
	return translateErr("inserting team member", err)
}

// SetAvailability upserts one member-week availability cell. The week index
// must fall inside the iteration's fixed week range.
func (s *Store) SetAvailability(ctx context.Context, actorID string, w *model.WeeklyAvailability) error {
	if w.ID == "" {
		w.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO weekly_availability
		(id, member_id, week_index, available_hours) VALUES ($1, $2, $3, $4)
		ON CONFLICT (member_id, week_index) DO UPDATE SET
			available_hours = EXCLUDED.available_hours`),
		w.ID, w.MemberID, w.WeekIndex, w.AvailableHours)
	return translateErr("upserting availability", err)
}

// MemberIteration resolves the iteration a member belongs to.
func (s *Store) MemberIteration(ctx context.Context, memberID string) (*model.CapacityIteration, error) {
	var it model.CapacityIteration
	err := s.db.QueryRowContext(ctx, s.q(`SELECT i.id, i.project_id, i.name, i.start_date,
		i.end_date, i.week_count, i.created_by, i.created_at
		FROM capacity_iterations i JOIN team_members m ON m.iteration_id = i.id
		WHERE m.id = $1`), memberID).
		Scan(&it.ID, &it.ProjectID, &it.Name, &it.StartDate, &it.EndDate,
			&it.WeekCount, &it.CreatedBy, &it.CreatedAt)
	if err != nil {
		return nil, translateErr("resolving member iteration", err)
	}
	return &it, nil
}
