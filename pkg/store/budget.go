package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/traction-pm/traction/pkg/model"
)

// CreateBudget inserts the budget for a project. One budget per project;
// a second insert trips the unique constraint and surfaces as a duplicate.
func (s *Store) CreateBudget(ctx context.Context, actorID string, b *model.Budget) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedBy = actorID
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	if b.Currency == "" {
		b.Currency = "USD"
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO budgets
		(id, project_id, total_budget, currency, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`),
		b.ID, b.ProjectID, b.Total, b.Currency, b.CreatedBy, b.CreatedAt, b.UpdatedAt)
	return translateErr("inserting budget", err)
}

// GetBudgetDetail loads the project budget with categories and spending.
func (s *Store) GetBudgetDetail(ctx context.Context, projectID string) (*model.Budget, error) {
	var b model.Budget
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT id, project_id, total_budget, currency, created_by, created_at, updated_at
			FROM budgets WHERE project_id = $1`), projectID).
		Scan(&b.ID, &b.ProjectID, &b.Total, &b.Currency, &b.CreatedBy, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, translateErr("getting budget", err)
	}

	catRows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, budget_id, name, allocated_amount FROM budget_categories
			WHERE budget_id = $1 ORDER BY name`), b.ID)
	if err != nil {
		return nil, translateErr("listing budget categories", err)
	}
	defer catRows.Close()

	for catRows.Next() {
		var c model.BudgetCategory
		if err := catRows.Scan(&c.ID, &c.BudgetID, &c.Name, &c.Allocated); err != nil {
			return nil, translateErr("scanning budget category", err)
		}
		b.Categories = append(b.Categories, c)
	}
	if err := catRows.Err(); err != nil {
		return nil, err
	}

	for i := range b.Categories {
		entries, err := s.listSpending(ctx, b.Categories[i].ID)
		if err != nil {
			return nil, err
		}
		b.Categories[i].Spending = entries
	}
	return &b, nil
}

func (s *Store) listSpending(ctx context.Context, categoryID string) ([]model.SpendingEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		s.q(`SELECT id, category_id, description, amount, spent_at, created_by
			FROM spending_entries WHERE category_id = $1 ORDER BY spent_at`), categoryID)
	if err != nil {
		return nil, translateErr("listing spending entries", err)
	}
	defer rows.Close()

	var entries []model.SpendingEntry
	for rows.Next() {
		var e model.SpendingEntry
		if err := rows.Scan(&e.ID, &e.CategoryID, &e.Description, &e.Amount,
			&e.SpentAt, &e.CreatedBy); err != nil {
			return nil, translateErr("scanning spending entry", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// BudgetProject resolves the owning project of a budget.
func (s *Store) BudgetProject(ctx context.Context, budgetID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx,
		s.q(`SELECT project_id FROM budgets WHERE id = $1`), budgetID).Scan(&projectID)
	if err != nil {
		return "", translateErr("resolving budget project", err)
	}
	return projectID, nil
}

// CategoryProject resolves the owning project of a budget category.
func (s *Store) CategoryProject(ctx context.Context, categoryID string) (string, error) {
	var projectID string
	err := s.db.QueryRowContext(ctx, s.q(`SELECT b.project_id
		FROM budget_categories c JOIN budgets b ON b.id = c.budget_id
		WHERE c.id = $1`), categoryID).Scan(&projectID)
	if err != nil {
		return "", translateErr("resolving category project", err)
	}
	return projectID, nil
}

// AddBudgetCategory adds an allocation bucket to a budget.
func (s *Store) AddBudgetCategory(ctx context.Context, actorID string, c *model.BudgetCategory) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO budget_categories
		(id, budget_id, name, allocated_amount) VALUES ($1, $2, $3, $4)`),
		c.ID, c.BudgetID, c.Name, c.Allocated)
	return translateErr("inserting budget category", err)
}

// AddSpendingEntry records actual spend against a category.
func (s *Store) AddSpendingEntry(ctx context.Context, actorID string, e *model.SpendingEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.CreatedBy = actorID
	if e.SpentAt.IsZero() {
		e.SpentAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, s.q(`INSERT INTO spending_entries
		(id, category_id, description, amount, spent_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6)`),
		e.ID, e.CategoryID, e.Description, e.Amount, e.SpentAt, e.CreatedBy)
	return translateErr("inserting spending entry", err)
}
