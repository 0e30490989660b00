package store

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traction-pm/traction/pkg/model"
)

func TestGetBudgetDetail_LoadsFullTree(t *testing.T) {
	s, mock := newMockStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("FROM budgets WHERE project_id = $1")).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "total_budget", "currency", "created_by", "created_at", "updated_at",
		}).AddRow("budget-1", "proj-1", 50000.0, "USD", "user-1", now, now))

	mock.ExpectQuery(regexp.QuoteMeta("FROM budget_categories")).
		WithArgs("budget-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "budget_id", "name", "allocated_amount"}).
			AddRow("cat-1", "budget-1", "Design", 20000.0).
			AddRow("cat-2", "budget-1", "Engineering", 25000.0))

	mock.ExpectQuery(regexp.QuoteMeta("FROM spending_entries")).
		WithArgs("cat-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "description", "amount", "spent_at", "created_by"}).
			AddRow("sp-1", "cat-1", "Design agency retainer", 5000.0, now, "user-1"))

	mock.ExpectQuery(regexp.QuoteMeta("FROM spending_entries")).
		WithArgs("cat-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "category_id", "description", "amount", "spent_at", "created_by"}))

	b, err := s.GetBudgetDetail(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, 50000.0, b.Total)
	require.Len(t, b.Categories, 2)
	assert.Equal(t, "Design", b.Categories[0].Name)
	require.Len(t, b.Categories[0].Spending, 1)
	assert.Equal(t, 5000.0, b.Categories[0].Spending[0].Amount)
	assert.Empty(t, b.Categories[1].Spending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBudgetDetail_Missing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM budgets WHERE project_id = $1")).
		WithArgs("proj-none").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.GetBudgetDetail(context.Background(), "proj-none")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateBudget_DuplicatePerProject(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO budgets")).
		WillReturnError(&pq.Error{Code: "23505"})

	b := &model.Budget{ProjectID: "proj-1", Total: 1000}
	err := s.CreateBudget(context.Background(), "user-1", b)

	var cerr *ConstraintError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, ConstraintDuplicate, cerr.Kind)
}

func TestCreateBudget_DefaultsCurrency(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO budgets")).
		WithArgs(sqlmock.AnyArg(), "proj-1", 1000.0, "USD", "user-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	b := &model.Budget{ProjectID: "proj-1", Total: 1000}
	require.NoError(t, s.CreateBudget(context.Background(), "user-1", b))
	assert.Equal(t, "USD", b.Currency)
}
