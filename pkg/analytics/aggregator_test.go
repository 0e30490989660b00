package analytics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traction-pm/traction/pkg/model"
	"github.com/traction-pm/traction/pkg/store"
)

type fakeSource struct {
	tasks        []*model.Task
	milestones   []*model.Milestone
	risks        []*model.Risk
	stakeholders []*model.Stakeholder
	retros       []*model.Retrospective
	iterations   []*model.CapacityIteration
	budget       *model.Budget

	tasksErr  error
	budgetErr error
}

func (f *fakeSource) ListTasks(context.Context, string) ([]*model.Task, error) {
	return f.tasks, f.tasksErr
}
func (f *fakeSource) ListMilestones(context.Context, string) ([]*model.Milestone, error) {
	return f.milestones, nil
}
func (f *fakeSource) ListRisks(context.Context, string) ([]*model.Risk, error) {
	return f.risks, nil
}
func (f *fakeSource) ListStakeholders(context.Context, string) ([]*model.Stakeholder, error) {
	return f.stakeholders, nil
}
func (f *fakeSource) ListRetros(context.Context, string) ([]*model.Retrospective, error) {
	return f.retros, nil
}
func (f *fakeSource) ListIterations(context.Context, string) ([]*model.CapacityIteration, error) {
	return f.iterations, nil
}
func (f *fakeSource) GetBudgetDetail(context.Context, string) (*model.Budget, error) {
	if f.budgetErr != nil {
		return nil, f.budgetErr
	}
	return f.budget, nil
}

func TestComputeOverview_EmptyProjectDefaultsOptimistic(t *testing.T) {
	a := NewAggregator(&fakeSource{budgetErr: store.ErrNotFound})

	o, err := a.ComputeOverview(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, 100, o.Health.Overall)
	assert.False(t, o.Health.Timeline.DataPresent)
	assert.False(t, o.Health.Budget.DataPresent)
	assert.False(t, o.Health.Risk.DataPresent)
	assert.False(t, o.Health.Team.DataPresent)
	assert.False(t, o.Budget.Exists)
	assert.Zero(t, o.Tasks.Total)
}

func TestComputeOverview_TaskAndRiskStats(t *testing.T) {
	yesterday := time.Now().UTC().Add(-24 * time.Hour)
	src := &fakeSource{
		tasks: []*model.Task{
			{Status: model.TaskStatusCompleted},
			{Status: model.TaskStatusDone},
			{Status: model.TaskStatusInProgress, DueDate: &yesterday},
			{Status: model.TaskStatusTodo},
		},
		milestones: []*model.Milestone{
			{Status: "completed"},
			{Status: "planned", Overdue: true},
		},
		risks: []*model.Risk{
			{Score: 25, Status: model.RiskStatusOpen},      // high and open
			{Score: 12, Status: model.RiskStatusMitigated}, // high but handled
			{Score: 4, Status: model.RiskStatusOpen},
		},
		stakeholders: []*model.Stakeholder{{Name: "A"}, {Name: "B"}},
		budgetErr:    store.ErrNotFound,
	}
	a := NewAggregator(src)

	o, err := a.ComputeOverview(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, 4, o.Tasks.Total)
	assert.Equal(t, 2, o.Tasks.Completed)
	assert.Equal(t, 1, o.Tasks.InProgress)
	assert.Equal(t, 1, o.Tasks.Overdue)
	assert.InDelta(t, 0.5, o.Tasks.CompletionRate, 1e-9)

	assert.Equal(t, 2, o.Milestones.Total)
	assert.Equal(t, 1, o.Milestones.Overdue)

	assert.Equal(t, 3, o.Risks.Total)
	assert.Equal(t, 2, o.Risks.High)
	assert.Equal(t, 1, o.Risks.HighOpen)
	assert.Equal(t, 1, o.Risks.Mitigated)
	assert.Equal(t, 2, o.Risks.Open)

	assert.Equal(t, 2, o.Stakeholders)

	// timeline: 100 - 100*1/2 = 50; risk: 100 - 100*1/3 = 67
	assert.Equal(t, 50, o.Health.Timeline.Score)
	assert.True(t, o.Health.Timeline.DataPresent)
	assert.Equal(t, 67, o.Health.Risk.Score)
}

func TestComputeOverview_BudgetRemainingNeverNegative(t *testing.T) {
	src := &fakeSource{
		budget: &model.Budget{
			Total:    1000,
			Currency: "EUR",
			Categories: []model.BudgetCategory{
				{Allocated: 500, Spending: []model.SpendingEntry{{Amount: 800}}},
			},
		},
	}
	a := NewAggregator(src)

	o, err := a.ComputeOverview(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.True(t, o.Budget.Exists)
	assert.Equal(t, 500.0, o.Budget.Allocated)
	assert.Equal(t, 800.0, o.Budget.Spent)
	assert.Equal(t, 0.0, o.Budget.Remaining)

	// overrun 300 of 500 allocated: 100 - 60 = 40
	assert.Equal(t, 40, o.Health.Budget.Score)
	assert.True(t, o.Health.Budget.DataPresent)
}

func TestComputeTeamCapacity_Utilization(t *testing.T) {
	src := &fakeSource{
		iterations: []*model.CapacityIteration{
			{
				WeekCount: 2,
				Members: []model.TeamMember{
					{
						WeeklyHours: 40,
						Availability: []model.WeeklyAvailability{
							{WeekIndex: 0, AvailableHours: 30},
							{WeekIndex: 1, AvailableHours: 30},
						},
					},
				},
			},
		},
	}
	a := NewAggregator(src)

	r, err := a.ComputeTeamCapacity(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Capacity.Iterations)
	assert.Equal(t, 1, r.Capacity.Members)
	assert.Equal(t, 80.0, r.Capacity.PlannedHours)
	assert.Equal(t, 60.0, r.Capacity.AvailableHours)
	assert.InDelta(t, 0.75, r.Capacity.Utilization, 1e-9)
}

func TestComputeRetros_CountsTree(t *testing.T) {
	src := &fakeSource{
		retros: []*model.Retrospective{
			{
				Columns: []model.RetroColumn{
					{Cards: []model.RetroCard{{Votes: 3}, {Votes: 1}}},
					{Cards: []model.RetroCard{{Votes: 0}}},
				},
				Actions: []model.RetroAction{{Done: true}, {Done: false}},
			},
		},
	}
	a := NewAggregator(src)

	r, err := a.ComputeRetros(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, 1, r.Retros.Total)
	assert.Equal(t, 3, r.Retros.Cards)
	assert.Equal(t, 4, r.Retros.Votes)
	assert.Equal(t, 2, r.Retros.Actions)
	assert.Equal(t, 1, r.Retros.OpenActions)
}

func TestComputeOverview_ReadFailureAborts(t *testing.T) {
	boom := errors.New("connection refused")
	a := NewAggregator(&fakeSource{tasksErr: boom, budgetErr: store.ErrNotFound})

	_, err := a.ComputeOverview(context.Background(), "proj-1")
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestComputeComprehensive_CombinesReports(t *testing.T) {
	src := &fakeSource{
		retros:     []*model.Retrospective{{}},
		iterations: []*model.CapacityIteration{{}},
		budgetErr:  store.ErrNotFound,
	}
	a := NewAggregator(src)

	c, err := a.ComputeComprehensive(context.Background(), "proj-1")
	require.NoError(t, err)

	assert.Equal(t, "proj-1", c.Overview.ProjectID)
	assert.Equal(t, 1, c.Capacity.Capacity.Iterations)
	assert.Equal(t, 1, c.Retros.Retros.Total)
}
