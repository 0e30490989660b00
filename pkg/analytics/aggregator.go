// Package analytics reduces a project's resource collections into derived
// health and utilization metrics. Reads fan out concurrently; the reduction
// itself runs purely over the in-memory result sets. Any read failure aborts
// the whole aggregation, there are no partial reports.
package analytics

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/traction-pm/traction/pkg/model"
	"github.com/traction-pm/traction/pkg/store"
)

// DataSource is the slice of the storage layer the aggregator reads from.
type DataSource interface {
	ListTasks(ctx context.Context, projectID string) ([]*model.Task, error)
	ListMilestones(ctx context.Context, projectID string) ([]*model.Milestone, error)
	ListRisks(ctx context.Context, projectID string) ([]*model.Risk, error)
	ListStakeholders(ctx context.Context, projectID string) ([]*model.Stakeholder, error)
	ListRetros(ctx context.Context, projectID string) ([]*model.Retrospective, error)
	ListIterations(ctx context.Context, projectID string) ([]*model.CapacityIteration, error)
	GetBudgetDetail(ctx context.Context, projectID string) (*model.Budget, error)
}

// Aggregator computes analytics reports for a project.
type Aggregator struct {
	source DataSource
	logger *slog.Logger
}

func NewAggregator(source DataSource) *Aggregator {
	return &Aggregator{
		source: source,
		logger: slog.Default().With("component", "analytics"),
	}
}

// projectData is the fan-in of every read the reports need.
type projectData struct {
	tasks        []*model.Task
	milestones   []*model.Milestone
	risks        []*model.Risk
	stakeholders []*model.Stakeholder
	retros       []*model.Retrospective
	iterations   []*model.CapacityIteration
	budget       *model.Budget
}

// fetch issues all reads concurrently and waits for every one. A missing
// budget row is not a failure, only a project with no budget yet.
func (a *Aggregator) fetch(ctx context.Context, projectID string) (*projectData, error) {
	var data projectData
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() (err error) {
		data.tasks, err = a.source.ListTasks(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		data.milestones, err = a.source.ListMilestones(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		data.risks, err = a.source.ListRisks(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		data.stakeholders, err = a.source.ListStakeholders(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		data.retros, err = a.source.ListRetros(gctx, projectID)
		return err
	})
	g.Go(func() (err error) {
		data.iterations, err = a.source.ListIterations(gctx, projectID)
		return err
	})
	g.Go(func() error {
		b, err := a.source.GetBudgetDetail(gctx, projectID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		data.budget = b
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("aggregating project %s: %w", projectID, err)
	}
	return &data, nil
}

// ComputeOverview builds the project-overview report.
func (a *Aggregator) ComputeOverview(ctx context.Context, projectID string) (*Overview, error) {
	data, err := a.fetch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	o := reduceOverview(projectID, data, time.Now().UTC())
	return &o, nil
}

// ComputeTeamCapacity builds the team-capacity report.
func (a *Aggregator) ComputeTeamCapacity(ctx context.Context, projectID string) (*TeamCapacityReport, error) {
	iterations, err := a.source.ListIterations(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("aggregating capacity for project %s: %w", projectID, err)
	}
	r := TeamCapacityReport{ProjectID: projectID, Capacity: reduceCapacity(iterations)}
	return &r, nil
}

// ComputeRetros builds the retrospectives report.
func (a *Aggregator) ComputeRetros(ctx context.Context, projectID string) (*RetroReport, error) {
	retros, err := a.source.ListRetros(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("aggregating retrospectives for project %s: %w", projectID, err)
	}
	r := RetroReport{ProjectID: projectID, Retros: reduceRetros(retros)}
	return &r, nil
}

// ComputeComprehensive builds the union of all three reports from a single
// fan-out.
func (a *Aggregator) ComputeComprehensive(ctx context.Context, projectID string) (*Comprehensive, error) {
	data, err := a.fetch(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &Comprehensive{
		Overview: reduceOverview(projectID, data, time.Now().UTC()),
		Capacity: TeamCapacityReport{ProjectID: projectID, Capacity: reduceCapacity(data.iterations)},
		Retros:   RetroReport{ProjectID: projectID, Retros: reduceRetros(data.retros)},
	}, nil
}

func reduceOverview(projectID string, data *projectData, now time.Time) Overview {
	o := Overview{
		ProjectID:    projectID,
		Tasks:        reduceTasks(data.tasks, now),
		Milestones:   reduceMilestones(data.milestones),
		Risks:        reduceRisks(data.risks),
		Stakeholders: len(data.stakeholders),
		Budget:       reduceBudget(data.budget),
	}
	o.Health = computeHealth(o, data)
	return o
}

func reduceTasks(tasks []*model.Task, now time.Time) TaskStats {
	st := TaskStats{Total: len(tasks)}
	for _, t := range tasks {
		switch {
		case model.Finished(t.Status):
			st.Completed++
		case t.Status == model.TaskStatusInProgress:
			st.InProgress++
		}
		if t.DueDate != nil && t.DueDate.Before(now) && !model.Finished(t.Status) {
			st.Overdue++
		}
	}
	if st.Total > 0 {
		st.CompletionRate = float64(st.Completed) / float64(st.Total)
	}
	return st
}

func reduceMilestones(milestones []*model.Milestone) MilestoneStats {
	st := MilestoneStats{Total: len(milestones)}
	for _, m := range milestones {
		if model.Finished(m.Status) {
			st.Completed++
		}
		if m.Overdue {
			st.Overdue++
		}
	}
	return st
}

func reduceRisks(risks []*model.Risk) RiskStats {
	st := RiskStats{Total: len(risks)}
	for _, r := range risks {
		high := r.Score >= model.HighRiskThreshold
		if high {
			st.High++
		}
		switch r.Status {
		case model.RiskStatusMitigated, model.RiskStatusClosed:
			st.Mitigated++
		default:
			st.Open++
			if high {
				st.HighOpen++
			}
		}
	}
	return st
}

func reduceBudget(b *model.Budget) BudgetStats {
	if b == nil {
		return BudgetStats{}
	}
	st := BudgetStats{Exists: true, Total: b.Total, Currency: b.Currency}
	for _, c := range b.Categories {
		st.Allocated += c.Allocated
		for _, e := range c.Spending {
			st.Spent += e.Amount
		}
	}
	// Remaining never goes negative, overspend shows up in the health score.
	st.Remaining = math.Max(0, st.Allocated-st.Spent)
	return st
}

func reduceCapacity(iterations []*model.CapacityIteration) CapacityStats {
	st := CapacityStats{Iterations: len(iterations)}
	for _, it := range iterations {
		for _, m := range it.Members {
			st.Members++
			st.PlannedHours += m.WeeklyHours * float64(it.WeekCount)
			for _, w := range m.Availability {
				st.AvailableHours += w.AvailableHours
			}
		}
	}
	if st.PlannedHours > 0 {
		st.Utilization = st.AvailableHours / st.PlannedHours
	}
	return st
}

func reduceRetros(retros []*model.Retrospective) RetroStats {
	st := RetroStats{Total: len(retros)}
	for _, r := range retros {
		for _, col := range r.Columns {
			st.Cards += len(col.Cards)
			for _, card := range col.Cards {
				st.Votes += card.Votes
			}
		}
		st.Actions += len(r.Actions)
		for _, a := range r.Actions {
			if !a.Done {
				st.OpenActions++
			}
		}
	}
	return st
}

// computeHealth derives the four sub-scores. A dimension with no underlying
// data scores 100 with DataPresent=false so clients can tell "perfect" from
// "nothing to measure".
func computeHealth(o Overview, data *projectData) Health {
	h := Health{
		Timeline: timelineScore(o.Milestones),
		Budget:   budgetScore(o.Budget),
		Risk:     riskScore(o.Risks),
		Team:     teamScore(reduceCapacity(data.iterations)),
	}
	h.Overall = (h.Timeline.Score + h.Budget.Score + h.Risk.Score + h.Team.Score) / 4
	return h
}

func timelineScore(m MilestoneStats) SubScore {
	if m.Total == 0 {
		return SubScore{Score: 100}
	}
	return SubScore{
		Score:       clampScore(100 - (100*m.Overdue)/m.Total),
		DataPresent: true,
	}
}

func budgetScore(b BudgetStats) SubScore {
	if !b.Exists || b.Allocated <= 0 {
		return SubScore{Score: 100}
	}
	overrun := math.Max(0, b.Spent-b.Allocated)
	return SubScore{
		Score:       clampScore(100 - int(math.Round(100*overrun/b.Allocated))),
		DataPresent: true,
	}
}

func riskScore(r RiskStats) SubScore {
	if r.Total == 0 {
		return SubScore{Score: 100}
	}
	return SubScore{
		Score:       clampScore(100 - (100*r.HighOpen)/r.Total),
		DataPresent: true,
	}
}

func teamScore(c CapacityStats) SubScore {
	if c.PlannedHours <= 0 {
		return SubScore{Score: 100}
	}
	ratio := math.Min(1, c.Utilization)
	return SubScore{
		Score:       clampScore(int(math.Round(100 * ratio))),
		DataPresent: true,
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
