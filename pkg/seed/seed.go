// Package seed populates a fresh database with demo accounts and a sample
// project so the API is explorable immediately after first boot.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
	"github.com/traction-pm/traction/pkg/store"
)

// Demo account credentials. The password is the part before the @ sign.
var demoUsers = []struct {
	email    string
	name     string
	admin    bool
	password string
}{
	{"admin@traction.dev", "Ada Admin", true, "admin"},
	{"owner@traction.dev", "Omar Owner", false, "owner"},
	{"member@traction.dev", "Mia Member", false, "member"},
}

// Run seeds demo users and one sample project. Idempotence is coarse: if the
// admin user already exists the whole run is skipped.
func Run(ctx context.Context, st *store.Store) error {
	logger := slog.Default().With("component", "seed")

	users := make(map[string]*model.User, len(demoUsers))
	for _, du := range demoUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(du.password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", du.email, err)
		}
		u := &model.User{Email: du.email, Name: du.name, PasswordHash: string(hash)}
		if err := st.CreateUser(ctx, u); err != nil {
			var cerr *store.ConstraintError
			if errors.As(err, &cerr) && cerr.Kind == store.ConstraintDuplicate {
				logger.InfoContext(ctx, "seed data already present, skipping", "email", du.email)
				return nil
			}
			return fmt.Errorf("creating user %s: %w", du.email, err)
		}
		if du.admin {
			if err := st.GrantAdminRole(ctx, u.ID); err != nil {
				return fmt.Errorf("granting admin to %s: %w", du.email, err)
			}
		}
		users[du.email] = u
		logger.InfoContext(ctx, "created user", "email", du.email, "id", u.ID)
	}

	owner := users["owner@traction.dev"]
	member := users["member@traction.dev"]

	project := &model.Project{
		Name:        "Website Relaunch",
		Description: "Migrate the marketing site to the new design system",
		Priority:    "high",
	}
	now := time.Now().UTC()
	in := func(days int) *time.Time { t := now.AddDate(0, 0, days); return &t }

	milestones := []*model.Milestone{
		{Name: "Design freeze", Status: "in_progress", DueDate: in(14)},
		{Name: "Content migration", Status: "planned", DueDate: in(45)},
		{Name: "Launch", Status: "planned", DueDate: in(60)},
	}
	tasks := []*model.Task{
		{Title: "Audit existing pages", Status: model.TaskStatusCompleted, Priority: "medium"},
		{Title: "Build component library", Status: model.TaskStatusInProgress, Priority: "high"},
		{Title: "Set up redirects", Status: model.TaskStatusTodo, Priority: "low", DueDate: in(50)},
	}
	if err := st.CreateProjectWizard(ctx, owner.ID, project, milestones, tasks); err != nil {
		return fmt.Errorf("creating demo project: %w", err)
	}
	logger.InfoContext(ctx, "created demo project", "id", project.ID)

	risk := &model.Risk{
		ProjectID:      project.ID,
		Title:          "CMS vendor lock-in",
		Category:       "technical",
		Likelihood:     3,
		Impact:         4,
		Status:         model.RiskStatusOpen,
		MitigationPlan: "Keep content in portable markdown alongside the CMS",
	}
	if err := st.CreateRisk(ctx, owner.ID, risk); err != nil {
		return fmt.Errorf("creating demo risk: %w", err)
	}

	grants := []model.ModulePermission{
		{ProjectID: project.ID, UserID: member.ID, Module: string(authz.ModuleTasks), Level: string(authz.LevelWrite)},
		{ProjectID: project.ID, UserID: member.ID, Module: string(authz.ModuleRoadmap), Level: string(authz.LevelRead)},
		{ProjectID: project.ID, UserID: member.ID, Module: string(authz.ModuleRetros), Level: string(authz.LevelWrite)},
	}
	for i := range grants {
		g := grants[i]
		g.GrantedBy = owner.ID
		if err := st.UpsertGrant(ctx, owner.ID, &g); err != nil {
			return fmt.Errorf("granting %s on %s: %w", g.Level, g.Module, err)
		}
	}

	budget := &model.Budget{ProjectID: project.ID, Total: 50000, Currency: "USD"}
	if err := st.CreateBudget(ctx, owner.ID, budget); err != nil {
		return fmt.Errorf("creating demo budget: %w", err)
	}
	category := &model.BudgetCategory{BudgetID: budget.ID, Name: "Design", Allocated: 20000}
	if err := st.AddBudgetCategory(ctx, owner.ID, category); err != nil {
		return fmt.Errorf("creating demo budget category: %w", err)
	}

	logger.InfoContext(ctx, "seed complete",
		"users", len(users), "project", project.Name)
	return nil
}
