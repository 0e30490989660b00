package store

import "fmt"

// migrations run in order at startup. Statements use IF NOT EXISTS so the
// runner can re-execute the full list on every boot. The DDL is restricted
// to types both PostgreSQL and SQLite accept.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS user_roles (
		user_id    TEXT NOT NULL REFERENCES users(id),
		role       TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (user_id, role)
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id          TEXT PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		owner_id    TEXT NOT NULL REFERENCES users(id),
		status      TEXT NOT NULL,
		priority    TEXT NOT NULL,
		start_date  TIMESTAMP,
		end_date    TIMESTAMP,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_members (
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id),
		added_by   TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (project_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS module_permissions (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id),
		module     TEXT NOT NULL,
		level      TEXT NOT NULL CHECK (level IN ('read', 'write')),
		granted_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		UNIQUE (project_id, user_id, module)
	)`,
	`CREATE TABLE IF NOT EXISTS milestones (
		id          TEXT PRIMARY KEY,
		project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		status      TEXT NOT NULL,
		due_date    TIMESTAMP,
		created_by  TEXT NOT NULL,
		created_at  TIMESTAMP NOT NULL,
		updated_at  TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		milestone_id TEXT REFERENCES milestones(id) ON DELETE SET NULL,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		priority     TEXT NOT NULL,
		assignee_id  TEXT,
		due_date     TIMESTAMP,
		created_by   TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS risks (
		id              TEXT PRIMARY KEY,
		project_id      TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title           TEXT NOT NULL,
		description     TEXT NOT NULL DEFAULT '',
		category        TEXT NOT NULL DEFAULT '',
		likelihood      INTEGER NOT NULL,
		impact          INTEGER NOT NULL,
		risk_score      INTEGER NOT NULL,
		status          TEXT NOT NULL,
		mitigation_plan TEXT NOT NULL DEFAULT '',
		owner_id        TEXT,
		created_by      TEXT NOT NULL,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS stakeholders (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT '',
		organization TEXT NOT NULL DEFAULT '',
		influence    TEXT NOT NULL DEFAULT '',
		interest     TEXT NOT NULL DEFAULT '',
		email        TEXT NOT NULL DEFAULT '',
		created_by   TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS discussions (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		author_id  TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS backlog_items (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		title        TEXT NOT NULL,
		description  TEXT NOT NULL DEFAULT '',
		status       TEXT NOT NULL,
		priority     TEXT NOT NULL,
		story_points INTEGER NOT NULL DEFAULT 0,
		rank         INTEGER NOT NULL DEFAULT 0,
		created_by   TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS retrospectives (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		sprint     TEXT NOT NULL DEFAULT '',
		status     TEXT NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS retro_columns (
		id       TEXT PRIMARY KEY,
		retro_id TEXT NOT NULL REFERENCES retrospectives(id) ON DELETE CASCADE,
		title    TEXT NOT NULL,
		position INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS retro_cards (
		id         TEXT PRIMARY KEY,
		column_id  TEXT NOT NULL REFERENCES retro_columns(id) ON DELETE CASCADE,
		text       TEXT NOT NULL,
		votes      INTEGER NOT NULL DEFAULT 0,
		position   INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS card_votes (
		card_id    TEXT NOT NULL REFERENCES retro_cards(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL REFERENCES users(id),
		created_at TIMESTAMP NOT NULL,
		PRIMARY KEY (card_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS retro_actions (
		id         TEXT PRIMARY KEY,
		retro_id   TEXT NOT NULL REFERENCES retrospectives(id) ON DELETE CASCADE,
		text       TEXT NOT NULL,
		owner_id   TEXT,
		done       BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS capacity_iterations (
		id         TEXT PRIMARY KEY,
		project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		name       TEXT NOT NULL,
		start_date TIMESTAMP NOT NULL,
		end_date   TIMESTAMP NOT NULL,
		week_count INTEGER NOT NULL,
		created_by TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS team_members (
		id           TEXT PRIMARY KEY,
		iteration_id TEXT NOT NULL REFERENCES capacity_iterations(id) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		role         TEXT NOT NULL DEFAULT '',
		weekly_hours DOUBLE PRECISION NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS weekly_availability (
		id              TEXT PRIMARY KEY,
		member_id       TEXT NOT NULL REFERENCES team_members(id) ON DELETE CASCADE,
		week_index      INTEGER NOT NULL,
		available_hours DOUBLE PRECISION NOT NULL,
		UNIQUE (member_id, week_index)
	)`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id           TEXT PRIMARY KEY,
		project_id   TEXT NOT NULL UNIQUE REFERENCES projects(id) ON DELETE CASCADE,
		total_budget DOUBLE PRECISION NOT NULL,
		currency     TEXT NOT NULL DEFAULT 'USD',
		created_by   TEXT NOT NULL,
		created_at   TIMESTAMP NOT NULL,
		updated_at   TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS budget_categories (
		id               TEXT PRIMARY KEY,
		budget_id        TEXT NOT NULL REFERENCES budgets(id) ON DELETE CASCADE,
		name             TEXT NOT NULL,
		allocated_amount DOUBLE PRECISION NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS spending_entries (
		id          TEXT PRIMARY KEY,
		category_id TEXT NOT NULL REFERENCES budget_categories(id) ON DELETE CASCADE,
		description TEXT NOT NULL DEFAULT '',
		amount      DOUBLE PRECISION NOT NULL,
		spent_at    TIMESTAMP NOT NULL,
		created_by  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_milestones_project ON milestones(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_risks_project ON risks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_permissions_lookup ON module_permissions(project_id, user_id)`,
}

// Migrate runs all schema migrations.
func (s *Store) Migrate() error {
	for i, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i, err)
		}
	}
	s.logger.Info("schema migrations applied", "count", len(migrations))
	return nil
}
