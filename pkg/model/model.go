// Package model defines the persistent entities of the Traction API.
// Every entity except User hangs off a Project via ProjectID; handlers
// never mutate these rows directly, they go through pkg/store.
package model

import "time"

// User is an authenticated account. PasswordHash is only populated by the
// seed utility; token issuance itself happens outside this service.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Project is the root aggregate. OwnerID is the creator and holds implicit
// write access on every module.
type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	OwnerID     string     `json:"ownerId"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Task statuses. "completed" and "done" both count as finished for
// overdue detection; legacy rows use either spelling.
const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusCompleted  = "completed"
	TaskStatusDone       = "done"
)

type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	MilestoneID *string    `json:"milestoneId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	AssigneeID  *string    `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Milestone is a roadmap entry. Overdue is derived on read, never stored.
type Milestone struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	Overdue     bool       `json:"overdue"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Finished reports whether a status string counts as completed.
func Finished(status string) bool {
	return status == TaskStatusCompleted || status == TaskStatusDone
}

// Risk likelihood and impact are both bounded to [MinRiskFactor, MaxRiskFactor].
// Score is always recomputed server-side as Likelihood * Impact.
const (
	MinRiskFactor = 1
	MaxRiskFactor = 5

	// HighRiskThreshold buckets a risk as "high" when Score >= threshold.
	HighRiskThreshold = 9
)

const (
	RiskStatusOpen      = "open"
	RiskStatusMitigated = "mitigated"
	RiskStatusClosed    = "closed"
)

type Risk struct {
	ID             string    `json:"id"`
	ProjectID      string    `json:"projectId"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	Likelihood     int       `json:"likelihood"`
	Impact         int       `json:"impact"`
	Score          int       `json:"riskScore"`
	Status         string    `json:"status"`
	MitigationPlan string    `json:"mitigationPlan,omitempty"`
	OwnerID        *string   `json:"ownerId,omitempty"`
	CreatedBy      string    `json:"createdBy"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Stakeholder struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	Name         string    `json:"name"`
	Role         string    `json:"role,omitempty"`
	Organization string    `json:"organization,omitempty"`
	Influence    string    `json:"influence,omitempty"`
	Interest     string    `json:"interest,omitempty"`
	Email        string    `json:"email,omitempty"`
	CreatedBy    string    `json:"createdBy"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Discussion struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
}

type BacklogItem struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"projectId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Priority    string    `json:"priority"`
	StoryPoints int       `json:"storyPoints"`
	Rank        int       `json:"rank"`
	CreatedBy   string    `json:"createdBy"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Retrospective is a three-level tree: retro -> columns -> cards.
// Card votes are a denormalized tally kept equal to the count of vote rows.
type Retrospective struct {
	ID        string        `json:"id"`
	ProjectID string        `json:"projectId"`
	Name      string        `json:"name"`
	Sprint    string        `json:"sprint,omitempty"`
	Status    string        `json:"status"`
	CreatedBy string        `json:"createdBy"`
	CreatedAt time.Time     `json:"createdAt"`
	Columns   []RetroColumn `json:"columns,omitempty"`
	Actions   []RetroAction `json:"actions,omitempty"`
}

type RetroColumn struct {
	ID       string      `json:"id"`
	RetroID  string      `json:"retroId"`
	Title    string      `json:"title"`
	Position int         `json:"position"`
	Cards    []RetroCard `json:"cards,omitempty"`
}

type RetroCard struct {
	ID        string    `json:"id"`
	ColumnID  string    `json:"columnId"`
	Text      string    `json:"text"`
	Votes     int       `json:"votes"`
	Position  int       `json:"position"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type RetroAction struct {
	ID        string    `json:"id"`
	RetroID   string    `json:"retroId"`
	Text      string    `json:"text"`
	OwnerID   *string   `json:"ownerId,omitempty"`
	Done      bool      `json:"done"`
	CreatedAt time.Time `json:"createdAt"`
}

// CapacityIteration is a time-boxed planning period. Weeks are derived from
// the start/end dates at creation time and fixed thereafter.
type CapacityIteration struct {
	ID        string       `json:"id"`
	ProjectID string       `json:"projectId"`
	Name      string       `json:"name"`
	StartDate time.Time    `json:"startDate"`
	EndDate   time.Time    `json:"endDate"`
	WeekCount int          `json:"weekCount"`
	CreatedBy string       `json:"createdBy"`
	CreatedAt time.Time    `json:"createdAt"`
	Members   []TeamMember `json:"members,omitempty"`
}

type TeamMember struct {
	ID           string               `json:"id"`
	IterationID  string               `json:"iterationId"`
	Name         string               `json:"name"`
	Role         string               `json:"role,omitempty"`
	WeeklyHours  float64              `json:"weeklyHours"`
	Availability []WeeklyAvailability `json:"availability,omitempty"`
}

type WeeklyAvailability struct {
	ID             string  `json:"id"`
	MemberID       string  `json:"memberId"`
	WeekIndex      int     `json:"weekIndex"`
	AvailableHours float64 `json:"availableHours"`
}

// ModulePermission is one explicit grant row: (project, user, module) is
// unique, level is "read" or "write". Module and Level stay plain strings
// here; pkg/authz owns the closed enumerations.
type ModulePermission struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	UserID    string    `json:"userId"`
	Module    string    `json:"module"`
	Level     string    `json:"level"`
	GrantedBy string    `json:"grantedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// Budget rolls up allocation vs. actual spend through categories.
type Budget struct {
	ID         string           `json:"id"`
	ProjectID  string           `json:"projectId"`
	Total      float64          `json:"totalBudget"`
	Currency   string           `json:"currency"`
	CreatedBy  string           `json:"createdBy"`
	CreatedAt  time.Time        `json:"createdAt"`
	UpdatedAt  time.Time        `json:"updatedAt"`
	Categories []BudgetCategory `json:"categories,omitempty"`
}

type BudgetCategory struct {
	ID        string          `json:"id"`
	BudgetID  string          `json:"budgetId"`
	Name      string          `json:"name"`
	Allocated float64         `json:"allocatedAmount"`
	Spending  []SpendingEntry `json:"spending,omitempty"`
}

type SpendingEntry struct {
	ID          string    `json:"id"`
	CategoryID  string    `json:"categoryId"`
	Description string    `json:"description,omitempty"`
	Amount      float64   `json:"amount"`
	SpentAt     time.Time `json:"spentAt"`
	CreatedBy   string    `json:"createdBy"`
}
