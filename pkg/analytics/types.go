package analytics

// SubScore is one 0-100 health dimension. DataPresent distinguishes a real
// perfect score from the optimistic default applied when no underlying data
// exists; clients decide how to render the difference.
type SubScore struct {
	Score       int  `json:"score"`
	DataPresent bool `json:"dataPresent"`
}

// Health is the derived project health summary. Overall is the unweighted
// mean of the four sub-scores.
type Health struct {
	Timeline SubScore `json:"timeline"`
	Budget   SubScore `json:"budget"`
	Risk     SubScore `json:"risk"`
	Team     SubScore `json:"team"`
	Overall  int      `json:"overall"`
}

type TaskStats struct {
	Total          int     `json:"total"`
	Completed      int     `json:"completed"`
	InProgress     int     `json:"inProgress"`
	Overdue        int     `json:"overdue"`
	CompletionRate float64 `json:"completionRate"`
}

type MilestoneStats struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Overdue   int `json:"overdue"`
}

type RiskStats struct {
	Total     int `json:"total"`
	High      int `json:"high"`
	HighOpen  int `json:"highOpen"`
	Mitigated int `json:"mitigated"`
	Open      int `json:"open"`
}

type BudgetStats struct {
	Exists    bool    `json:"exists"`
	Total     float64 `json:"totalBudget"`
	Allocated float64 `json:"allocatedBudget"`
	Spent     float64 `json:"spentBudget"`
	Remaining float64 `json:"remainingBudget"`
	Currency  string  `json:"currency,omitempty"`
}

type CapacityStats struct {
	Iterations     int     `json:"iterations"`
	Members        int     `json:"members"`
	PlannedHours   float64 `json:"plannedHours"`
	AvailableHours float64 `json:"availableHours"`
	Utilization    float64 `json:"utilization"`
}

type RetroStats struct {
	Total       int `json:"total"`
	Cards       int `json:"cards"`
	Votes       int `json:"votes"`
	Actions     int `json:"actions"`
	OpenActions int `json:"openActions"`
}

// Overview is the project-overview report.
type Overview struct {
	ProjectID    string         `json:"projectId"`
	Tasks        TaskStats      `json:"tasks"`
	Milestones   MilestoneStats `json:"milestones"`
	Risks        RiskStats      `json:"risks"`
	Stakeholders int            `json:"stakeholders"`
	Budget       BudgetStats    `json:"budget"`
	Health       Health         `json:"health"`
}

// TeamCapacityReport is the team-capacity report.
type TeamCapacityReport struct {
	ProjectID string        `json:"projectId"`
	Capacity  CapacityStats `json:"capacity"`
}

// RetroReport is the retrospectives report.
type RetroReport struct {
	ProjectID string     `json:"projectId"`
	Retros    RetroStats `json:"retrospectives"`
}

// Comprehensive is the union of the three reports.
type Comprehensive struct {
	Overview Overview           `json:"overview"`
	Capacity TeamCapacityReport `json:"teamCapacity"`
	Retros   RetroReport        `json:"retrospectives"`
}
