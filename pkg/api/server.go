package api

import (
	"log/slog"
	"net/http"

	"github.com/traction-pm/traction/pkg/analytics"
	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/store"
)

// Server wires the resource handlers to the store and the policy evaluator.
type Server struct {
	store     *store.Store
	policy    *authz.Evaluator
	analytics *analytics.Aggregator
	logger    *slog.Logger
}

func NewServer(st *store.Store) *Server {
	return &Server{
		store:     st,
		policy:    authz.NewEvaluator(st),
		analytics: analytics.NewAggregator(st),
		logger:    slog.Default().With("component", "api"),
	}
}

// Routes registers every endpoint on a fresh mux. Method patterns keep the
// routing in the standard library.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /readiness", s.handleReadiness)

	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("GET /api/projects/{id}/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/projects/{id}/tasks", s.handleCreateTask)
	mux.HandleFunc("PUT /api/projects/{id}/tasks/{taskId}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/projects/{id}/tasks/{taskId}", s.handleDeleteTask)

	mux.HandleFunc("GET /api/projects/{id}/roadmap", s.handleListMilestones)
	mux.HandleFunc("POST /api/projects/{id}/roadmap", s.handleCreateMilestone)
	mux.HandleFunc("PUT /api/projects/{id}/roadmap/{milestoneId}", s.handleUpdateMilestone)
	mux.HandleFunc("DELETE /api/projects/{id}/roadmap/{milestoneId}", s.handleDeleteMilestone)

	mux.HandleFunc("GET /api/projects/{id}/risks", s.handleListRisks)
	mux.HandleFunc("POST /api/projects/{id}/risks", s.handleCreateRisk)
	mux.HandleFunc("PUT /api/projects/{id}/risks/{riskId}", s.handleUpdateRisk)
	mux.HandleFunc("DELETE /api/projects/{id}/risks/{riskId}", s.handleDeleteRisk)

	mux.HandleFunc("GET /api/projects/{id}/stakeholders", s.handleListStakeholders)
	mux.HandleFunc("POST /api/projects/{id}/stakeholders", s.handleCreateStakeholder)
	mux.HandleFunc("PUT /api/projects/{id}/stakeholders/{stakeholderId}", s.handleUpdateStakeholder)
	mux.HandleFunc("DELETE /api/projects/{id}/stakeholders/{stakeholderId}", s.handleDeleteStakeholder)

	mux.HandleFunc("GET /api/projects/{id}/discussions", s.handleListDiscussions)
	mux.HandleFunc("POST /api/projects/{id}/discussions", s.handleCreateDiscussion)
	mux.HandleFunc("DELETE /api/projects/{id}/discussions/{discussionId}", s.handleDeleteDiscussion)

	mux.HandleFunc("GET /api/projects/{id}/backlog", s.handleListBacklog)
	mux.HandleFunc("POST /api/projects/{id}/backlog", s.handleCreateBacklogItem)
	mux.HandleFunc("PUT /api/projects/{id}/backlog/{itemId}", s.handleUpdateBacklogItem)
	mux.HandleFunc("DELETE /api/projects/{id}/backlog/{itemId}", s.handleDeleteBacklogItem)

	mux.HandleFunc("GET /api/projects/{id}/retrospectives", s.handleListRetros)
	mux.HandleFunc("POST /api/projects/{id}/retrospectives", s.handleCreateRetro)
	mux.HandleFunc("POST /api/retrospectives/{id}/actions", s.handleAddRetroAction)
	mux.HandleFunc("POST /api/columns/{id}/cards", s.handleAddCard)
	mux.HandleFunc("POST /api/cards/{id}/vote", s.handleVoteCard)
	mux.HandleFunc("PUT /api/cards/{id}/move", s.handleMoveCard)
	mux.HandleFunc("DELETE /api/cards/{id}", s.handleDeleteCard)

	mux.HandleFunc("GET /api/projects/{id}/capacity", s.handleListIterations)
	mux.HandleFunc("POST /api/projects/{id}/capacity", s.handleCreateIteration)
	mux.HandleFunc("POST /api/capacity/{iterationId}/members", s.handleAddTeamMember)
	mux.HandleFunc("PUT /api/capacity/{iterationId}/availability", s.handleSetAvailability)

	mux.HandleFunc("GET /api/projects/{id}/budget", s.handleGetBudget)
	mux.HandleFunc("POST /api/projects/{id}/budget", s.handleCreateBudget)
	mux.HandleFunc("POST /api/budget/{budgetId}/categories", s.handleAddBudgetCategory)
	mux.HandleFunc("POST /api/categories/{categoryId}/spending", s.handleAddSpending)

	mux.HandleFunc("GET /api/projects/{id}/access", s.handleListGrants)
	mux.HandleFunc("POST /api/projects/{id}/access", s.handleUpsertGrant)
	mux.HandleFunc("PUT /api/projects/{id}/access", s.handleUpsertGrant)
	mux.HandleFunc("DELETE /api/projects/{id}/access", s.handleRevokeGrant)

	mux.HandleFunc("GET /api/projects/{id}/analytics/{report}", s.handleAnalytics)

	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	WriteData(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DB().PingContext(r.Context()); err != nil {
		WriteErrorCode(w, http.StatusServiceUnavailable, CodeInternalError, "database unreachable")
		return
	}
	WriteData(w, http.StatusOK, map[string]string{"status": "ready"})
}
