package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
)

// Analytics reports are read-only aggregations; any analytics read grant
// (or owner/admin) unlocks all four reports.
func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleAnalytics, authz.LevelRead); !ok {
		return
	}

	var (
		report any
		err    error
	)
	switch r.PathValue("report") {
	case "project-overview":
		report, err = s.analytics.ComputeOverview(r.Context(), projectID)
	case "team-capacity":
		report, err = s.analytics.ComputeTeamCapacity(r.Context(), projectID)
	case "retrospectives":
		report, err = s.analytics.ComputeRetros(r.Context(), projectID)
	case "comprehensive":
		report, err = s.analytics.ComputeComprehensive(r.Context(), projectID)
	default:
		WriteErrorCode(w, http.StatusNotFound, CodeNotFound, "Unknown report")
		return
	}
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, report)
}
