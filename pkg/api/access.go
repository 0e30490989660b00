package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

// Access management is owner/admin only; a write grant on a module never
// lets its holder mint further grants.

func (s *Server) handleListGrants(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorizeManager(w, r, projectID); !ok {
		return
	}
	grants, err := s.store.ListGrants(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, grants)
}

func (s *Server) handleUpsertGrant(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorizeManager(w, r, projectID)
	if !ok {
		return
	}

	var req struct {
		UserID string `json:"userId"`
		Module string `json:"module"`
		Level  string `json:"level"`
	}
	if err := decodeValid(r, w, "grantUpsert", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	module, err := authz.ParseModule(req.Module)
	if err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	level, err := authz.ParseLevel(req.Level)
	if err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	grant := &model.ModulePermission{
		ProjectID: projectID,
		UserID:    req.UserID,
		Module:    string(module),
		Level:     string(level),
		GrantedBy: p.ID,
	}
	if err := s.store.UpsertGrant(r.Context(), p.ID, grant); err != nil {
		WriteStoreError(w, err, CodeGrantError)
		return
	}
	WriteMessage(w, http.StatusOK, grant, "Access granted")
}

func (s *Server) handleRevokeGrant(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorizeManager(w, r, projectID)
	if !ok {
		return
	}

	userID := r.URL.Query().Get("userId")
	moduleName := r.URL.Query().Get("module")
	if userID == "" || moduleName == "" {
		WriteMissingFields(w, "userId and module query parameters are required")
		return
	}
	module, err := authz.ParseModule(moduleName)
	if err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	if err := s.store.RevokeGrant(r.Context(), p.ID, projectID, userID, string(module)); err != nil {
		WriteStoreError(w, err, CodeRevokeError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Access revoked")
}
