package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/traction-pm/traction/pkg/auth"
	"github.com/traction-pm/traction/pkg/authz"
)

// principal pulls the authenticated identity off the request. The auth
// middleware guarantees it for every /api path; a miss means the route was
// wired outside the middleware chain.
func (s *Server) principal(w http.ResponseWriter, r *http.Request) (*auth.Principal, bool) {
	p, err := auth.GetPrincipal(r.Context())
	if err != nil {
		WriteErrorCode(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return nil, false
	}
	return p, true
}

// authorize resolves the caller's access on a project and enforces the
// required level on a module. On failure the response is already written.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, projectID string,
	m authz.Module, required authz.Level) (*auth.Principal, bool) {

	if projectID == "" {
		WriteErrorCode(w, http.StatusBadRequest, CodeMissingProjectID, "Project id is required")
		return nil, false
	}
	p, ok := s.principal(w, r)
	if !ok {
		return nil, false
	}

	access, err := s.policy.Evaluate(r.Context(), p.ID, projectID)
	if err != nil {
		if errors.Is(err, authz.ErrProjectNotFound) {
			WriteErrorCode(w, http.StatusNotFound, CodeProjectNotFound, "Project not found")
			return nil, false
		}
		WriteInternal(w, err)
		return nil, false
	}
	if !access.Can(m, required) {
		WriteForbidden(w, "")
		return nil, false
	}
	return p, true
}

// authorizeManager enforces owner-or-admin, the requirement for managing
// access grants. Policy failures here use ACCESS_DENIED rather than
// FORBIDDEN so grant-management rejections are distinguishable.
func (s *Server) authorizeManager(w http.ResponseWriter, r *http.Request, projectID string) (*auth.Principal, bool) {
	if projectID == "" {
		WriteErrorCode(w, http.StatusBadRequest, CodeMissingProjectID, "Project id is required")
		return nil, false
	}
	p, ok := s.principal(w, r)
	if !ok {
		return nil, false
	}

	access, err := s.policy.Evaluate(r.Context(), p.ID, projectID)
	if err != nil {
		if errors.Is(err, authz.ErrProjectNotFound) {
			WriteErrorCode(w, http.StatusNotFound, CodeProjectNotFound, "Project not found")
			return nil, false
		}
		WriteInternal(w, err)
		return nil, false
	}
	if !access.IsOwner && !access.IsAdmin {
		WriteErrorCode(w, http.StatusForbidden, CodeAccessDenied, "Only the project owner or an admin can manage access")
		return nil, false
	}
	return p, true
}

// parseDate accepts bare dates and RFC 3339 timestamps.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, errors.New("invalid date, expected YYYY-MM-DD or RFC 3339")
}
