package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListStakeholders(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleStakeholder, authz.LevelRead); !ok {
		return
	}
	stakeholders, err := s.store.ListStakeholders(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, stakeholders)
}

func (s *Server) handleCreateStakeholder(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleStakeholder, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Name         string `json:"name"`
		Role         string `json:"role"`
		Organization string `json:"organization"`
		Influence    string `json:"influence"`
		Interest     string `json:"interest"`
		Email        string `json:"email"`
	}
	if err := decodeValid(r, w, "stakeholderCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	st := &model.Stakeholder{
		ProjectID:    projectID,
		Name:         req.Name,
		Role:         req.Role,
		Organization: req.Organization,
		Influence:    req.Influence,
		Interest:     req.Interest,
		Email:        req.Email,
	}
	if err := s.store.CreateStakeholder(r.Context(), p.ID, st); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, st)
}

func (s *Server) handleUpdateStakeholder(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleStakeholder, authz.LevelWrite)
	if !ok {
		return
	}

	current, err := s.store.GetStakeholder(r.Context(), projectID, r.PathValue("stakeholderId"))
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}

	var req struct {
		Name         *string `json:"name"`
		Role         *string `json:"role"`
		Organization *string `json:"organization"`
		Influence    *string `json:"influence"`
		Interest     *string `json:"interest"`
		Email        *string `json:"email"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Role != nil {
		current.Role = *req.Role
	}
	if req.Organization != nil {
		current.Organization = *req.Organization
	}
	if req.Influence != nil {
		current.Influence = *req.Influence
	}
	if req.Interest != nil {
		current.Interest = *req.Interest
	}
	if req.Email != nil {
		current.Email = *req.Email
	}

	if err := s.store.UpdateStakeholder(r.Context(), p.ID, current); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, current)
}

func (s *Server) handleDeleteStakeholder(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleStakeholder, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteStakeholder(r.Context(), p.ID, projectID, r.PathValue("stakeholderId")); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Stakeholder deleted")
}
