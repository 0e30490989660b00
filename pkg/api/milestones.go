package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleRoadmap, authz.LevelRead); !ok {
		return
	}
	milestones, err := s.store.ListMilestones(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, milestones)
}

func (s *Server) handleCreateMilestone(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRoadmap, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
		DueDate     string `json:"dueDate"`
	}
	if err := decodeValid(r, w, "milestoneCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		WriteMissingFields(w, "dueDate: "+err.Error())
		return
	}

	milestone := &model.Milestone{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		DueDate:     due,
	}
	if err := s.store.CreateMilestone(r.Context(), p.ID, milestone); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, milestone)
}

func (s *Server) handleUpdateMilestone(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRoadmap, authz.LevelWrite)
	if !ok {
		return
	}

	current, err := s.store.GetMilestone(r.Context(), projectID, r.PathValue("milestoneId"))
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}

	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		DueDate     *string `json:"dueDate"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	if req.Name != nil {
		current.Name = *req.Name
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.Status != nil {
		current.Status = *req.Status
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			WriteMissingFields(w, "dueDate: "+err.Error())
			return
		}
		current.DueDate = due
	}

	if err := s.store.UpdateMilestone(r.Context(), p.ID, current); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, current)
}

func (s *Server) handleDeleteMilestone(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRoadmap, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteMilestone(r.Context(), p.ID, projectID, r.PathValue("milestoneId")); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Milestone deleted")
}
