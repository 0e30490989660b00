package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListBacklog(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleBacklog, authz.LevelRead); !ok {
		return
	}
	items, err := s.store.ListBacklog(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, items)
}

func (s *Server) handleCreateBacklogItem(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleBacklog, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		StoryPoints int    `json:"storyPoints"`
		Rank        int    `json:"rank"`
	}
	if err := decodeValid(r, w, "backlogCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	item := &model.BacklogItem{
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StoryPoints: req.StoryPoints,
		Rank:        req.Rank,
	}
	if err := s.store.CreateBacklogItem(r.Context(), p.ID, item); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, item)
}

func (s *Server) handleUpdateBacklogItem(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleBacklog, authz.LevelWrite)
	if !ok {
		return
	}

	current, err := s.store.GetBacklogItem(r.Context(), projectID, r.PathValue("itemId"))
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		StoryPoints *int    `json:"storyPoints"`
		Rank        *int    `json:"rank"`
	}
	if err := decodeJSON(r, w, &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	if req.Title != nil {
		current.Title = *req.Title
	}
	if req.Description != nil {
		current.Description = *req.Description
	}
	if req.Status != nil {
		current.Status = *req.Status
	}
	if req.Priority != nil {
		current.Priority = *req.Priority
	}
	if req.StoryPoints != nil {
		current.StoryPoints = *req.StoryPoints
	}
	if req.Rank != nil {
		current.Rank = *req.Rank
	}

	if err := s.store.UpdateBacklogItem(r.Context(), p.ID, current); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, current)
}

func (s *Server) handleDeleteBacklogItem(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleBacklog, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteBacklogItem(r.Context(), p.ID, projectID, r.PathValue("itemId")); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Backlog item deleted")
}
