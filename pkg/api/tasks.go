package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleTasks, authz.LevelRead); !ok {
		return
	}
	tasks, err := s.store.ListTasks(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleTasks, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Status      string  `json:"status"`
		Priority    string  `json:"priority"`
		MilestoneID *string `json:"milestoneId"`
		AssigneeID  *string `json:"assigneeId"`
		DueDate     string  `json:"dueDate"`
	}
	if err := decodeValid(r, w, "taskCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		WriteMissingFields(w, "dueDate: "+err.Error())
		return
	}

	task := &model.Task{
		ProjectID:   projectID,
		MilestoneID: req.MilestoneID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		AssigneeID:  req.AssigneeID,
		DueDate:     due,
	}
	if err := s.store.CreateTask(r.Context(), p.ID, task); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, task)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleTasks, authz.LevelWrite)
	if !ok {
		return
	}

	current, err := s.store.GetTask(r.Context(), projectID, r.PathValue("taskId"))
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		MilestoneID *string `json:"milestoneId"`
		AssigneeID  *string `json:"assigneeId"`
		DueDate     *string `json:"dueDate"`
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
	if req.MilestoneID != nil {
		current.MilestoneID = req.MilestoneID
	}
	if req.AssigneeID != nil {
		current.AssigneeID = req.AssigneeID
	}
	if req.DueDate != nil {
		due, err := parseDate(*req.DueDate)
		if err != nil {
			WriteMissingFields(w, "dueDate: "+err.Error())
			return
		}
		current.DueDate = due
	}

	if err := s.store.UpdateTask(r.Context(), p.ID, current); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, current)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleTasks, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteTask(r.Context(), p.ID, projectID, r.PathValue("taskId")); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Task deleted")
}
