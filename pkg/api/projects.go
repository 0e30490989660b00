package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/model"
)

type projectCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	StartDate   string `json:"startDate"`
	EndDate     string `json:"endDate"`

	// Wizard payload: milestones and tasks created atomically with the
	// project. A failure anywhere rolls the whole creation back.
	Milestones []struct {
		Name        string `json:"name"`
		Description string `json:"description"`
		Status      string `json:"status"`
		DueDate     string `json:"dueDate"`
	} `json:"milestones"`
	Tasks []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Priority    string `json:"priority"`
		DueDate     string `json:"dueDate"`
	} `json:"tasks"`
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}

	var req projectCreateRequest
	if err := decodeValid(r, w, "projectCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		WriteMissingFields(w, "startDate: "+err.Error())
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		WriteMissingFields(w, "endDate: "+err.Error())
		return
	}

	project := &model.Project{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		StartDate:   start,
		EndDate:     end,
	}

	var milestones []*model.Milestone
	for _, m := range req.Milestones {
		due, err := parseDate(m.DueDate)
		if err != nil {
			WriteMissingFields(w, "milestones.dueDate: "+err.Error())
			return
		}
		milestones = append(milestones, &model.Milestone{
			Name: m.Name, Description: m.Description, Status: m.Status, DueDate: due,
		})
	}
	var tasks []*model.Task
	for _, t := range req.Tasks {
		due, err := parseDate(t.DueDate)
		if err != nil {
			WriteMissingFields(w, "tasks.dueDate: "+err.Error())
			return
		}
		tasks = append(tasks, &model.Task{
			Title: t.Title, Description: t.Description, Status: t.Status,
			Priority: t.Priority, DueDate: due,
		})
	}

	if len(milestones) == 0 && len(tasks) == 0 {
		if err := s.store.CreateProject(r.Context(), p.ID, project); err != nil {
			WriteStoreError(w, err, CodeCreateError)
			return
		}
	} else {
		if err := s.store.CreateProjectWizard(r.Context(), p.ID, project, milestones, tasks); err != nil {
			WriteStoreError(w, err, CodePartialCreate)
			return
		}
	}

	WriteData(w, http.StatusOK, map[string]any{
		"project":    project,
		"milestones": milestones,
		"tasks":      tasks,
	})
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	projects, err := s.store.ListProjectsForUser(r.Context(), p.ID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, projects)
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	// Any module-level read implies the project itself is visible.
	p, ok := s.principal(w, r)
	if !ok {
		return
	}
	access, err := s.policy.Evaluate(r.Context(), p.ID, projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	if !access.IsOwner && !access.IsAdmin && len(access.Grants) == 0 {
		WriteForbidden(w, "")
		return
	}

	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, project)
}

func (s *Server) handleUpdateProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorizeManager(w, r, projectID)
	if !ok {
		return
	}

	current, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}

	// Partial patch: absent fields keep their stored value.
	var req struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
		Status      *string `json:"status"`
		Priority    *string `json:"priority"`
		StartDate   *string `json:"startDate"`
		EndDate     *string `json:"endDate"`
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
	if req.Priority != nil {
		current.Priority = *req.Priority
	}
	if req.StartDate != nil {
		t, err := parseDate(*req.StartDate)
		if err != nil {
			WriteMissingFields(w, "startDate: "+err.Error())
			return
		}
		current.StartDate = t
	}
	if req.EndDate != nil {
		t, err := parseDate(*req.EndDate)
		if err != nil {
			WriteMissingFields(w, "endDate: "+err.Error())
			return
		}
		current.EndDate = t
	}

	if err := s.store.UpdateProject(r.Context(), p.ID, current); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, current)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorizeManager(w, r, projectID)
	if !ok {
		return
	}
	if err := s.store.DeleteProject(r.Context(), p.ID, projectID); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Project deleted")
}
