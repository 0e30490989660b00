package api

import (
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListDiscussions(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleDiscussions, authz.LevelRead); !ok {
		return
	}
	discussions, err := s.store.ListDiscussions(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, discussions)
}

func (s *Server) handleCreateDiscussion(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleDiscussions, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := decodeValid(r, w, "discussionCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	d := &model.Discussion{
		ProjectID: projectID,
		Title:     req.Title,
		Body:      req.Body,
		AuthorID:  p.ID,
	}
	if err := s.store.CreateDiscussion(r.Context(), p.ID, d); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, d)
}

func (s *Server) handleDeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleDiscussions, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteDiscussion(r.Context(), p.ID, projectID, r.PathValue("discussionId")); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Discussion deleted")
}
