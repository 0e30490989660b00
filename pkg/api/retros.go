package api

import (
	"errors"
	"net/http"

	"github.com/traction-pm/traction/pkg/auth"
	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
	"github.com/traction-pm/traction/pkg/store"
)

func (s *Server) handleListRetros(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleRetros, authz.LevelRead); !ok {
		return
	}
	retros, err := s.store.ListRetros(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, retros)
}

func (s *Server) handleCreateRetro(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRetros, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Name   string `json:"name"`
		Sprint string `json:"sprint"`
	}
	if err := decodeValid(r, w, "retroCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	retro := &model.Retrospective{
		ProjectID: projectID,
		Name:      req.Name,
		Sprint:    req.Sprint,
	}
	if err := s.store.CreateRetro(r.Context(), p.ID, retro); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, retro)
}

func (s *Server) handleAddRetroAction(w http.ResponseWriter, r *http.Request) {
	retroID := r.PathValue("id")
	projectID, err := s.store.RetroProject(r.Context(), retroID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	p, ok := s.authorize(w, r, projectID, authz.ModuleRetros, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Text    string  `json:"text"`
		OwnerID *string `json:"ownerId"`
	}
	if err := decodeValid(r, w, "actionCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	action := &model.RetroAction{
		RetroID: retroID,
		Text:    req.Text,
		OwnerID: req.OwnerID,
	}
	if err := s.store.AddRetroAction(r.Context(), p.ID, action); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, action)
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	columnID := r.PathValue("id")
	projectID, err := s.store.ColumnProject(r.Context(), columnID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	p, ok := s.authorize(w, r, projectID, authz.ModuleRetros, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Text     string `json:"text"`
		Position int    `json:"position"`
	}
	if err := decodeValid(r, w, "cardCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	card := &model.RetroCard{
		ColumnID: columnID,
		Text:     req.Text,
		Position: req.Position,
	}
	if err := s.store.AddCard(r.Context(), p.ID, card); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, card)
}

// handleVoteCard toggles the caller's vote. The first call adds the vote,
// the second removes it; the returned tally is re-derived from the vote
// rows inside the same transaction.
func (s *Server) handleVoteCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	p, ok := s.cardProject(w, r, cardID, authz.LevelWrite)
	if !ok {
		return
	}

	votes, added, err := s.store.ToggleVote(r.Context(), p.ID, cardID)
	if err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	msg := "Vote removed"
	if added {
		msg = "Vote added"
	}
	WriteMessage(w, http.StatusOK, map[string]any{"cardId": cardID, "votes": votes}, msg)
}

func (s *Server) handleMoveCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	p, ok := s.cardProject(w, r, cardID, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		ColumnID string `json:"columnId"`
		Position int    `json:"position"`
	}
	if err := decodeValid(r, w, "cardMove", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	if err := s.store.MoveCard(r.Context(), p.ID, cardID, req.ColumnID, req.Position); err != nil {
		WriteStoreError(w, err, CodeMoveError)
		return
	}
	WriteMessage(w, http.StatusOK, map[string]any{"cardId": cardID, "columnId": req.ColumnID}, "Card moved")
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	cardID := r.PathValue("id")
	p, ok := s.cardProject(w, r, cardID, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteCard(r.Context(), p.ID, cardID); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Card deleted")
}

// cardProject resolves a card back to its project and runs the usual module
// check. A missing card reports CARD_NOT_FOUND rather than the generic code
// so board clients can drop stale references.
func (s *Server) cardProject(w http.ResponseWriter, r *http.Request, cardID string, level authz.Level) (*auth.Principal, bool) {
	projectID, err := s.store.CardProject(r.Context(), cardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			WriteErrorCode(w, http.StatusNotFound, CodeCardNotFound, "Card not found")
			return nil, false
		}
		WriteStoreError(w, err, CodeFetchError)
		return nil, false
	}
	return s.authorize(w, r, projectID, authz.ModuleRetros, level)
}
