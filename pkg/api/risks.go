package api

import (
	"fmt"
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListRisks(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleRisks, authz.LevelRead); !ok {
		return
	}
	risks, err := s.store.ListRisks(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, risks)
}

func (s *Server) handleCreateRisk(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRisks, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Title          string  `json:"title"`
		Description    string  `json:"description"`
		Category       string  `json:"category"`
		Likelihood     int     `json:"likelihood"`
		Impact         int     `json:"impact"`
		Status         string  `json:"status"`
		MitigationPlan string  `json:"mitigationPlan"`
		OwnerID        *string `json:"ownerId"`
		// A client-supplied riskScore is ignored; the score is always
		// recomputed server-side.
	}
	if err := decodeValid(r, w, "riskCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	risk := &model.Risk{
		ProjectID:      projectID,
		Title:          req.Title,
		Description:    req.Description,
		Category:       req.Category,
		Likelihood:     req.Likelihood,
		Impact:         req.Impact,
		Status:         req.Status,
		MitigationPlan: req.MitigationPlan,
		OwnerID:        req.OwnerID,
	}
	if err := s.store.CreateRisk(r.Context(), p.ID, risk); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, risk)
}

func (s *Server) handleUpdateRisk(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRisks, authz.LevelWrite)
	if !ok {
		return
	}

	current, err := s.store.GetRisk(r.Context(), projectID, r.PathValue("riskId"))
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}

	var req struct {
		Title          *string `json:"title"`
		Description    *string `json:"description"`
		Category       *string `json:"category"`
		Likelihood     *int    `json:"likelihood"`
		Impact         *int    `json:"impact"`
		Status         *string `json:"status"`
		MitigationPlan *string `json:"mitigationPlan"`
		OwnerID        *string `json:"ownerId"`
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
	if req.Category != nil {
		current.Category = *req.Category
	}
	if req.Likelihood != nil {
		current.Likelihood = *req.Likelihood
	}
	if req.Impact != nil {
		current.Impact = *req.Impact
	}
	if req.Status != nil {
		current.Status = *req.Status
	}
	if req.MitigationPlan != nil {
		current.MitigationPlan = *req.MitigationPlan
	}
	if req.OwnerID != nil {
		current.OwnerID = req.OwnerID
	}

	if err := validRiskFactors(current.Likelihood, current.Impact); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	// UpdateRisk recomputes the score; stale client values never survive.
	if err := s.store.UpdateRisk(r.Context(), p.ID, current); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, current)
}

func (s *Server) handleDeleteRisk(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleRisks, authz.LevelWrite)
	if !ok {
		return
	}
	if err := s.store.DeleteRisk(r.Context(), p.ID, projectID, r.PathValue("riskId")); err != nil {
		WriteStoreError(w, err, CodeDeleteError)
		return
	}
	WriteMessage(w, http.StatusOK, nil, "Risk deleted")
}

func validRiskFactors(likelihood, impact int) error {
	if likelihood < model.MinRiskFactor || likelihood > model.MaxRiskFactor {
		return fmt.Errorf("likelihood must be between %d and %d", model.MinRiskFactor, model.MaxRiskFactor)
	}
	if impact < model.MinRiskFactor || impact > model.MaxRiskFactor {
		return fmt.Errorf("impact must be between %d and %d", model.MinRiskFactor, model.MaxRiskFactor)
	}
	return nil
}
