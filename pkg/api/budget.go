package api

import (
	"net/http"
	"time"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleBudget, authz.LevelRead); !ok {
		return
	}
	budget, err := s.store.GetBudgetDetail(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, budget)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleBudget, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Total    float64 `json:"totalBudget"`
		Currency string  `json:"currency"`
	}
	if err := decodeValid(r, w, "budgetCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	budget := &model.Budget{
		ProjectID: projectID,
		Total:     req.Total,
		Currency:  req.Currency,
	}
	if err := s.store.CreateBudget(r.Context(), p.ID, budget); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, budget)
}

func (s *Server) handleAddBudgetCategory(w http.ResponseWriter, r *http.Request) {
	budgetID := r.PathValue("budgetId")
	projectID, err := s.store.BudgetProject(r.Context(), budgetID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	p, ok := s.authorize(w, r, projectID, authz.ModuleBudget, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Name      string  `json:"name"`
		Allocated float64 `json:"allocatedAmount"`
	}
	if err := decodeValid(r, w, "categoryCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	category := &model.BudgetCategory{
		BudgetID:  budgetID,
		Name:      req.Name,
		Allocated: req.Allocated,
	}
	if err := s.store.AddBudgetCategory(r.Context(), p.ID, category); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, category)
}

func (s *Server) handleAddSpending(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("categoryId")
	projectID, err := s.store.CategoryProject(r.Context(), categoryID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	p, ok := s.authorize(w, r, projectID, authz.ModuleBudget, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Description string  `json:"description"`
		Amount      float64 `json:"amount"`
		SpentAt     string  `json:"spentAt"`
	}
	if err := decodeValid(r, w, "spendingCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	spentAt := time.Now().UTC()
	if req.SpentAt != "" {
		parsed, err := parseDate(req.SpentAt)
		if err != nil {
			WriteMissingFields(w, "spentAt: "+err.Error())
			return
		}
		spentAt = *parsed
	}

	entry := &model.SpendingEntry{
		CategoryID:  categoryID,
		Description: req.Description,
		Amount:      req.Amount,
		SpentAt:     spentAt,
	}
	if err := s.store.AddSpendingEntry(r.Context(), p.ID, entry); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, entry)
}
