package api

import (
	"fmt"
	"net/http"

	"github.com/traction-pm/traction/pkg/authz"
	"github.com/traction-pm/traction/pkg/model"
)

func (s *Server) handleListIterations(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, ok := s.authorize(w, r, projectID, authz.ModuleCapacity, authz.LevelRead); !ok {
		return
	}
	iterations, err := s.store.ListIterations(r.Context(), projectID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	WriteData(w, http.StatusOK, iterations)
}

func (s *Server) handleCreateIteration(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	p, ok := s.authorize(w, r, projectID, authz.ModuleCapacity, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Name      string `json:"name"`
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := decodeValid(r, w, "iterationCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil || start == nil {
		WriteMissingFields(w, "startDate: invalid date")
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil || end == nil {
		WriteMissingFields(w, "endDate: invalid date")
		return
	}
	if end.Before(*start) {
		WriteMissingFields(w, "endDate must not be before startDate")
		return
	}

	it := &model.CapacityIteration{
		ProjectID: projectID,
		Name:      req.Name,
		StartDate: *start,
		EndDate:   *end,
	}
	if err := s.store.CreateIteration(r.Context(), p.ID, it); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, it)
}

func (s *Server) handleAddTeamMember(w http.ResponseWriter, r *http.Request) {
	iterationID := r.PathValue("iterationId")
	projectID, err := s.store.IterationProject(r.Context(), iterationID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	p, ok := s.authorize(w, r, projectID, authz.ModuleCapacity, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		Name        string  `json:"name"`
		Role        string  `json:"role"`
		WeeklyHours float64 `json:"weeklyHours"`
	}
	if err := decodeValid(r, w, "memberCreate", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	member := &model.TeamMember{
		IterationID: iterationID,
		Name:        req.Name,
		Role:        req.Role,
		WeeklyHours: req.WeeklyHours,
	}
	if err := s.store.AddTeamMember(r.Context(), p.ID, member); err != nil {
		WriteStoreError(w, err, CodeCreateError)
		return
	}
	WriteData(w, http.StatusOK, member)
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	iterationID := r.PathValue("iterationId")
	projectID, err := s.store.IterationProject(r.Context(), iterationID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	p, ok := s.authorize(w, r, projectID, authz.ModuleCapacity, authz.LevelWrite)
	if !ok {
		return
	}

	var req struct {
		MemberID       string  `json:"memberId"`
		WeekIndex      int     `json:"weekIndex"`
		AvailableHours float64 `json:"availableHours"`
	}
	if err := decodeValid(r, w, "availabilitySet", &req); err != nil {
		WriteMissingFields(w, err.Error())
		return
	}

	// The member must belong to the iteration on the URL and the week index
	// must fall inside the iteration's span.
	owning, err := s.store.MemberIteration(r.Context(), req.MemberID)
	if err != nil {
		WriteStoreError(w, err, CodeFetchError)
		return
	}
	if owning.ID != iterationID {
		WriteMissingFields(w, "memberId does not belong to this iteration")
		return
	}
	if req.WeekIndex >= owning.WeekCount {
		WriteMissingFields(w, fmt.Sprintf("weekIndex must be below %d", owning.WeekCount))
		return
	}

	wa := &model.WeeklyAvailability{
		MemberID:       req.MemberID,
		WeekIndex:      req.WeekIndex,
		AvailableHours: req.AvailableHours,
	}
	if err := s.store.SetAvailability(r.Context(), p.ID, wa); err != nil {
		WriteStoreError(w, err, CodeUpdateError)
		return
	}
	WriteData(w, http.StatusOK, wa)
}
