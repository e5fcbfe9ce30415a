package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// budgetRequest is the body of POST /budgets. An empty category means an
// overall budget; a zero threshold selects the default.
type budgetRequest struct {
	CategoryID     string          `json:"category_id"`
	Amount         core.Money      `json:"amount"`
	Period         core.PeriodKind `json:"period"`
	StartDate      core.Date       `json:"start_date"`
	AlertThreshold int             `json:"alert_threshold"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, ownerID string) error {
	budgets, err := s.svc.Budgets.List(r.Context(), ownerID)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(budgets).Write(w)
	return nil
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, ownerID string) error {
	var req budgetRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	b, err := s.svc.Budgets.Create(r.Context(), ownerID, core.Budget{
		CategoryID:     sanitizeInput(req.CategoryID),
		Amount:         req.Amount,
		Period:         req.Period,
		StartDate:      req.StartDate,
		AlertThreshold: req.AlertThreshold,
	})
	if err != nil {
		return err
	}
	NewJSONResponse().Status(http.StatusCreated).Data(b).Message("Budget created successfully").Write(w)
	return nil
}

func (s *Server) handleBudgetStatuses(w http.ResponseWriter, r *http.Request, ownerID string) error {
	statuses, err := s.svc.Budgets.Statuses(r.Context(), ownerID)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(statuses).Write(w)
	return nil
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	b, err := s.svc.Budgets.Get(r.Context(), ownerID, id)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(b).Write(w)
	return nil
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var patch storage.BudgetPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		return err
	}
	b, err := s.svc.Budgets.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(b).Message("Budget updated successfully").Write(w)
	return nil
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Budgets.Delete(r.Context(), ownerID, id); err != nil {
		return err
	}
	NewJSONResponse().Data(deleted{ID: id}).Message("Budget deleted successfully").Write(w)
	return nil
}
