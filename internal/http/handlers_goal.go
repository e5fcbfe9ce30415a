package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type goalRequest struct {
	Name         string     `json:"name"`
	TargetAmount core.Money `json:"target_amount"`
	Deadline     core.Date  `json:"deadline"`
	Icon         string     `json:"icon"`
	Color        string     `json:"color"`
}

type contributionRequest struct {
	Amount core.Money `json:"amount"`
	Note   string     `json:"note"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, ownerID string) error {
	goals, err := s.svc.Goals.List(r.Context(), ownerID)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(goals).Write(w)
	return nil
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, ownerID string) error {
	var req goalRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	g, err := s.svc.Goals.Create(r.Context(), ownerID, core.Goal{
		Name:         sanitizeInput(req.Name),
		TargetAmount: req.TargetAmount,
		Deadline:     req.Deadline,
		Icon:         sanitizeInput(req.Icon),
		Color:        sanitizeInput(req.Color),
	})
	if err != nil {
		return err
	}
	NewJSONResponse().Status(http.StatusCreated).Data(g).Message("Goal created successfully").Write(w)
	return nil
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	g, err := s.svc.Goals.Get(r.Context(), ownerID, id)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(g).Write(w)
	return nil
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var patch storage.GoalPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		return err
	}
	g, err := s.svc.Goals.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(g).Message("Goal updated successfully").Write(w)
	return nil
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Goals.Delete(r.Context(), ownerID, id); err != nil {
		return err
	}
	NewJSONResponse().Data(deleted{ID: id}).Message("Goal deleted successfully").Write(w)
	return nil
}

// handleAddContribution answers with the updated goal.
func (s *Server) handleAddContribution(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var req contributionRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	g, err := s.svc.Goals.AddContribution(r.Context(), ownerID, id, core.Contribution{
		Amount: req.Amount,
		Note:   sanitizeInput(req.Note),
	})
	if err != nil {
		return err
	}
	NewJSONResponse().Data(g).Message("Contribution added successfully").Write(w)
	return nil
}

func (s *Server) handleListContributions(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	contributions, err := s.svc.Goals.ListContributions(r.Context(), ownerID, id)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(contributions).Write(w)
	return nil
}
