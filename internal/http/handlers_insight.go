package http

import (
	"net/http"

	"fintrack/internal/core"
)

type chatRequest struct {
	Message string             `json:"message"`
	History []core.ChatMessage `json:"history"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request, ownerID string) error {
	period, err := ParsePeriodParam(r.URL.Query())
	if err != nil {
		return err
	}
	sum, err := s.svc.Insights.Summary(r.Context(), ownerID, period)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(sum).Write(w)
	return nil
}

func (s *Server) handleTips(w http.ResponseWriter, r *http.Request, ownerID string) error {
	tips, err := s.svc.Insights.Tips(r.Context(), ownerID)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(tips).Write(w)
	return nil
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request, ownerID string) error {
	var req chatRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	reply, err := s.svc.Insights.Chat(r.Context(), ownerID, req.Message, req.History)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(reply).Write(w)
	return nil
}

func (s *Server) handlePredictions(w http.ResponseWriter, r *http.Request, ownerID string) error {
	p, err := s.svc.Insights.Predict(r.Context(), ownerID)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(p).Write(w)
	return nil
}
