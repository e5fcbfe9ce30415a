package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type categoryRequest struct {
	Name  string            `json:"name"`
	Icon  string            `json:"icon"`
	Color string            `json:"color"`
	Kind  core.CategoryKind `json:"type"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, ownerID string) error {
	cats, err := s.svc.Categories.List(r.Context(), ownerID)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(cats).Write(w)
	return nil
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, ownerID string) error {
	var req categoryRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	c, err := s.svc.Categories.Create(r.Context(), ownerID, core.Category{
		Name:  sanitizeInput(req.Name),
		Icon:  sanitizeInput(req.Icon),
		Color: sanitizeInput(req.Color),
		Kind:  req.Kind,
	})
	if err != nil {
		return err
	}
	NewJSONResponse().Status(http.StatusCreated).Data(c).Message("Category created successfully").Write(w)
	return nil
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	c, err := s.svc.Categories.Get(r.Context(), ownerID, id)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(c).Write(w)
	return nil
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var patch storage.CategoryPatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		return err
	}
	c, err := s.svc.Categories.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(c).Message("Category updated successfully").Write(w)
	return nil
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Categories.Delete(r.Context(), ownerID, id); err != nil {
		return err
	}
	NewJSONResponse().Data(deleted{ID: id}).Message("Category deleted successfully").Write(w)
	return nil
}
