package http

import (
	"net/http"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// expenseRequest is the body of POST /expenses.
type expenseRequest struct {
	CategoryID    string     `json:"category_id"`
	Amount        core.Money `json:"amount"`
	Description   string     `json:"description"`
	Date          core.Date  `json:"date"`
	PaymentMethod string     `json:"payment_method"`
}

func (req expenseRequest) expense() core.Expense {
	return core.Expense{
		CategoryID:    sanitizeInput(req.CategoryID),
		Amount:        req.Amount,
		Description:   sanitizeInput(req.Description),
		Date:          req.Date,
		PaymentMethod: sanitizeInput(req.PaymentMethod),
	}
}

// handleListExpenses answers with the page fields beside data, not nested.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, ownerID string) error {
	q, err := ParseExpenseQuery(r.URL.Query())
	if err != nil {
		return err
	}
	page, err := s.svc.Expenses.List(r.Context(), ownerID, q)
	if err != nil {
		return err
	}
	NewJSONResponse().Raw(page).Write(w)
	return nil
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, ownerID string) error {
	var req expenseRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		return err
	}
	e, err := s.svc.Expenses.Create(r.Context(), ownerID, req.expense())
	if err != nil {
		return err
	}
	NewJSONResponse().Status(http.StatusCreated).Data(e).Message("Expense created successfully").Write(w)
	return nil
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	e, err := s.svc.Expenses.Get(r.Context(), ownerID, id)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(e).Write(w)
	return nil
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	var patch storage.ExpensePatch
	if err := DecodeJSON(w, r, &patch); err != nil {
		return err
	}
	e, err := s.svc.Expenses.Update(r.Context(), ownerID, id, patch)
	if err != nil {
		return err
	}
	NewJSONResponse().Data(e).Message("Expense updated successfully").Write(w)
	return nil
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, ownerID string) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}
	if err := s.svc.Expenses.Delete(r.Context(), ownerID, id); err != nil {
		return err
	}
	NewJSONResponse().Data(deleted{ID: id}).Message("Expense deleted successfully").Write(w)
	return nil
}
