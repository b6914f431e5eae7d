package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/log"
)

// amountField accepts the amount as a JSON string or number, keeping the
// decimal text exactly as sent.
type amountField string

func (a *amountField) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amountField(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amountField(n.String())
	return nil
}

// expenseRequest mirrors core.Expense so a fetched expense can be sent back
// as is. ID is accepted but the path id always wins.
type expenseRequest struct {
	ID            string      `json:"id,omitempty"`
	Date          string      `json:"date"`
	Category      string      `json:"category"`
	Amount        amountField `json:"amount"`
	Description   string      `json:"description"`
	PaymentMethod string      `json:"paymentMethod"`
}

func (req expenseRequest) input() core.ExpenseInput {
	return sanitizeExpenseInput(core.ExpenseInput{
		Date:          req.Date,
		Category:      req.Category,
		Amount:        string(req.Amount),
		Description:   req.Description,
		PaymentMethod: req.PaymentMethod,
	})
}

type expenseListResponse struct {
	Expenses []core.Expense `json:"expenses"`
	Count    int            `json:"count"`
	Total    core.Money     `json:"total"`
	Empty    bool           `json:"empty"`
}

type expenseResponse struct {
	Expense core.Expense `json:"expense"`
}

// handleExpenses serves the history list and expense creation.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	if r.Method == http.MethodPost {
		s.createExpense(w, r)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	q := r.URL.Query()
	filter := aggregate.Filter{
		Category: sanitizeInput(q.Get("category")),
		Date:     sanitizeInput(q.Get("date")),
	}
	mode := aggregate.ParseSortMode(q.Get("sort"))

	list := s.svc.History(ctx, filter, mode)
	writeJSON(w, http.StatusOK, expenseListResponse{
		Expenses: list,
		Count:    len(list),
		Total:    aggregate.Total(list),
		Empty:    len(list) == 0,
	})
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
		s.badRequest(w, r, err)
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	e, err := s.svc.Create(ctx, req.input())
	if err != nil {
		s.mutationError(w, r, err, log.OpCreate)
		return
	}

	w.Header().Set("Location", "/api/expenses/"+e.ID)
	writeJSON(w, http.StatusCreated, expenseResponse{Expense: e})
}

// handleExpense reads, replaces or deletes one expense.
func (s *Server) handleExpense(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet, http.MethodPut, http.MethodDelete) {
		return
	}

	id := sanitizeInput(r.PathValue("id"))

	ctx, cancel := s.requestContext(r)
	defer cancel()

	switch r.Method {
	case http.MethodPut:
		var req expenseRequest
		if err := decodeJSON(w, r, &req, maxJSONBody); err != nil {
			s.badRequest(w, r, err)
			return
		}
		e, err := s.svc.Update(ctx, id, req.input())
		if err != nil {
			s.mutationError(w, r, err, log.OpUpdate)
			return
		}
		writeJSON(w, http.StatusOK, expenseResponse{Expense: e})

	case http.MethodDelete:
		if err := s.svc.Delete(ctx, id); err != nil {
			s.mutationError(w, r, err, log.OpDelete)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		e, err := s.svc.Get(ctx, id)
		if err != nil {
			s.mutationError(w, r, err, log.OpRead)
			return
		}
		writeJSON(w, http.StatusOK, expenseResponse{Expense: e})
	}
}

// mutationError maps service errors onto status codes.
func (s *Server) mutationError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var verrs core.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		writeValidation(w, verrs)
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "expense not found")
	case errors.Is(err, core.ErrEmptyID):
		writeError(w, http.StatusBadRequest, "expense id is required")
	default:
		s.internalError(w, r, "Expense operation failed", err, op)
	}
}
