package http

import (
	"net/http"

	"tally/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	f, err := parseExpenseFilter(r)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}

	expenses, err := s.expenses.List(r.Context(), mustUserID(r), f)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	if expenses == nil {
		expenses = []core.ExpenseWithCategory{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleGetExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgExpenseNotFound)
		return
	}

	e, err := s.expenses.Get(r.Context(), id, mustUserID(r))
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	n, err := parseCreateExpense(w, r, mustUserID(r))
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}

	e, err := s.expenses.Create(r.Context(), n)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgExpenseNotFound)
		return
	}
	u, err := parseUpdateExpense(w, r)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}

	e, err := s.expenses.Update(r.Context(), id, mustUserID(r), u)
	if err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgExpenseNotFound)
		return
	}

	if err := s.expenses.Delete(r.Context(), id, mustUserID(r)); err != nil {
		writeError(w, r, err, msgExpenseNotFound)
		return
	}
	writeMessage(w, http.StatusOK, msgExpenseDeleted)
}
