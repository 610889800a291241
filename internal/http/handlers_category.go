package http

import (
	"net/http"

	"tally/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.categories.List(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	if categories == nil {
		categories = []core.CategoryWithStats{}
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	n, err := parseCreateCategory(w, r, mustUserID(r))
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}

	c, err := s.categories.Create(r.Context(), n)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}
	u, err := parseUpdateCategory(w, r)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}

	c, err := s.categories.Update(r.Context(), id, mustUserID(r), u)
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeMessage(w, http.StatusNotFound, msgCategoryNotFound)
		return
	}

	if _, err := s.categories.Delete(r.Context(), id, mustUserID(r)); err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	writeMessage(w, http.StatusOK, msgCategoryDeleted)
}

// handleSeedDefaultCategories is a no-op for users that already have
// categories.
func (s *Server) handleSeedDefaultCategories(w http.ResponseWriter, r *http.Request) {
	created, err := s.categories.SeedDefaults(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err, msgCategoryNotFound)
		return
	}
	if len(created) == 0 {
		writeMessage(w, http.StatusOK, msgCategoriesExist)
		return
	}
	writeMessage(w, http.StatusOK, msgDefaultsCreated)
}
