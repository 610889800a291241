// Package http exposes the JSON API.
//
// This file holds the response helpers: every body is JSON, errors are
// {"message": "..."} and the status is derived from the core error taxonomy.
package http

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"tally/internal/core"
	"tally/internal/log"
)

// Client facing messages.
const (
	msgAuthRequired       = "Authentication required"
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgLogoutFailed       = "Could not log out"
	msgLoggedOut          = "Logged out successfully"
	msgUserNotFound       = "User not found"
	msgCategoryNotFound   = "Category not found"
	msgExpenseNotFound    = "Expense not found"
	msgCategoryDeleted    = "Category deleted successfully"
	msgExpenseDeleted     = "Expense deleted successfully"
	msgDefaultsCreated    = "Default categories created"
	msgCategoriesExist    = "Categories already exist"
	msgInternal           = "Internal server error"
	msgTooManyRequests    = "Too many requests, please try again later"
	msgRouteNotFound      = "Not found"
	msgMethodNotAllowed   = "Method not allowed"
)

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	User core.PublicUser `json:"user"`
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"` + msgInternal + `"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, messageResponse{Message: msg})
}

// writeError maps err onto a status and message. notFoundMsg is used for
// core.ErrNotFound so each resource keeps its own wording. Unexpected errors
// are logged and hidden behind a generic message.
func writeError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		writeMessage(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, core.ErrValidation):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrConflict):
		writeMessage(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, core.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, core.ErrAuthRequired):
		writeMessage(w, http.StatusUnauthorized, msgAuthRequired)
	case errors.Is(err, core.ErrNotFound):
		writeMessage(w, http.StatusNotFound, notFoundMsg)
	default:
		ctx := r.Context()
		log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentHTTP)).
			LogError(ctx, "Request failed", err, r.Method, log.NewFields().With(log.FieldPath, r.URL.Path))
		writeMessage(w, http.StatusInternalServerError, msgInternal)
	}
}
