package http

import (
	"errors"
	"net/http"

	"tally/internal/core"
	"tally/internal/log"
)

// handleRegister creates the account and logs the new user in.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	n, err := parseRegister(w, r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	u, err := s.users.Register(r.Context(), n)
	if err != nil {
		writeError(w, r, err, "")
		return
	}
	s.startSession(w, r, u)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	req, err := parseLogin(w, r)
	if err != nil {
		writeError(w, r, err, "")
		return
	}

	u, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, core.ErrInvalidCredentials) {
			log.FromContext(r.Context()).WithComponent(log.ComponentAuth).InfoContext(r.Context(),
				"Login rejected", log.FieldOperation, log.OpLogin)
		}
		writeError(w, r, err, "")
		return
	}
	s.startSession(w, r, u)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, u core.User) {
	if err := s.sessions.Start(r.Context(), w, u.ID); err != nil {
		writeError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u.Public()})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := s.sessions.Destroy(ctx, w, r); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentSession)).
			LogError(ctx, "Logout failed", err, log.OpLogout, log.NewFields())
		writeMessage(w, http.StatusInternalServerError, msgLogoutFailed)
		return
	}
	writeMessage(w, http.StatusOK, msgLoggedOut)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.User(r.Context(), mustUserID(r))
	if err != nil {
		writeError(w, r, err, msgUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: u.Public()})
}
