package http

import (
	"context"
	"errors"
	"net/http"

	"tally/internal/core"
	"tally/internal/log"
)

type contextKey string

const userIDContextKey contextKey = "user_id"

// UserIDFromContext returns the authenticated user id set by requireAuth.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok && id > 0
}

// requireAuth rejects requests without a valid session with 401 before any
// handler runs. The resolved user id and a logger carrying it go into the
// request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		userID, err := s.sessions.Resolve(ctx, w, r)
		if err != nil {
			if !errors.Is(err, core.ErrAuthRequired) {
				log.NewStructuredLogger(log.FromContext(ctx).WithComponent(log.ComponentAuth)).
					LogError(ctx, "Session lookup failed", err, log.OpValidate, log.NewFields())
			}
			writeMessage(w, http.StatusUnauthorized, msgAuthRequired)
			return
		}

		ctx = context.WithValue(ctx, userIDContextKey, userID)
		ctx = log.NewContext(ctx, log.FromContext(ctx).With(log.FieldUserID, userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// mustUserID is for handlers mounted behind requireAuth.
func mustUserID(r *http.Request) int64 {
	id, _ := UserIDFromContext(r.Context())
	return id
}
