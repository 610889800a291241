package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tally/internal/auth"
	"tally/internal/core"
	"tally/internal/log"
	"tally/internal/storage"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "session"

// SessionStore persists server side sessions. *storage.SQLiteRepository
// satisfies it.
type SessionStore interface {
	CreateSession(ctx context.Context, userID int64, ttl time.Duration) (storage.Session, error)
	GetSession(ctx context.Context, id string) (storage.Session, error)
	RenewSession(ctx context.Context, id string, ttl time.Duration) (storage.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

// SessionManager turns a login into a cookie and a cookie back into a user
// id. The cookie holds a JWT naming a stored session; deleting the row
// revokes the cookie even before it expires.
type SessionManager struct {
	store  SessionStore
	signer *auth.TokenSigner
	ttl    time.Duration
	secure bool
	now    func() time.Time
}

func NewSessionManager(store SessionStore, signer *auth.TokenSigner, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{store: store, signer: signer, ttl: ttl, secure: secure, now: time.Now}
}

// Start opens a session for userID and sets the cookie.
func (m *SessionManager) Start(ctx context.Context, w http.ResponseWriter, userID int64) error {
	sess, err := m.store.CreateSession(ctx, userID, m.ttl)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if err := m.writeCookie(w, sess); err != nil {
		return err
	}
	log.FromContext(ctx).WithComponent(log.ComponentSession).DebugContext(ctx, "Session started",
		log.FieldUserID, userID)
	return nil
}

// Resolve returns the user id behind the request cookie. Every failure mode
// collapses into core.ErrAuthRequired except store faults. Sessions past half
// their lifetime are renewed and the cookie is reissued.
func (m *SessionManager) Resolve(ctx context.Context, w http.ResponseWriter, r *http.Request) (int64, error) {
	claims, err := m.claims(r)
	if err != nil {
		return 0, core.ErrAuthRequired
	}

	sess, err := m.store.GetSession(ctx, claims.SessionID)
	if errors.Is(err, storage.ErrSessionNotFound) {
		return 0, core.ErrAuthRequired
	}
	if err != nil {
		return 0, fmt.Errorf("load session: %w", err)
	}
	if sess.UserID != claims.UserID {
		return 0, core.ErrAuthRequired
	}

	if sess.NeedsRenewal(m.now(), m.ttl) {
		renewed, err := m.store.RenewSession(ctx, sess.ID, m.ttl)
		if err != nil {
			// The current session is still valid; try again next request.
			log.FromContext(ctx).WithComponent(log.ComponentSession).WarnContext(ctx, "Session renewal failed",
				log.FieldError, err, log.FieldUserID, sess.UserID)
		} else if err := m.writeCookie(w, renewed); err != nil {
			return 0, err
		}
	}
	return sess.UserID, nil
}

// Destroy deletes the session behind the request cookie, if any, and clears
// the cookie.
func (m *SessionManager) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if claims, err := m.claims(r); err == nil {
		if err := m.store.DeleteSession(ctx, claims.SessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	http.SetCookie(w, m.cookie("", -1))
	return nil
}

func (m *SessionManager) claims(r *http.Request) (*auth.Claims, error) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, auth.ErrInvalidToken
	}
	return m.signer.Parse(c.Value)
}

func (m *SessionManager) writeCookie(w http.ResponseWriter, sess storage.Session) error {
	token, err := m.signer.Sign(sess.ID, sess.UserID, sess.ExpiresAt)
	if err != nil {
		return err
	}
	maxAge := int(sess.ExpiresAt.Sub(m.now()).Seconds())
	if maxAge < 1 {
		maxAge = 1
	}
	http.SetCookie(w, m.cookie(token, maxAge))
	return nil
}

func (m *SessionManager) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
}
