package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/Conceptual-Machines/singalong-genie/internal/logger"
	"github.com/Conceptual-Machines/singalong-genie/internal/session"
)

const (
	// SessionHeader lets API clients pick their session without cookies.
	// The id is trusted as sent: it is not signed, so anyone holding a session id can act on
	// that session. Deployments with per-user isolation should run behind the gateway, where
	// the gateway user wins over this header.
	SessionHeader = "X-Session-ID"

	sessionCookieName = "genie_session"
	sessionIDKey      = "id"
	sessionContextKey = "session"
	maxSessionIDLen   = 128
)

// Sessions resolves the caller's song session and stores it on the context.
// Precedence: gateway user, X-Session-ID header, then the signed cookie (created on first use).
// A header id bypasses the cookie signature; see SessionHeader.
func Sessions(store *session.Store, cookies *sessions.CookieStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := resolveSessionID(c, cookies)

		sess := store.GetOrCreate(id)
		c.Set("session_id", id)
		c.Set(sessionContextKey, sess)
		c.Header(SessionHeader, id)

		c.Next()
	}
}

func resolveSessionID(c *gin.Context, cookies *sessions.CookieStore) string {
	if userID, ok := GetUserIDFromGateway(c); ok {
		return "user:" + userID
	}

	if id := c.GetHeader(SessionHeader); id != "" && len(id) <= maxSessionIDLen {
		return id
	}

	cookie, err := cookies.Get(c.Request, sessionCookieName)
	if err != nil {
		// A cookie signed with an old secret decodes with an error but still yields a fresh session
		logger.Debug("Discarding unreadable session cookie", logger.Fields{"error": err.Error()})
	}
	if id, ok := cookie.Values[sessionIDKey].(string); ok && id != "" {
		return id
	}

	id := uuid.New().String()
	cookie.Values[sessionIDKey] = id
	if err := cookie.Save(c.Request, c.Writer); err != nil {
		logger.Warn("Failed to save session cookie", logger.Fields{"error": err.Error()})
	}
	return id
}

// NewCookieStore builds the signed cookie store for session ids
func NewCookieStore(secret string, secure bool, maxAgeSeconds int) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options.Path = "/"
	store.Options.HttpOnly = true
	store.Options.Secure = secure
	store.Options.MaxAge = maxAgeSeconds
	return store
}

// CurrentSession returns the session resolved by Sessions
func CurrentSession(c *gin.Context) *session.Session {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil
	}
	sess, _ := v.(*session.Session)
	return sess
}
