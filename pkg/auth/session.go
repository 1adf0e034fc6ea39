package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"net/http"

	"github.com/gorilla/sessions"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/config"
)

// sessionKeyUserID is the session value holding the signed-in user's id.
const sessionKeyUserID = "user_id"

// SessionManager reads and writes the signed cookie session that identifies
// the caller. The identity front door that performs login shares the secret
// and writes user_id into the same cookie.
type SessionManager struct {
	store  *sessions.CookieStore
	name   string
	logger *zap.Logger
}

// NewSessionManager builds the cookie store.
//
// The secret can be any passphrase; it is SHA-256 hashed to derive a 32-byte
// key. It must be identical across restarts and replicas. An empty secret
// yields a random key, so sessions do not survive a restart.
func NewSessionManager(cfg *config.SessionConfig, logger *zap.Logger) (*SessionManager, error) {
	secret := []byte(cfg.Secret)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate session key: %w", err)
		}
		logger.Warn("SESSION_SECRET not set, using a random key; sessions will not survive a restart")
	}
	key := sha256.Sum256(secret)

	store := sessions.NewCookieStore(key[:])
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   cfg.MaxAge,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionManager{
		store:  store,
		name:   cfg.CookieName,
		logger: logger,
	}, nil
}

// UserID returns the user id carried by the request's session cookie.
func (m *SessionManager) UserID(r *http.Request) (int64, bool) {
	session, err := m.store.Get(r, m.name)
	if err != nil {
		// A cookie signed with another key decodes to a fresh session plus an error.
		m.logger.Debug("Ignoring unreadable session cookie", zap.Error(err))
		return 0, false
	}

	switch v := session.Values[sessionKeyUserID].(type) {
	case int64:
		return v, v > 0
	case int:
		return int64(v), v > 0
	default:
		return 0, false
	}
}

// Login writes userID into the session cookie.
func (m *SessionManager) Login(w http.ResponseWriter, r *http.Request, userID int64) error {
	session, _ := m.store.Get(r, m.name)
	session.Values[sessionKeyUserID] = userID
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Logout expires the session cookie.
func (m *SessionManager) Logout(w http.ResponseWriter, r *http.Request) error {
	session, _ := m.store.Get(r, m.name)
	delete(session.Values, sessionKeyUserID)
	session.Options.MaxAge = -1
	if err := session.Save(r, w); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
