package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// SessionReader resolves the user id behind a request.
type SessionReader interface {
	UserID(r *http.Request) (int64, bool)
}

// Middleware provides HTTP authentication middleware.
type Middleware struct {
	sessions SessionReader
	logger   *zap.Logger
}

// NewMiddleware creates a new auth middleware reading identities from sessions.
func NewMiddleware(sessions SessionReader, logger *zap.Logger) *Middleware {
	return &Middleware{
		sessions: sessions,
		logger:   logger,
	}
}

// RequireAuth rejects requests without a session user and puts the user id
// in the context for downstream handlers.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := m.sessions.UserID(r)
		if !ok {
			m.unauthorized(w, "Authentication required")
			return
		}
		next(w, r.WithContext(WithUserID(r.Context(), userID)))
	}
}

// RequireAuthHandler is RequireAuth for http.Handler values such as the MCP server.
func (m *Middleware) RequireAuthHandler(next http.Handler) http.Handler {
	return m.RequireAuth(next.ServeHTTP)
}

// unauthorized returns a 401 response with JSON error body.
func (m *Middleware) unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	if err := json.NewEncoder(w).Encode(map[string]string{
		"error":   "unauthorized",
		"message": message,
	}); err != nil {
		m.logger.Error("Failed to write unauthorized response", zap.Error(err))
	}
}
