package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// MeResponse describes the session user.
type MeResponse struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LogoutResponse represents the response for logout.
type LogoutResponse struct {
	Success bool `json:"success"`
}

// SessionTerminator ends the session behind a request.
type SessionTerminator interface {
	Logout(w http.ResponseWriter, r *http.Request) error
}

// AuthHandler handles session identity requests. Login happens upstream.
type AuthHandler struct {
	userService services.UserService
	sessions    SessionTerminator
	logger      *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userService services.UserService, sessions SessionTerminator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		sessions:    sessions,
		logger:      logger,
	}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/auth/me", authMiddleware.RequireAuth(scope(h.Me)))
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_user_failed", "Failed to load user")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, MeResponse{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.DisplayName(),
	})
}

// Logout handles POST /api/auth/logout
// Logging out without a session still succeeds.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(w, r); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "logout_failed", "Failed to clear session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	writeResponse(w, h.logger, http.StatusOK, LogoutResponse{Success: true})
}
