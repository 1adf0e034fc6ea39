package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// NotificationsHandler serves expiry notifications for the session user.
type NotificationsHandler struct {
	notificationService services.NotificationService
	logger              *zap.Logger
}

// NewNotificationsHandler creates a new notifications handler.
func NewNotificationsHandler(notificationService services.NotificationService, logger *zap.Logger) *NotificationsHandler {
	return &NotificationsHandler{
		notificationService: notificationService,
		logger:              logger,
	}
}

// RegisterRoutes registers the notification handler's routes on the given mux.
func (h *NotificationsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/notifications", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("PATCH /api/notifications/{id}", authMiddleware.RequireAuth(scope(h.MarkRead)))
}

// List handles GET /api/notifications
func (h *NotificationsHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}

	list, err := h.notificationService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_notifications_failed", "Failed to list notifications")
		return
	}
	if list.Notifications == nil {
		list.Notifications = []*models.Notification{}
	}

	writeResponse(w, h.logger, http.StatusOK, list)
}

// MarkRead handles PATCH /api/notifications/{id}
// Any body is ignored; the only supported change is marking as read.
func (h *NotificationsHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := ParseNotificationID(w, r, h.logger)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(r.Context(), userID, id)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_notification_failed", "Failed to update notification")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, notification)
}
