package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
)

// ParseRecipeID extracts the recipe id from the request path.
// Expects path parameter: id
func ParseRecipeID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_recipe_id", "Invalid recipe ID", logger)
}

// ParseStockID extracts the stock row id from the request path.
// Expects path parameter: id
func ParseStockID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_stock_id", "Invalid stock ID", logger)
}

// ParseIngredientID extracts the ingredient id from the request path.
// Expects path parameter: ingredient_id
func ParseIngredientID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "ingredient_id", "invalid_ingredient_id", "Invalid ingredient ID", logger)
}

// ParseNotificationID extracts the notification id from the request path.
// Expects path parameter: id
func ParseNotificationID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", "invalid_notification_id", "Invalid notification ID", logger)
}

// RequireUser returns the session user id placed in the context by auth.RequireAuth.
// It writes a 401 and returns false when the id is missing.
func RequireUser(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	userID, err := auth.RequireUserID(r.Context())
	if err != nil {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication required"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return userID, true
}

// parseOptionalLimit reads the limit query parameter. A missing value is nil.
func parseOptionalLimit(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (*int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return nil, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_limit", "limit must be a non-negative integer"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}
	return &limit, true
}

// parseInt64 is the internal helper that does the actual parsing work.
func parseInt64(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return 0, false
	}
	return id, true
}
