package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// IngredientsHandler serves the ingredient catalog.
type IngredientsHandler struct {
	ingredientService services.IngredientService
	logger            *zap.Logger
}

// NewIngredientsHandler creates a new ingredients handler.
func NewIngredientsHandler(ingredientService services.IngredientService, logger *zap.Logger) *IngredientsHandler {
	return &IngredientsHandler{
		ingredientService: ingredientService,
		logger:            logger,
	}
}

// RegisterRoutes registers the ingredient handler's routes on the given mux.
func (h *IngredientsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/ingredient", scope(h.List))
	mux.HandleFunc("DELETE /api/ingredients/{ingredient_id}", authMiddleware.RequireAuth(scope(h.Delete)))
}

// List handles GET /api/ingredient
func (h *IngredientsHandler) List(w http.ResponseWriter, r *http.Request) {
	ingredients, err := h.ingredientService.ListStockable(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_ingredients_failed", "Failed to list ingredients")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, ingredients)
}

// Delete handles DELETE /api/ingredients/{ingredient_id}
// Recipes using the ingredient are removed with it.
func (h *IngredientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseIngredientID(w, r, h.logger)
	if !ok {
		return
	}

	recipes, err := h.ingredientService.Delete(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "delete_ingredient_failed", "Failed to delete ingredient")
		return
	}

	h.logger.Info("Deleted ingredient",
		zap.Int64("ingredient_id", id),
		zap.Int64("recipes_deleted", recipes))

	w.WriteHeader(http.StatusNoContent)
}
