package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// RecommendationHandler serves ranked recipe recommendations for the session user.
type RecommendationHandler struct {
	recommendationService services.RecommendationService
	logger                *zap.Logger
}

// NewRecommendationHandler creates a new recommendation handler.
func NewRecommendationHandler(recommendationService services.RecommendationService, logger *zap.Logger) *RecommendationHandler {
	return &RecommendationHandler{
		recommendationService: recommendationService,
		logger:                logger,
	}
}

// RegisterRoutes registers the recommendation handler's routes on the given mux.
func (h *RecommendationHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/recipes/recommendations", authMiddleware.RequireAuth(scope(h.ListRecommendations)))
	mux.HandleFunc("GET /api/recommend", authMiddleware.RequireAuth(scope(h.Recommend)))
}

// ListRecommendations handles GET /api/recipes/recommendations?tag=
// Candidates are every recipe, newest first, optionally restricted to one tag.
func (h *RecommendationHandler) ListRecommendations(w http.ResponseWriter, r *http.Request) {
	h.recommend(w, r, r.URL.Query().Get("tag"))
}

// Recommend handles GET /api/recommend
func (h *RecommendationHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	h.recommend(w, r, "")
}

func (h *RecommendationHandler) recommend(w http.ResponseWriter, r *http.Request, tag string) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}
	limit, ok := parseOptionalLimit(w, r, h.logger)
	if !ok {
		return
	}

	results, err := h.recommendationService.RecommendFromCatalog(r.Context(), userID, tag, limit)
	if err != nil {
		writeServiceError(w, h.logger, err, "recommendation_failed", "Failed to compute recommendations")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, models.Page[models.AnnotatedRecipe]{
		Count:   len(results),
		Results: results,
	})
}
