package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// RecipesHandler serves the recipe catalog and its tags.
type RecipesHandler struct {
	recipeService services.RecipeService
	baseURL       string
	logger        *zap.Logger
}

// NewRecipesHandler creates a new recipes handler. baseURL prefixes the
// next/previous links of paginated listings.
func NewRecipesHandler(recipeService services.RecipeService, baseURL string, logger *zap.Logger) *RecipesHandler {
	return &RecipesHandler{
		recipeService: recipeService,
		baseURL:       baseURL,
		logger:        logger,
	}
}

// RegisterRoutes registers the recipe handler's routes on the given mux.
// The catalog is readable without a session.
func (h *RecipesHandler) RegisterRoutes(mux *http.ServeMux, _ *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/recipes", scope(h.List))
	mux.HandleFunc("GET /api/recipes/{id}", scope(h.Get))
	mux.HandleFunc("GET /api/tags", scope(h.ListTags))
}

// List handles GET /api/recipes?search=&tag=&page=
func (h *RecipesHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page := 1
	if raw := query.Get("page"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Invalid page."); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		page = p
	}

	filter := models.RecipeFilter{
		Search: query.Get("search"),
		Tag:    query.Get("tag"),
	}

	result, err := h.recipeService.List(r.Context(), filter, page)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_recipes_failed", "Failed to list recipes")
		return
	}

	response := models.Page[*models.Recipe]{
		Count:   result.Count,
		Results: result.Recipes,
	}
	if response.Results == nil {
		response.Results = []*models.Recipe{}
	}
	if result.HasNext {
		response.Next = h.pageURL(r, result.Page+1)
	}
	if result.HasPrevious {
		response.Previous = h.pageURL(r, result.Page-1)
	}

	writeResponse(w, h.logger, http.StatusOK, response)
}

// Get handles GET /api/recipes/{id}
func (h *RecipesHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseRecipeID(w, r, h.logger)
	if !ok {
		return
	}

	recipe, err := h.recipeService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "get_recipe_failed", "Failed to load recipe")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, recipe)
}

// ListTags handles GET /api/tags
func (h *RecipesHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.recipeService.ListTags(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "list_tags_failed", "Failed to list tags")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, tags)
}

// pageURL rebuilds the request URL against baseURL with page replaced.
// The first page is linked without a page parameter.
func (h *RecipesHandler) pageURL(r *http.Request, page int) *string {
	query := r.URL.Query()
	if page <= 1 {
		query.Del("page")
	} else {
		query.Set("page", strconv.Itoa(page))
	}

	u, err := url.Parse(h.baseURL)
	if err != nil {
		u = &url.URL{}
	}
	u = u.JoinPath(r.URL.Path)
	u.RawQuery = query.Encode()

	link := u.String()
	return &link
}
