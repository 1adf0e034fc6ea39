package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

// DeleteIngredientsRequest for DELETE /api/user/ingredient.
// Ids may arrive as numbers or numeric strings; anything else is dropped.
type DeleteIngredientsRequest struct {
	IngredientIDs []json.RawMessage `json:"ingredient_ids"`
}

// IDs returns the usable ingredient ids in request order.
func (r DeleteIngredientsRequest) IDs() []int64 {
	ids := make([]int64, 0, len(r.IngredientIDs))
	for _, raw := range r.IngredientIDs {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				continue
			}
			n = json.Number(s)
		}
		id, err := strconv.ParseInt(n.String(), 10, 64)
		if err != nil || id <= 0 {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// DeleteIngredientsResponse reports how many stock rows were removed.
type DeleteIngredientsResponse struct {
	Deleted int64 `json:"deleted"`
}

// StockHandler serves the session user's pantry stock.
type StockHandler struct {
	stockService services.StockService
	logger       *zap.Logger
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(stockService services.StockService, logger *zap.Logger) *StockHandler {
	return &StockHandler{
		stockService: stockService,
		logger:       logger,
	}
}

// RegisterRoutes registers the stock handler's routes on the given mux.
func (h *StockHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware, scope ScopeMiddleware) {
	mux.HandleFunc("GET /api/user", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("POST /api/user", authMiddleware.RequireAuth(scope(h.List)))
	mux.HandleFunc("POST /api/user/{ingredient_id}", authMiddleware.RequireAuth(scope(h.Add)))
	mux.HandleFunc("DELETE /api/user/ingredient", authMiddleware.RequireAuth(scope(h.DeleteIngredients)))
	mux.HandleFunc("PATCH /api/stock/{id}", authMiddleware.RequireAuth(scope(h.Update)))
	mux.HandleFunc("DELETE /api/stock/{id}", authMiddleware.RequireAuth(scope(h.Delete)))
}

// List handles GET and POST /api/user
func (h *StockHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}

	stock, err := h.stockService.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.logger, err, "list_stock_failed", "Failed to list stock")
		return
	}
	if stock == nil {
		stock = []*models.UserStock{}
	}

	writeResponse(w, h.logger, http.StatusOK, stock)
}

// Add handles POST /api/user/{ingredient_id}
func (h *StockHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}
	ingredientID, ok := ParseIngredientID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.AddStockRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	stock, err := h.stockService.Add(r.Context(), userID, ingredientID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "add_stock_failed", "Failed to add stock")
		return
	}

	writeResponse(w, h.logger, http.StatusCreated, stock)
}

// Update handles PATCH /api/stock/{id}
func (h *StockHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}
	stockID, ok := ParseStockID(w, r, h.logger)
	if !ok {
		return
	}

	var req services.UpdateStockRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	stock, err := h.stockService.Update(r.Context(), userID, stockID, req)
	if err != nil {
		writeServiceError(w, h.logger, err, "update_stock_failed", "Failed to update stock")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, stock)
}

// Delete handles DELETE /api/stock/{id}
func (h *StockHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}
	stockID, ok := ParseStockID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.stockService.Delete(r.Context(), userID, stockID); err != nil {
		writeServiceError(w, h.logger, err, "delete_stock_failed", "Failed to delete stock")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteIngredients handles DELETE /api/user/ingredient
func (h *StockHandler) DeleteIngredients(w http.ResponseWriter, r *http.Request) {
	userID, ok := RequireUser(w, r, h.logger)
	if !ok {
		return
	}

	var req DeleteIngredientsRequest
	if !decodeBody(w, r, h.logger, &req) {
		return
	}

	deleted, err := h.stockService.DeleteIngredients(r.Context(), userID, req.IDs())
	if err != nil {
		writeServiceError(w, h.logger, err, "delete_stock_failed", "Failed to delete stock")
		return
	}

	writeResponse(w, h.logger, http.StatusOK, DeleteIngredientsResponse{Deleted: deleted})
}
