package handlers

import (
	"context"
	"net/http"

	"github.com/ekaya-inc/pantry-engine/pkg/auth"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/services"
)

func noopScope(next http.HandlerFunc) http.HandlerFunc { return next }

// withUser returns r as if it had passed auth.RequireAuth for userID.
func withUser(r *http.Request, userID int64) *http.Request {
	return r.WithContext(auth.WithUserID(r.Context(), userID))
}

// fakeSessions resolves every request to userID; zero means no session.
type fakeSessions struct {
	userID    int64
	logoutErr error
	loggedOut bool
}

func (f *fakeSessions) UserID(r *http.Request) (int64, bool) {
	return f.userID, f.userID > 0
}

func (f *fakeSessions) Logout(w http.ResponseWriter, r *http.Request) error {
	f.loggedOut = true
	return f.logoutErr
}

type mockRecommendationService struct {
	results   []models.AnnotatedRecipe
	err       error
	lastUser  int64
	lastTag   string
	lastLimit *int
}

func (m *mockRecommendationService) Recommend(ctx context.Context, userID int64, candidates []*models.Recipe, limit *int) ([]models.AnnotatedRecipe, error) {
	m.lastUser, m.lastLimit = userID, limit
	return m.results, m.err
}

func (m *mockRecommendationService) RecommendFromCatalog(ctx context.Context, userID int64, tag string, limit *int) ([]models.AnnotatedRecipe, error) {
	m.lastUser, m.lastTag, m.lastLimit = userID, tag, limit
	return m.results, m.err
}

type mockRecipeService struct {
	page       *services.RecipePage
	recipe     *models.Recipe
	tags       []*models.Tag
	err        error
	lastFilter models.RecipeFilter
	lastPage   int
}

func (m *mockRecipeService) List(ctx context.Context, filter models.RecipeFilter, page int) (*services.RecipePage, error) {
	m.lastFilter, m.lastPage = filter, page
	return m.page, m.err
}

func (m *mockRecipeService) Get(ctx context.Context, id int64) (*models.Recipe, error) {
	return m.recipe, m.err
}

func (m *mockRecipeService) ListTags(ctx context.Context) ([]*models.Tag, error) {
	return m.tags, m.err
}

type mockIngredientService struct {
	ingredients []*models.Ingredient
	deleted     int64
	err         error
	lastDeleted int64
}

func (m *mockIngredientService) ListStockable(ctx context.Context) ([]*models.Ingredient, error) {
	return m.ingredients, m.err
}

func (m *mockIngredientService) Delete(ctx context.Context, id int64) (int64, error) {
	m.lastDeleted = id
	return m.deleted, m.err
}

type mockStockService struct {
	stock []*models.UserStock
	row   *models.UserStock
	count int64
	err   error

	lastUser       int64
	lastIngredient int64
	lastStock      int64
	lastAdd        services.AddStockRequest
	lastUpdate     services.UpdateStockRequest
	lastIDs        []int64
}

func (m *mockStockService) List(ctx context.Context, userID int64) ([]*models.UserStock, error) {
	m.lastUser = userID
	return m.stock, m.err
}

func (m *mockStockService) Add(ctx context.Context, userID, ingredientID int64, req services.AddStockRequest) (*models.UserStock, error) {
	m.lastUser, m.lastIngredient, m.lastAdd = userID, ingredientID, req
	return m.row, m.err
}

func (m *mockStockService) Update(ctx context.Context, userID, stockID int64, req services.UpdateStockRequest) (*models.UserStock, error) {
	m.lastUser, m.lastStock, m.lastUpdate = userID, stockID, req
	return m.row, m.err
}

func (m *mockStockService) Delete(ctx context.Context, userID, stockID int64) error {
	m.lastUser, m.lastStock = userID, stockID
	return m.err
}

func (m *mockStockService) DeleteIngredients(ctx context.Context, userID int64, ingredientIDs []int64) (int64, error) {
	m.lastUser, m.lastIDs = userID, ingredientIDs
	return m.count, m.err
}

type mockNotificationService struct {
	list         *models.NotificationList
	notification *models.Notification
	err          error
	lastID       int64
}

func (m *mockNotificationService) List(ctx context.Context, userID int64) (*models.NotificationList, error) {
	return m.list, m.err
}

func (m *mockNotificationService) MarkRead(ctx context.Context, userID, id int64) (*models.Notification, error) {
	m.lastID = id
	return m.notification, m.err
}

type mockUserService struct {
	user *models.User
	err  error
}

func (m *mockUserService) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	return m.user, m.err
}
