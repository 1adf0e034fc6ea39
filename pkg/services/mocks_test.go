package services

import (
	"context"
	"fmt"
	"slices"

	"github.com/ekaya-inc/pantry-engine/pkg/apperrors"
	"github.com/ekaya-inc/pantry-engine/pkg/models"
	"github.com/ekaya-inc/pantry-engine/pkg/recommendation"
)

type mockUserRepo struct {
	users map[int64]*models.User
}

func newMockUserRepo(ids ...int64) *mockUserRepo {
	m := &mockUserRepo{users: make(map[int64]*models.User)}
	for _, id := range ids {
		m.users[id] = &models.User{ID: id, Username: fmt.Sprintf("user%d", id)}
	}
	return m
}

func (m *mockUserRepo) GetByID(ctx context.Context, userID int64) (*models.User, error) {
	u, ok := m.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, apperrors.ErrNotFound)
	}
	return u, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = int64(len(m.users) + 1)
	m.users[user.ID] = user
	return nil
}

type mockRecipeRepo struct {
	candidates []*models.Recipe
	page       []*models.Recipe
	count      int
	err        error

	lastFilter models.RecipeFilter
	lastLimit  int
	lastOffset int
}

func (m *mockRecipeRepo) List(ctx context.Context, filter models.RecipeFilter, limit, offset int) ([]*models.Recipe, error) {
	m.lastFilter, m.lastLimit, m.lastOffset = filter, limit, offset
	return m.page, m.err
}

func (m *mockRecipeRepo) Count(ctx context.Context, filter models.RecipeFilter) (int, error) {
	return m.count, m.err
}

func (m *mockRecipeRepo) ListCandidates(ctx context.Context, filter models.RecipeFilter) ([]*models.Recipe, error) {
	m.lastFilter = filter
	return m.candidates, m.err
}

func (m *mockRecipeRepo) GetByID(ctx context.Context, id int64) (*models.Recipe, error) {
	for _, r := range m.candidates {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, fmt.Errorf("recipe %d: %w", id, apperrors.ErrNotFound)
}

func (m *mockRecipeRepo) Upsert(ctx context.Context, recipe *models.Recipe) error {
	return m.err
}

type mockTagRepo struct {
	tags []*models.Tag
}

func (m *mockTagRepo) List(ctx context.Context) ([]*models.Tag, error) {
	return m.tags, nil
}

func (m *mockTagRepo) Upsert(ctx context.Context, tag *models.Tag) error {
	tag.ID = int64(len(m.tags) + 1)
	m.tags = append(m.tags, tag)
	return nil
}

type mockRecommendationSource struct {
	stock        recommendation.StockSet
	rows         map[int64][]models.RecipeIngredient
	stockErr     error
	rowsErr      error
	requestedIDs []int64
}

func (m *mockRecommendationSource) GetActiveStockIngredientIDs(ctx context.Context, userID int64) (recommendation.StockSet, error) {
	return m.stock, m.stockErr
}

func (m *mockRecommendationSource) GetRecipeIngredients(ctx context.Context, recipeIDs []int64) (map[int64][]models.RecipeIngredient, error) {
	m.requestedIDs = recipeIDs
	return m.rows, m.rowsErr
}

type mockIngredientRepo struct {
	ingredients    map[int64]*models.Ingredient
	deletedRecipes int64
	deleteErr      error
}

func newMockIngredientRepo(ingredients ...*models.Ingredient) *mockIngredientRepo {
	m := &mockIngredientRepo{ingredients: make(map[int64]*models.Ingredient)}
	for _, ing := range ingredients {
		m.ingredients[ing.ID] = ing
	}
	return m
}

func (m *mockIngredientRepo) ListNonCommon(ctx context.Context) ([]*models.Ingredient, error) {
	out := make([]*models.Ingredient, 0)
	for _, ing := range m.ingredients {
		if !ing.Common {
			out = append(out, ing)
		}
	}
	slices.SortFunc(out, func(a, b *models.Ingredient) int {
		if a.Name < b.Name {
			return -1
		}
		if a.Name > b.Name {
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *mockIngredientRepo) GetByID(ctx context.Context, id int64) (*models.Ingredient, error) {
	ing, ok := m.ingredients[id]
	if !ok {
		return nil, fmt.Errorf("ingredient %d: %w", id, apperrors.ErrNotFound)
	}
	return ing, nil
}

func (m *mockIngredientRepo) GetByName(ctx context.Context, name string) (*models.Ingredient, error) {
	for _, ing := range m.ingredients {
		if ing.Name == name {
			return ing, nil
		}
	}
	return nil, fmt.Errorf("ingredient %q: %w", name, apperrors.ErrNotFound)
}

func (m *mockIngredientRepo) Upsert(ctx context.Context, ingredient *models.Ingredient) error {
	if existing, err := m.GetByName(ctx, ingredient.Name); err == nil {
		ingredient.ID = existing.ID
	} else {
		ingredient.ID = int64(len(m.ingredients) + 1)
	}
	m.ingredients[ingredient.ID] = ingredient
	return nil
}

func (m *mockIngredientRepo) DeleteWithRecipes(ctx context.Context, id int64) (int64, error) {
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	if _, ok := m.ingredients[id]; !ok {
		return 0, fmt.Errorf("ingredient %d: %w", id, apperrors.ErrNotFound)
	}
	delete(m.ingredients, id)
	return m.deletedRecipes, nil
}

// mockStockRepo keeps batches in memory.
type mockStockRepo struct {
	rows   map[int64]*models.UserStock
	nextID int64
	err    error
}

func newMockStockRepo() *mockStockRepo {
	return &mockStockRepo{rows: make(map[int64]*models.UserStock)}
}

func (m *mockStockRepo) add(s *models.UserStock) *models.UserStock {
	m.nextID++
	s.ID = m.nextID
	m.rows[s.ID] = s
	return s
}

func (m *mockStockRepo) ListByUser(ctx context.Context, userID int64) ([]*models.UserStock, error) {
	out := make([]*models.UserStock, 0)
	for _, s := range m.rows {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, m.err
}

func (m *mockStockRepo) GetByID(ctx context.Context, userID, stockID int64) (*models.UserStock, error) {
	s, ok := m.rows[stockID]
	if !ok || s.UserID != userID {
		return nil, fmt.Errorf("stock %d: %w", stockID, apperrors.ErrNotFound)
	}
	clone := *s
	return &clone, nil
}

func (m *mockStockRepo) Create(ctx context.Context, stock *models.UserStock) error {
	if m.err != nil {
		return m.err
	}
	clone := *stock
	m.add(&clone)
	stock.ID = clone.ID
	return nil
}

func (m *mockStockRepo) Update(ctx context.Context, stock *models.UserStock) error {
	if _, err := m.GetByID(ctx, stock.UserID, stock.ID); err != nil {
		return err
	}
	clone := *stock
	m.rows[stock.ID] = &clone
	return nil
}

func (m *mockStockRepo) Delete(ctx context.Context, userID, stockID int64) error {
	if _, err := m.GetByID(ctx, userID, stockID); err != nil {
		return err
	}
	delete(m.rows, stockID)
	return nil
}

func (m *mockStockRepo) DeleteByIngredients(ctx context.Context, userID int64, ingredientIDs []int64) (int64, error) {
	var deleted int64
	for id, s := range m.rows {
		if s.UserID == userID && slices.Contains(ingredientIDs, s.Ingredient.ID) {
			delete(m.rows, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *mockStockRepo) DisableExpiredBy(ctx context.Context, day models.Date) ([]int64, error) {
	if m.err != nil {
		return nil, m.err
	}
	var users []int64
	for _, s := range m.rows {
		if !s.Disable && s.ExpirationDate != nil && !s.ExpirationDate.After(day.Time) {
			s.Disable = true
			users = append(users, s.UserID)
		}
	}
	return users, nil
}

func (m *mockStockRepo) ListActiveExpiringOn(ctx context.Context, day models.Date) ([]*models.UserStock, error) {
	out := make([]*models.UserStock, 0)
	for _, s := range m.rows {
		if !s.Disable && s.ExpirationDate != nil && s.ExpirationDate.Equal(day.Time) {
			out = append(out, s)
		}
	}
	slices.SortFunc(out, func(a, b *models.UserStock) int { return int(a.ID - b.ID) })
	return out, nil
}

type notificationKey struct{ userID, stockID int64 }

type mockNotificationRepo struct {
	byStock map[notificationKey]*models.Notification
	list    []*models.Notification
	unread  int
	markErr error
	marked  []int64
}

func newMockNotificationRepo() *mockNotificationRepo {
	return &mockNotificationRepo{byStock: make(map[notificationKey]*models.Notification)}
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID int64) ([]*models.Notification, error) {
	return m.list, nil
}

func (m *mockNotificationRepo) CountUnread(ctx context.Context, userID int64) (int, error) {
	return m.unread, nil
}

func (m *mockNotificationRepo) GetByID(ctx context.Context, userID, id int64) (*models.Notification, error) {
	for _, n := range m.list {
		if n.ID == id && n.UserID == userID {
			return n, nil
		}
	}
	return nil, fmt.Errorf("notification %d: %w", id, apperrors.ErrNotFound)
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, userID, id int64) error {
	if m.markErr != nil {
		return m.markErr
	}
	n, err := m.GetByID(ctx, userID, id)
	if err != nil {
		return err
	}
	n.ReadYet = true
	m.marked = append(m.marked, id)
	return nil
}

func (m *mockNotificationRepo) CreateForStock(ctx context.Context, userID, stockID int64) (bool, error) {
	key := notificationKey{userID, stockID}
	if _, ok := m.byStock[key]; ok {
		return false, nil
	}
	m.byStock[key] = &models.Notification{UserID: userID, Stock: models.UserStock{ID: stockID}}
	return true, nil
}

// recordingInvalidator captures invalidation calls.
type recordingInvalidator struct {
	calls [][]int64
}

func (r *recordingInvalidator) Invalidate(ctx context.Context, userIDs ...int64) {
	r.calls = append(r.calls, userIDs)
}
