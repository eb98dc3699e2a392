package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/types"
)

type mockShoppingService struct {
	mock.Mock
}

func (m *mockShoppingService) FindClosestStore(ctx context.Context, userID, foodID int64) (optimizer.ScoredOffer, error) {
	args := m.Called(ctx, userID, foodID)
	return args.Get(0).(optimizer.ScoredOffer), args.Error(1)
}

func (m *mockShoppingService) CompareOffers(ctx context.Context, req optimizer.CompareRequest) ([]optimizer.ScoredOffer, error) {
	args := m.Called(ctx, req)
	offers, _ := args.Get(0).([]optimizer.ScoredOffer)
	return offers, args.Error(1)
}

func (m *mockShoppingService) RouteOptimize(ctx context.Context, req optimizer.RouteRequest) (*optimizer.RouteResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*optimizer.RouteResult)
	return result, args.Error(1)
}

func (m *mockShoppingService) FulfillList(ctx context.Context, req optimizer.FulfillRequest) (*optimizer.FulfillmentPlan, error) {
	args := m.Called(ctx, req)
	plan, _ := args.Get(0).(*optimizer.FulfillmentPlan)
	return plan, args.Error(1)
}

func (m *mockShoppingService) FindSnack(ctx context.Context, req optimizer.SnackRequest) (optimizer.ScoredOffer, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(optimizer.ScoredOffer), args.Error(1)
}

func (m *mockShoppingService) ListNutritionFacts(ctx context.Context, userID, listID int64) (*optimizer.NutritionReport, error) {
	args := m.Called(ctx, userID, listID)
	report, _ := args.Get(0).(*optimizer.NutritionReport)
	return report, args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateUser(ctx context.Context, name string, loc types.Location) (*types.User, error) {
	args := m.Called(ctx, name, loc)
	user, _ := args.Get(0).(*types.User)
	return user, args.Error(1)
}

func (m *mockStore) SetBudget(ctx context.Context, userID, budget int64) error {
	return m.Called(ctx, userID, budget).Error(0)
}

func (m *mockStore) GetBudget(ctx context.Context, userID int64) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockStore) CreateList(ctx context.Context, userID int64, name string) (*types.ShoppingList, error) {
	args := m.Called(ctx, userID, name)
	list, _ := args.Get(0).(*types.ShoppingList)
	return list, args.Error(1)
}

func (m *mockStore) ListUserLists(ctx context.Context, userID int64) ([]types.ListSummary, error) {
	args := m.Called(ctx, userID)
	lists, _ := args.Get(0).([]types.ListSummary)
	return lists, args.Error(1)
}

func (m *mockStore) DeleteList(ctx context.Context, userID, listID int64) error {
	return m.Called(ctx, userID, listID).Error(0)
}

func (m *mockStore) AddListItems(ctx context.Context, userID, listID int64, items []types.ShoppingListItem) error {
	return m.Called(ctx, userID, listID, items).Error(0)
}

func (m *mockStore) RemoveListItem(ctx context.Context, userID, listID, foodID int64) error {
	return m.Called(ctx, userID, listID, foodID).Error(0)
}

func (m *mockStore) ListStores(ctx context.Context) ([]types.Store, error) {
	args := m.Called(ctx)
	stores, _ := args.Get(0).([]types.Store)
	return stores, args.Error(1)
}

func (m *mockStore) GetStoreCatalog(ctx context.Context, storeID int64) ([]types.CatalogEntry, error) {
	args := m.Called(ctx, storeID)
	entries, _ := args.Get(0).([]types.CatalogEntry)
	return entries, args.Error(1)
}

// newTestRouter wires fresh mocks into the handlers and returns a router
// with the v1 routes mounted.
func newTestRouter(t *testing.T) (*gin.Engine, *mockShoppingService, *mockStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &mockShoppingService{}
	store := &mockStore{}
	Init(svc, store)
	t.Cleanup(func() {
		svc.AssertExpectations(t)
		store.AssertExpectations(t)
		Init(nil, nil)
	})

	router := gin.New()
	RegisterRoutes(router.Group("/v1"))
	return router, svc, store
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}
