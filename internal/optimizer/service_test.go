package optimizer

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/types"
)

// fakeStore is an in-memory DataStore for testing.
type fakeStore struct {
	users     map[int64]*types.User
	foods     map[int64]types.FoodItem
	offers    map[int64][]types.CatalogOffer
	lists     map[int64]types.ShoppingList
	lines     map[int64][]ListLine
	readErr   error
	snapshots int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  make(map[int64]*types.User),
		foods:  make(map[int64]types.FoodItem),
		offers: make(map[int64][]types.CatalogOffer),
		lists:  make(map[int64]types.ShoppingList),
		lines:  make(map[int64][]ListLine),
	}
}

func (f *fakeStore) ReadSnapshot(ctx context.Context, fn func(ctx context.Context, s Snapshot) error) error {
	f.snapshots++
	return fn(ctx, f)
}

func (f *fakeStore) GetUser(ctx context.Context, userID int64) (*types.User, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	u, ok := f.users[userID]
	if !ok {
		return nil, types.NotFound("user", userID)
	}
	return u, nil
}

func (f *fakeStore) FoodExists(ctx context.Context, foodID int64) (bool, error) {
	_, ok := f.foods[foodID]
	return ok, nil
}

func (f *fakeStore) GetOffers(ctx context.Context, foodID int64) ([]types.CatalogOffer, error) {
	return f.offers[foodID], nil
}

func (f *fakeStore) GetOffersForFoodIDs(ctx context.Context, foodIDs []int64) (map[int64][]types.CatalogOffer, error) {
	out := make(map[int64][]types.CatalogOffer, len(foodIDs))
	for _, id := range foodIDs {
		if o, ok := f.offers[id]; ok {
			out[id] = o
		}
	}
	return out, nil
}

func (f *fakeStore) LoadListContext(ctx context.Context, userID, listID int64) (*ListContext, error) {
	lc := &ListContext{User: f.users[userID]}
	if l, ok := f.lists[listID]; ok {
		lc.ListExists = true
		lc.OwnerID = l.UserID
		lc.Lines = f.lines[listID]
	}
	return lc, nil
}

func (f *fakeStore) GetNutritionFacts(ctx context.Context, foodIDs []int64) (map[int64]types.NutritionFacts, error) {
	out := make(map[int64]types.NutritionFacts, len(foodIDs))
	for _, id := range foodIDs {
		if food, ok := f.foods[id]; ok {
			out[id] = food.Nutrition
		}
	}
	return out, nil
}

func (f *fakeStore) addUser(id int64, budget *int64) {
	f.users[id] = &types.User{ID: id, Name: "shopper", Location: userLoc, Budget: budget}
}

func (f *fakeStore) addFood(id int64, name string, facts types.NutritionFacts) {
	f.foods[id] = types.FoodItem{ID: id, Name: name, Nutrition: facts}
}

func (f *fakeStore) addOffer(storeID, foodID, price int64, loc types.Location) {
	f.offers[foodID] = append(f.offers[foodID], foodOffer(storeID, foodID, price, loc))
}

func (f *fakeStore) addList(listID, userID int64, lines ...ListLine) {
	f.lists[listID] = types.ShoppingList{ID: listID, UserID: userID, Name: "weekly"}
	f.lines[listID] = lines
}

// seededStore has a cheap far store (150 cents at 6 km) and a near expensive
// one (300 cents at 2 km) for food 1.
func seededStore() *fakeStore {
	f := newFakeStore()
	f.addUser(1, int64Ptr(200))
	f.addUser(2, nil)
	f.addFood(1, "Granola", types.NutritionFacts{ServingSize: 50, Calories: 220, Protein: 6})
	f.addFood(2, "Yogurt", types.NutritionFacts{ServingSize: 170, Calories: 150, Protein: 15})
	f.addFood(3, "Caviar", types.NutritionFacts{ServingSize: 10, Calories: 25})
	f.addOffer(10, 1, 150, northOf(6))
	f.addOffer(20, 1, 300, northOf(2))
	f.addOffer(20, 2, 90, northOf(2))
	return f
}

func TestFindClosestStore(t *testing.T) {
	svc := NewService(seededStore(), nil)

	best, err := svc.FindClosestStore(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(20), best.StoreID)
	assert.InDelta(t, 2.0, best.DistanceKm, 0.05)

	_, err = svc.FindClosestStore(context.Background(), 99, 1)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.FindClosestStore(context.Background(), 1, 99)
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, err = svc.FindClosestStore(context.Background(), 1, 3)
	assert.ErrorIs(t, err, types.ErrNoMatchingResult)
}

func TestCompareOffers(t *testing.T) {
	store := seededStore()
	store.addOffer(30, 1, 150, northOf(9))
	svc := NewService(store, nil)

	ranked, err := svc.CompareOffers(context.Background(), CompareRequest{FoodID: 1, MaxStores: 2})
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 30}, storeIDs(ranked))
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].Rank)

	ranked, err = svc.CompareOffers(context.Background(), CompareRequest{FoodID: 1})
	require.NoError(t, err)
	assert.Len(t, ranked, 3)

	_, err = svc.CompareOffers(context.Background(), CompareRequest{FoodID: 1, PriceCeiling: int64Ptr(100)})
	assert.ErrorIs(t, err, types.ErrNoMatchingResult)

	_, err = svc.CompareOffers(context.Background(), CompareRequest{FoodID: 1, MaxStores: -1})
	assert.ErrorIs(t, err, types.ErrInvalidConstraint)

	_, err = svc.CompareOffers(context.Background(), CompareRequest{FoodID: 404, MaxStores: 1})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestRouteOptimize(t *testing.T) {
	svc := NewService(seededStore(), nil)
	ctx := context.Background()

	t.Run("closest and best value differ", func(t *testing.T) {
		res, err := svc.RouteOptimize(ctx, RouteRequest{UserID: 2, FoodID: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(20), res.Closest.StoreID)
		require.NotNil(t, res.BestValue)
		assert.Equal(t, int64(10), res.BestValue.StoreID)
		assert.False(t, res.SameStore)
	})

	t.Run("stored budget filters the candidate set", func(t *testing.T) {
		res, err := svc.RouteOptimize(ctx, RouteRequest{UserID: 1, FoodID: 1, UseBudgetPreference: true})
		require.NoError(t, err)
		assert.Equal(t, int64(10), res.Closest.StoreID)
		require.NotNil(t, res.BestValue)
		assert.Equal(t, int64(10), res.BestValue.StoreID)
		assert.True(t, res.SameStore)
	})

	t.Run("identical slots collapse only on request", func(t *testing.T) {
		res, err := svc.RouteOptimize(ctx, RouteRequest{UserID: 1, FoodID: 1, UseBudgetPreference: true, Collapse: true})
		require.NoError(t, err)
		assert.True(t, res.SameStore)
		assert.Nil(t, res.BestValue)
	})

	t.Run("explicit ceiling below every price", func(t *testing.T) {
		_, err := svc.RouteOptimize(ctx, RouteRequest{UserID: 1, FoodID: 1, BudgetCeiling: int64Ptr(100)})
		assert.ErrorIs(t, err, types.ErrNoMatchingResult)
	})

	t.Run("budget requested without preference", func(t *testing.T) {
		_, err := svc.RouteOptimize(ctx, RouteRequest{UserID: 2, FoodID: 1, UseBudgetPreference: true})
		assert.ErrorIs(t, err, types.ErrPreferencesMissing)
	})

	t.Run("negative ceiling", func(t *testing.T) {
		_, err := svc.RouteOptimize(ctx, RouteRequest{UserID: 1, FoodID: 1, BudgetCeiling: int64Ptr(-5)})
		assert.ErrorIs(t, err, types.ErrInvalidConstraint)
	})
}

func TestFulfillList(t *testing.T) {
	store := seededStore()
	store.addList(100, 1,
		ListLine{FoodID: 1, Name: "Granola", Quantity: 2},
		ListLine{FoodID: 2, Name: "Yogurt", Quantity: 4},
		ListLine{FoodID: 3, Name: "Caviar", Quantity: 1},
	)
	store.addList(200, 2)
	svc := NewService(store, nil)
	ctx := context.Background()

	plan, err := svc.FulfillList(ctx, FulfillRequest{UserID: 1, ListID: 100, Policy: PolicyPrice})
	require.NoError(t, err)
	require.Len(t, plan.Items, 3)
	assert.Equal(t, int64(10), plan.Items[0].Offer.StoreID)
	assert.Equal(t, int64(20), plan.Items[1].Offer.StoreID)
	assert.Equal(t, ReasonNoOffers, plan.Items[2].Reason)
	assert.Equal(t, 2, plan.FulfilledCount)
	assert.Equal(t, int64(660), plan.EstimatedTotal)
	assert.Equal(t, 1, store.snapshots)

	plan, err = svc.FulfillList(ctx, FulfillRequest{UserID: 1, ListID: 100, Policy: PolicyDistance, MaxRadiusKm: float64Ptr(3)})
	require.NoError(t, err)
	assert.Equal(t, int64(20), plan.Items[0].Offer.StoreID)

	plan, err = svc.FulfillList(ctx, FulfillRequest{UserID: 1, ListID: 100, BudgetCeiling: int64Ptr(50)})
	require.NoError(t, err)
	assert.Zero(t, plan.FulfilledCount)
	assert.Len(t, plan.Items, 3)
	assert.Equal(t, PolicyPriceThenDistance, plan.Policy)

	plan, err = svc.FulfillList(ctx, FulfillRequest{UserID: 2, ListID: 200})
	require.NoError(t, err)
	assert.Empty(t, plan.Items)
}

func TestFulfillListPreconditions(t *testing.T) {
	store := seededStore()
	store.addList(100, 1, ListLine{FoodID: 1, Name: "Granola", Quantity: 1})
	store.addList(300, 2, ListLine{FoodID: 1, Name: "Granola", Quantity: 1})
	svc := NewService(store, nil)
	ctx := context.Background()

	tests := []struct {
		name string
		req  FulfillRequest
		want error
	}{
		{name: "unknown user", req: FulfillRequest{UserID: 9, ListID: 100}, want: types.ErrNotFound},
		{name: "unknown list", req: FulfillRequest{UserID: 1, ListID: 9}, want: types.ErrNotFound},
		{name: "list owned by someone else", req: FulfillRequest{UserID: 2, ListID: 100}, want: types.ErrNotFound},
		{name: "unknown policy", req: FulfillRequest{UserID: 1, ListID: 100, Policy: 7}, want: types.ErrInvalidConstraint},
		{name: "negative radius", req: FulfillRequest{UserID: 1, ListID: 100, MaxRadiusKm: float64Ptr(-1)}, want: types.ErrInvalidConstraint},
		{name: "missing budget preference", req: FulfillRequest{UserID: 2, ListID: 300, UseBudgetPreference: true}, want: types.ErrPreferencesMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.FulfillList(ctx, tt.req)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFulfillListRejectsOversizedList(t *testing.T) {
	store := seededStore()
	store.addList(100, 1,
		ListLine{FoodID: 1, Name: "Granola", Quantity: 1},
		ListLine{FoodID: 2, Name: "Yogurt", Quantity: 1},
	)
	cfg := Defaults()
	cfg.MaxListItems = 1
	svc := NewService(store, cfg)

	_, err := svc.FulfillList(context.Background(), FulfillRequest{UserID: 1, ListID: 100})
	assert.ErrorIs(t, err, types.ErrInvalidConstraint)
}

func TestFindSnack(t *testing.T) {
	svc := NewService(seededStore(), nil)
	ctx := context.Background()

	best, err := svc.FindSnack(ctx, SnackRequest{UserID: 1, FoodID: 1, MaxRadiusKm: float64Ptr(10), Policy: PolicyPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(10), best.StoreID)

	best, err = svc.FindSnack(ctx, SnackRequest{UserID: 1, FoodID: 1, MaxRadiusKm: float64Ptr(3), Policy: PolicyPrice})
	require.NoError(t, err)
	assert.Equal(t, int64(20), best.StoreID)

	_, err = svc.FindSnack(ctx, SnackRequest{UserID: 1, FoodID: 1, MaxRadiusKm: float64Ptr(1)})
	assert.ErrorIs(t, err, types.ErrNoMatchingResult)

	_, err = svc.FindSnack(ctx, SnackRequest{UserID: 1, FoodID: 1, MaxRadiusKm: float64Ptr(-2)})
	assert.ErrorIs(t, err, types.ErrInvalidConstraint)

	// Default radius is 5 km, which leaves only the near store.
	best, err = svc.FindSnack(ctx, SnackRequest{UserID: 1, FoodID: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(20), best.StoreID)
}

func TestListNutritionFacts(t *testing.T) {
	store := seededStore()
	store.addList(100, 1,
		ListLine{FoodID: 1, Name: "Granola", Quantity: 2},
		ListLine{FoodID: 2, Name: "Yogurt", Quantity: 1},
	)
	store.addList(101, 1)
	svc := NewService(store, nil)
	ctx := context.Background()

	report, err := svc.ListNutritionFacts(ctx, 1, 100)
	require.NoError(t, err)
	require.Len(t, report.Items, 2)
	assert.Equal(t, 440.0, report.Items[0].Facts.Calories)
	assert.Equal(t, 590.0, report.Total.Calories)
	assert.Equal(t, 27.0, report.Total.Protein)
	assert.Equal(t, int64(100), report.ListID)

	_, err = svc.ListNutritionFacts(ctx, 1, 101)
	assert.ErrorIs(t, err, types.ErrListEmpty)

	_, err = svc.ListNutritionFacts(ctx, 2, 100)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestExportListReadsOneSnapshot(t *testing.T) {
	store := seededStore()
	store.addList(100, 1,
		ListLine{FoodID: 1, Name: "Granola", Quantity: 2},
		ListLine{FoodID: 2, Name: "Yogurt", Quantity: 1},
	)
	store.addList(101, 1)
	svc := NewService(store, nil)
	ctx := context.Background()

	plan, report, err := svc.ExportList(ctx, FulfillRequest{UserID: 1, ListID: 100, Policy: PolicyPrice})
	require.NoError(t, err)
	assert.Equal(t, 1, store.snapshots, "plan and nutrition must come from the same snapshot")
	assert.Equal(t, 2, plan.FulfilledCount)
	require.NotNil(t, report)
	assert.Equal(t, int64(100), report.ListID)
	assert.Equal(t, 590.0, report.Total.Calories)

	plan, report, err = svc.ExportList(ctx, FulfillRequest{UserID: 1, ListID: 101})
	require.NoError(t, err)
	assert.Empty(t, plan.Items)
	assert.Nil(t, report, "empty list has no nutrition")

	_, _, err = svc.ExportList(ctx, FulfillRequest{UserID: 2, ListID: 100})
	assert.ErrorIs(t, err, types.ErrNotFound)

	_, _, err = svc.ExportList(ctx, FulfillRequest{UserID: 1, ListID: 100, MaxRadiusKm: float64Ptr(-1)})
	assert.ErrorIs(t, err, types.ErrInvalidConstraint)
}

func TestServiceWrapsDataAccessFailures(t *testing.T) {
	store := seededStore()
	store.readErr = errors.New("connection refused")
	svc := NewService(store, nil)

	_, err := svc.FindClosestStore(context.Background(), 1, 1)
	assert.ErrorIs(t, err, types.ErrInternal)
	assert.NotContains(t, err.Error(), "connection refused")
}
