package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/types"
)

func foodOffer(storeID, foodID, price int64, loc types.Location) types.CatalogOffer {
	o := offer(storeID, price, loc)
	o.FoodID = foodID
	return o
}

func TestPlanCompleteness(t *testing.T) {
	lines := []ListLine{
		{FoodID: 1, Name: "Oats", Quantity: 2},
		{FoodID: 2, Name: "Milk", Quantity: 1},
		{FoodID: 3, Name: "Saffron", Quantity: 1},
		{FoodID: 4, Name: "Truffle", Quantity: 1},
	}
	offers := map[int64][]types.CatalogOffer{
		1: {foodOffer(10, 1, 300, northOf(1)), foodOffer(11, 1, 250, northOf(4))},
		2: {foodOffer(10, 2, 120, northOf(1))},
		4: {foodOffer(12, 4, 9000, northOf(2))},
	}

	plan := Plan(userLoc, lines, offers, PolicyPrice, Filter{BudgetCeiling: int64Ptr(1000)})

	require.Len(t, plan.Items, len(lines))
	for i, item := range plan.Items {
		assert.Equal(t, lines[i].FoodID, item.FoodID)
		assert.True(t, item.Fulfilled() != (item.Reason != ""), "exactly one of offer or reason must be set")
	}

	assert.Equal(t, int64(11), plan.Items[0].Offer.StoreID)
	assert.Equal(t, int64(500), plan.Items[0].LineTotal)
	assert.Equal(t, int64(10), plan.Items[1].Offer.StoreID)
	assert.Equal(t, ReasonNoOffers, plan.Items[2].Reason)
	assert.Equal(t, ReasonFilteredOut, plan.Items[3].Reason)

	assert.Equal(t, 2, plan.FulfilledCount)
	assert.Equal(t, int64(620), plan.EstimatedTotal)
	assert.Equal(t, PolicyPrice, plan.Policy)
}

func TestPlanUsesSamePolicyForEveryItem(t *testing.T) {
	lines := []ListLine{
		{FoodID: 1, Name: "Bread", Quantity: 1},
		{FoodID: 2, Name: "Eggs", Quantity: 1},
	}
	// Store 20 is near and expensive, store 30 far and cheap, for both items.
	offers := map[int64][]types.CatalogOffer{
		1: {foodOffer(20, 1, 400, northOf(1)), foodOffer(30, 1, 200, northOf(8))},
		2: {foodOffer(30, 2, 150, northOf(8)), foodOffer(20, 2, 350, northOf(1))},
	}

	byDistance := Plan(userLoc, lines, offers, PolicyDistance, Filter{})
	for _, item := range byDistance.Items {
		assert.Equal(t, int64(20), item.Offer.StoreID)
	}

	byPrice := Plan(userLoc, lines, offers, PolicyPriceThenDistance, Filter{})
	for _, item := range byPrice.Items {
		assert.Equal(t, int64(30), item.Offer.StoreID)
	}
}

func TestPlanRadiusFilter(t *testing.T) {
	lines := []ListLine{{FoodID: 1, Name: "Apples", Quantity: 3}}
	offers := map[int64][]types.CatalogOffer{
		1: {foodOffer(1, 1, 100, northOf(10)), foodOffer(2, 1, 180, northOf(3))},
	}

	plan := Plan(userLoc, lines, offers, PolicyPrice, Filter{MaxRadiusKm: float64Ptr(5)})
	require.True(t, plan.Items[0].Fulfilled())
	assert.Equal(t, int64(2), plan.Items[0].Offer.StoreID)
	assert.Equal(t, int64(540), plan.Items[0].LineTotal)
}

func TestPlanTieBreakLowestStoreID(t *testing.T) {
	same := northOf(2)
	lines := []ListLine{{FoodID: 1, Name: "Rice", Quantity: 1}}
	offers := map[int64][]types.CatalogOffer{
		1: {foodOffer(42, 1, 99, same), foodOffer(7, 1, 99, same), foodOffer(13, 1, 99, same)},
	}

	for _, policy := range []RankPolicy{PolicyDistance, PolicyPrice, PolicyPriceThenDistance} {
		plan := Plan(userLoc, lines, offers, policy, Filter{})
		assert.Equal(t, int64(7), plan.Items[0].Offer.StoreID, policy.String())
	}
}

func TestPlanMergesDuplicateLines(t *testing.T) {
	lines := []ListLine{
		{FoodID: 1, Name: "Tea", Quantity: 1},
		{FoodID: 1, Name: "Tea", Quantity: 2},
	}
	offers := map[int64][]types.CatalogOffer{1: {foodOffer(1, 1, 100, northOf(1))}}

	plan := Plan(userLoc, lines, offers, PolicyPrice, Filter{})
	require.Len(t, plan.Items, 1)
	assert.Equal(t, 3, plan.Items[0].Quantity)
	assert.Equal(t, int64(300), plan.EstimatedTotal)
}

func TestPlanEmptyList(t *testing.T) {
	plan := Plan(userLoc, nil, nil, PolicyPrice, Filter{})
	assert.Empty(t, plan.Items)
	assert.Zero(t, plan.FulfilledCount)
}

func TestDistinctFoodIDs(t *testing.T) {
	lines := []ListLine{{FoodID: 3}, {FoodID: 1}, {FoodID: 3}, {FoodID: 2}}
	assert.Equal(t, []int64{3, 1, 2}, DistinctFoodIDs(lines))
}
