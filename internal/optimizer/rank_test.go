package optimizer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/types"
)

var userLoc = types.Location{Latitude: 35.3050, Longitude: -120.6625}

// northOf returns a point roughly km kilometers due north of userLoc.
func northOf(km float64) types.Location {
	return types.Location{Latitude: userLoc.Latitude + km/110.95, Longitude: userLoc.Longitude}
}

func offer(storeID int64, price int64, loc types.Location) types.CatalogOffer {
	return types.CatalogOffer{
		StoreID:       storeID,
		StoreName:     "store",
		StoreLocation: loc,
		FoodID:        1,
		Price:         price,
		Quantity:      10,
	}
}

func storeIDs(offers []ScoredOffer) []int64 {
	ids := make([]int64, len(offers))
	for i, o := range offers {
		ids[i] = o.StoreID
	}
	return ids
}

func int64Ptr(v int64) *int64       { return &v }
func float64Ptr(v float64) *float64 { return &v }

// TestRankPriceVersusDistance covers the 150 cents at 2 km vs 300 cents at 5 km example.
func TestRankPriceVersusDistance(t *testing.T) {
	// Store 10 is cheap but far, store 20 is near but expensive.
	offers := []types.CatalogOffer{
		offer(10, 150, northOf(5)),
		offer(20, 300, northOf(2)),
	}

	byPrice := Rank(&userLoc, offers, PolicyPrice, Filter{})
	assert.Equal(t, []int64{10, 20}, storeIDs(byPrice))

	byDistance := Rank(&userLoc, offers, PolicyDistance, Filter{})
	assert.Equal(t, []int64{20, 10}, storeIDs(byDistance))

	dual := RankDual(&userLoc, offers, Filter{})
	require.NotEmpty(t, dual.ByDistance)
	require.NotEmpty(t, dual.ByPrice)
	assert.Equal(t, int64(20), dual.ByDistance[0].StoreID)
	assert.Equal(t, int64(10), dual.ByPrice[0].StoreID)
}

func TestRankAssignsDistancesAndRanks(t *testing.T) {
	offers := []types.CatalogOffer{
		offer(1, 300, northOf(5)),
		offer(2, 150, northOf(2)),
	}

	ranked := Rank(&userLoc, offers, PolicyDistance, Filter{})
	require.Len(t, ranked, 2)
	assert.Equal(t, 1, ranked[0].Rank)
	assert.Equal(t, 2, ranked[1].Rank)
	assert.InDelta(t, 2.0, ranked[0].DistanceKm, 0.05)
	assert.InDelta(t, 5.0, ranked[1].DistanceKm, 0.05)
	assert.True(t, ranked[0].HasDistance)
}

func TestRankTieBreaks(t *testing.T) {
	same := northOf(3)

	t.Run("price ties resolve by distance then store id", func(t *testing.T) {
		offers := []types.CatalogOffer{
			offer(9, 200, same),
			offer(4, 200, northOf(1)),
			offer(7, 200, same),
		}
		ranked := Rank(&userLoc, offers, PolicyPrice, Filter{})
		assert.Equal(t, []int64{4, 7, 9}, storeIDs(ranked))
	})

	t.Run("distance ties resolve by price then store id", func(t *testing.T) {
		offers := []types.CatalogOffer{
			offer(9, 250, same),
			offer(8, 100, same),
			offer(3, 250, same),
		}
		ranked := Rank(&userLoc, offers, PolicyDistance, Filter{})
		assert.Equal(t, []int64{8, 3, 9}, storeIDs(ranked))
	})

	t.Run("full tie resolves to lowest store id", func(t *testing.T) {
		offers := []types.CatalogOffer{
			offer(30, 100, same),
			offer(10, 100, same),
			offer(20, 100, same),
		}
		for _, policy := range []RankPolicy{PolicyDistance, PolicyPrice, PolicyPriceThenDistance} {
			ranked := Rank(&userLoc, offers, policy, Filter{})
			assert.Equal(t, []int64{10, 20, 30}, storeIDs(ranked), policy.String())
		}
	})
}

func TestRankDeterministic(t *testing.T) {
	offers := []types.CatalogOffer{
		offer(5, 120, northOf(4)),
		offer(2, 120, northOf(4)),
		offer(8, 90, northOf(9)),
		offer(1, 300, northOf(0.5)),
		offer(3, 90, northOf(9)),
	}

	first := storeIDs(Rank(&userLoc, offers, PolicyPriceThenDistance, Filter{}))
	for i := 0; i < 20; i++ {
		// Reverse the input to make sure order does not depend on it.
		reversed := make([]types.CatalogOffer, len(offers))
		for j := range offers {
			reversed[len(offers)-1-j] = offers[j]
		}
		assert.Equal(t, first, storeIDs(Rank(&userLoc, reversed, PolicyPriceThenDistance, Filter{})))
	}
	assert.Equal(t, []int64{3, 8, 2, 5, 1}, first)
}

func TestRankBudgetFilter(t *testing.T) {
	offers := []types.CatalogOffer{
		offer(1, 150, northOf(2)),
		offer(2, 300, northOf(5)),
		offer(3, 200, northOf(8)),
	}

	ranked := Rank(&userLoc, offers, PolicyPrice, Filter{BudgetCeiling: int64Ptr(200)})
	assert.Equal(t, []int64{1, 3}, storeIDs(ranked))
	for _, o := range ranked {
		assert.LessOrEqual(t, o.Price, int64(200))
	}

	assert.Empty(t, Rank(&userLoc, offers, PolicyPrice, Filter{BudgetCeiling: int64Ptr(100)}))
}

func TestRankRadiusFilter(t *testing.T) {
	offers := []types.CatalogOffer{
		offer(1, 150, northOf(2)),
		offer(2, 100, northOf(5)),
		offer(3, 120, northOf(12)),
	}

	ranked := Rank(&userLoc, offers, PolicyPrice, Filter{MaxRadiusKm: float64Ptr(6)})
	assert.Equal(t, []int64{2, 1}, storeIDs(ranked))
	for _, o := range ranked {
		assert.LessOrEqual(t, DistanceKm(userLoc, o.StoreLocation), 6.0)
	}

	assert.Empty(t, Rank(&userLoc, offers, PolicyDistance, Filter{MaxRadiusKm: float64Ptr(1)}))
}

func TestRankWithoutOrigin(t *testing.T) {
	offers := []types.CatalogOffer{
		offer(2, 300, northOf(1)),
		offer(1, 150, northOf(50)),
	}

	ranked := Rank(nil, offers, PolicyPrice, Filter{MaxRadiusKm: float64Ptr(1)})
	require.Len(t, ranked, 2)
	assert.Equal(t, int64(1), ranked[0].StoreID)
	assert.False(t, ranked[0].HasDistance)
	assert.Zero(t, ranked[0].DistanceKm)
}

func TestRankDoesNotModifyInput(t *testing.T) {
	offers := []types.CatalogOffer{
		offer(2, 300, northOf(1)),
		offer(1, 150, northOf(5)),
	}
	Rank(&userLoc, offers, PolicyPrice, Filter{})
	assert.Equal(t, int64(2), offers[0].StoreID)
}

func TestParseRankPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    RankPolicy
		wantErr bool
	}{
		{in: "", want: PolicyPriceThenDistance},
		{in: "1", want: PolicyDistance},
		{in: "2", want: PolicyPrice},
		{in: "3", want: PolicyPriceThenDistance},
		{in: "distance", want: PolicyDistance},
		{in: "Price", want: PolicyPrice},
		{in: "price-then-distance", want: PolicyPriceThenDistance},
		{in: "4", wantErr: true},
		{in: "0", wantErr: true},
		{in: "cheapest", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRankPolicy(tt.in, PolicyPriceThenDistance)
			if tt.wantErr {
				assert.ErrorIs(t, err, types.ErrInvalidConstraint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilterValidate(t *testing.T) {
	assert.NoError(t, Filter{}.Validate())
	assert.NoError(t, Filter{BudgetCeiling: int64Ptr(0), MaxRadiusKm: float64Ptr(0)}.Validate())
	assert.ErrorIs(t, Filter{BudgetCeiling: int64Ptr(-1)}.Validate(), types.ErrInvalidConstraint)
	assert.ErrorIs(t, Filter{MaxRadiusKm: float64Ptr(-0.5)}.Validate(), types.ErrInvalidConstraint)
	assert.ErrorIs(t, Filter{MaxRadiusKm: float64Ptr(math.NaN())}.Validate(), types.ErrInvalidConstraint)
	assert.ErrorIs(t, Filter{MaxRadiusKm: float64Ptr(math.Inf(1))}.Validate(), types.ErrInvalidConstraint)
}

func TestSnackRequestValidateRejectsNonFiniteRadius(t *testing.T) {
	for _, km := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -1} {
		req := SnackRequest{UserID: 1, FoodID: 1, MaxRadiusKm: float64Ptr(km)}
		assert.ErrorIs(t, req.Validate(), types.ErrInvalidConstraint, "radius %v", km)
	}
	assert.NoError(t, (&SnackRequest{UserID: 1, FoodID: 1, MaxRadiusKm: float64Ptr(2.5)}).Validate())
}
