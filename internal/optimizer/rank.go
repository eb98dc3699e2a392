package optimizer

import (
	"sort"

	"github.com/smartfood/grocery-service/internal/types"
)

// Rank annotates offers with their distance from origin, drops offers that
// fail the filter, and orders the survivors by policy. A nil origin skips the
// distance annotation and the radius filter. The input slice is not modified.
// An empty result is not an error.
func Rank(origin *types.Location, offers []types.CatalogOffer, policy RankPolicy, filter Filter) []ScoredOffer {
	scored := score(origin, offers, filter)
	sortOffers(scored, policy)
	assignRanks(scored)
	return scored
}

// RankDual computes the distance-only and price-only views over the same
// filtered candidate set.
func RankDual(origin *types.Location, offers []types.CatalogOffer, filter Filter) DualResult {
	byDistance := score(origin, offers, filter)
	byPrice := make([]ScoredOffer, len(byDistance))
	copy(byPrice, byDistance)

	sortOffers(byDistance, PolicyDistance)
	sortOffers(byPrice, PolicyPrice)
	assignRanks(byDistance)
	assignRanks(byPrice)

	return DualResult{ByDistance: byDistance, ByPrice: byPrice}
}

// score applies the filter and computes distances.
func score(origin *types.Location, offers []types.CatalogOffer, filter Filter) []ScoredOffer {
	scored := make([]ScoredOffer, 0, len(offers))
	for _, o := range offers {
		if filter.BudgetCeiling != nil && o.Price > *filter.BudgetCeiling {
			continue
		}

		s := ScoredOffer{CatalogOffer: o}
		if origin != nil {
			s.DistanceKm = DistanceKm(*origin, o.StoreLocation)
			s.HasDistance = true
			if filter.MaxRadiusKm != nil && s.DistanceKm > *filter.MaxRadiusKm {
				continue
			}
		}
		scored = append(scored, s)
	}
	return scored
}

// sortOffers orders offers by the policy's key chain, ending in store id so
// that the order is total and reproducible.
func sortOffers(offers []ScoredOffer, policy RankPolicy) {
	sort.SliceStable(offers, func(i, j int) bool {
		a, b := offers[i], offers[j]

		switch policy {
		case PolicyDistance:
			// 1. Distance (closer is better)
			if a.DistanceKm != b.DistanceKm {
				return a.DistanceKm < b.DistanceKm
			}
			// 2. Price (cheaper is better)
			if a.Price != b.Price {
				return a.Price < b.Price
			}
		default:
			// 1. Price (cheaper is better)
			if a.Price != b.Price {
				return a.Price < b.Price
			}
			// 2. Distance (closer is better)
			if a.DistanceKm != b.DistanceKm {
				return a.DistanceKm < b.DistanceKm
			}
		}

		// 3. Tie-breaker: store ID (for determinism)
		return a.StoreID < b.StoreID
	})
}

func assignRanks(offers []ScoredOffer) {
	for i := range offers {
		offers[i].Rank = i + 1
	}
}

// Best returns the first offer under policy, or false when nothing survives the filter.
func Best(origin *types.Location, offers []types.CatalogOffer, policy RankPolicy, filter Filter) (ScoredOffer, bool) {
	ranked := Rank(origin, offers, policy, filter)
	if len(ranked) == 0 {
		return ScoredOffer{}, false
	}
	return ranked[0], true
}
