package optimizer

import (
	"github.com/smartfood/grocery-service/internal/types"
)

// Plan selects one store per distinct food item on the list using the same
// policy and filter for every item. Lines naming the same food are merged and
// their quantities summed. Items keep the order of their first appearance.
// The plan always has exactly one entry per distinct food item.
func Plan(origin types.Location, lines []ListLine, offers map[int64][]types.CatalogOffer, policy RankPolicy, filter Filter) *FulfillmentPlan {
	plan := &FulfillmentPlan{
		Policy: policy,
		Items:  make([]ItemSelection, 0, len(lines)),
	}

	index := make(map[int64]int, len(lines))
	for _, line := range lines {
		if i, ok := index[line.FoodID]; ok {
			plan.Items[i].Quantity += line.Quantity
			continue
		}
		index[line.FoodID] = len(plan.Items)
		plan.Items = append(plan.Items, ItemSelection{
			FoodID:   line.FoodID,
			Name:     line.Name,
			Quantity: line.Quantity,
		})
	}

	for i := range plan.Items {
		item := &plan.Items[i]
		candidates := offers[item.FoodID]
		if len(candidates) == 0 {
			item.Reason = ReasonNoOffers
			continue
		}

		best, ok := Best(&origin, candidates, policy, filter)
		if !ok {
			item.Reason = ReasonFilteredOut
			continue
		}

		item.Offer = &best
		item.LineTotal = best.Price * int64(item.Quantity)
		plan.FulfilledCount++
		plan.EstimatedTotal += item.LineTotal
	}

	return plan
}

// DistinctFoodIDs returns the food ids of lines without duplicates, in order.
func DistinctFoodIDs(lines []ListLine) []int64 {
	seen := make(map[int64]struct{}, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.FoodID]; ok {
			continue
		}
		seen[l.FoodID] = struct{}{}
		ids = append(ids, l.FoodID)
	}
	return ids
}
