package optimizer

import (
	"context"

	"github.com/smartfood/grocery-service/internal/types"
)

// DataStore opens consistent read snapshots over the catalog and lists.
type DataStore interface {
	// ReadSnapshot runs fn against a single repeatable-read snapshot.
	// The snapshot must not be used after fn returns.
	ReadSnapshot(ctx context.Context, fn func(ctx context.Context, s Snapshot) error) error
}

// Snapshot is the read surface consumed by the service. Every call made
// through one Snapshot observes the same database state.
type Snapshot interface {
	// GetUser returns the user with location and budget, or a NotFound error.
	GetUser(ctx context.Context, userID int64) (*types.User, error)

	// FoodExists reports whether the food item id is known.
	FoodExists(ctx context.Context, foodID int64) (bool, error)

	// GetOffers returns every offer for the food item. Unknown ids yield an empty slice.
	GetOffers(ctx context.Context, foodID int64) ([]types.CatalogOffer, error)

	// GetOffersForFoodIDs is the batched form of GetOffers keyed by food id.
	GetOffersForFoodIDs(ctx context.Context, foodIDs []int64) (map[int64][]types.CatalogOffer, error)

	// LoadListContext reads user, list existence, ownership and line items in one call.
	LoadListContext(ctx context.Context, userID, listID int64) (*ListContext, error)

	// GetNutritionFacts returns per-serving facts keyed by food id.
	GetNutritionFacts(ctx context.Context, foodIDs []int64) (map[int64]types.NutritionFacts, error)
}
