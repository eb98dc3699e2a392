package optimizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/smartfood/grocery-service/internal/types"
)

// RankPolicy selects the comparator used by the ranking engine.
type RankPolicy int

const (
	PolicyDistance          RankPolicy = 1 // distance, then price, then store id
	PolicyPrice             RankPolicy = 2 // price, then distance, then store id
	PolicyPriceThenDistance RankPolicy = 3 // price, then distance, then store id
)

var policyNames = map[RankPolicy]string{
	PolicyDistance:          "distance",
	PolicyPrice:             "price",
	PolicyPriceThenDistance: "price_then_distance",
}

func (p RankPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return "unknown(" + strconv.Itoa(int(p)) + ")"
}

// Valid reports whether p is one of the known policies.
func (p RankPolicy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParseRankPolicy accepts either a numeric code ("1".."3") or a policy name.
// The empty string yields fallback.
func ParseRankPolicy(s string, fallback RankPolicy) (RankPolicy, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return fallback, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		p := RankPolicy(n)
		if !p.Valid() {
			return 0, types.InvalidConstraint("rankPolicy", fmt.Sprintf("unknown policy code %d", n))
		}
		return p, nil
	}
	s = strings.ReplaceAll(s, "-", "_")
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return 0, types.InvalidConstraint("rankPolicy", "unknown policy "+strconv.Quote(s))
}

// Filter holds the optional constraints applied before ranking.
type Filter struct {
	BudgetCeiling *int64   // cents; offers priced above are dropped
	MaxRadiusKm   *float64 // offers farther than this are dropped
}

// Validate rejects negative ceilings and radii that are negative or not finite.
func (f Filter) Validate() error {
	if f.BudgetCeiling != nil && *f.BudgetCeiling < 0 {
		return types.InvalidConstraint("budgetCeiling", "must be non-negative")
	}
	return validateRadius(f.MaxRadiusKm)
}

// validateRadius accepts nil or a finite non-negative radius. NaN compares
// false against every distance and would let any offer through.
func validateRadius(km *float64) error {
	if km == nil {
		return nil
	}
	if math.IsNaN(*km) || math.IsInf(*km, 0) {
		return types.InvalidConstraint("maxRadiusKm", "must be a finite number")
	}
	if *km < 0 {
		return types.InvalidConstraint("maxRadiusKm", "must be non-negative")
	}
	return nil
}

// ScoredOffer is a catalog offer annotated with its distance and rank.
type ScoredOffer struct {
	types.CatalogOffer
	DistanceKm  float64 `json:"distanceKm"`
	HasDistance bool    `json:"-"`
	Rank        int     `json:"rank"` // 1-based position in the ranked result
}

// DualResult holds the two independently ranked views over one filtered candidate set.
type DualResult struct {
	ByDistance []ScoredOffer
	ByPrice    []ScoredOffer
}

// RouteResult is the answer to a route optimization request.
// BestValue is nil only when the caller asked to collapse identical slots
// and both views picked the same store.
type RouteResult struct {
	Closest   ScoredOffer
	BestValue *ScoredOffer
	SameStore bool
}

// ListLine is one line of a shopping list as read for planning.
type ListLine struct {
	FoodID   int64
	Name     string
	Quantity int
}

// ListContext is the composite precondition read for list operations.
// User is nil when the user does not exist.
type ListContext struct {
	User       *types.User
	ListExists bool
	OwnerID    int64
	Lines      []ListLine
}

// Unfulfillable reasons.
const (
	ReasonNoOffers    = "no_offers"
	ReasonFilteredOut = "filtered_out"
)

// ItemSelection is the planner's answer for one distinct food item.
// Exactly one of Offer or Reason is set.
type ItemSelection struct {
	FoodID    int64
	Name      string
	Quantity  int
	Offer     *ScoredOffer
	Reason    string
	LineTotal int64 // Offer.Price * Quantity, 0 when unfulfillable
}

// Fulfilled reports whether a store was selected for the item.
func (s ItemSelection) Fulfilled() bool {
	return s.Offer != nil
}

// FulfillmentPlan is the per-item result of planning a whole list.
type FulfillmentPlan struct {
	ListID         int64
	Policy         RankPolicy
	Items          []ItemSelection
	FulfilledCount int
	EstimatedTotal int64 // cents, over fulfilled items only
}

// NutritionRow is the scaled nutrition of every line sharing one item name.
type NutritionRow struct {
	Name     string
	Quantity int
	Facts    types.NutritionFacts
}

// NutritionReport is a per-item breakdown plus the grand total.
type NutritionReport struct {
	ListID int64
	Items  []NutritionRow
	Total  types.NutritionFacts
}

// NutritionLine is a list line joined with its per-serving facts.
type NutritionLine struct {
	FoodID   int64
	Name     string
	Quantity int
	Facts    types.NutritionFacts
}

// CompareRequest contains the parameters for a price comparison across stores.
type CompareRequest struct {
	FoodID       int64
	MaxStores    int
	PriceCeiling *int64
}

// Validate checks the request against the configured store limit.
func (r *CompareRequest) Validate(maxStores int) error {
	if r.MaxStores < 1 {
		return types.InvalidConstraint("maxStores", "must be at least 1")
	}
	if r.MaxStores > maxStores {
		return types.InvalidConstraint("maxStores", fmt.Sprintf("must not exceed %d", maxStores))
	}
	if r.PriceCeiling != nil && *r.PriceCeiling < 0 {
		return types.InvalidConstraint("priceCeiling", "must be non-negative")
	}
	return nil
}

// RouteRequest contains the parameters for a closest/best-value lookup.
// An explicit BudgetCeiling wins over UseBudgetPreference.
type RouteRequest struct {
	UserID              int64
	FoodID              int64
	BudgetCeiling       *int64
	UseBudgetPreference bool
	Collapse            bool
}

// FulfillRequest contains the shared constraints for planning a list.
type FulfillRequest struct {
	UserID              int64
	ListID              int64
	BudgetCeiling       *int64
	UseBudgetPreference bool
	MaxRadiusKm         *float64
	Policy              RankPolicy
}

// Validate checks the constraints. A zero Policy means "use the default".
func (r *FulfillRequest) Validate() error {
	if r.Policy != 0 && !r.Policy.Valid() {
		return types.InvalidConstraint("rankPolicy", "unknown policy "+r.Policy.String())
	}
	return Filter{BudgetCeiling: r.BudgetCeiling, MaxRadiusKm: r.MaxRadiusKm}.Validate()
}

// SnackRequest contains the parameters for a single-item radius search.
// A nil MaxRadiusKm means the configured default radius.
type SnackRequest struct {
	UserID      int64
	FoodID      int64
	MaxRadiusKm *float64
	Policy      RankPolicy
}

// Validate checks the radius and policy.
func (r *SnackRequest) Validate() error {
	if err := validateRadius(r.MaxRadiusKm); err != nil {
		return err
	}
	if r.Policy != 0 && !r.Policy.Valid() {
		return types.InvalidConstraint("rankPolicy", "unknown policy "+r.Policy.String())
	}
	return nil
}
