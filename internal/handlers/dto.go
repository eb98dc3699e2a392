package handlers

import (
	"encoding/json"

	"github.com/invopop/jsonschema"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/presentation"
	"github.com/smartfood/grocery-service/internal/types"
)

// ============================================================================
// Requests
// ============================================================================

// RankPolicyParam accepts a ranking policy either as a numeric code (1, 2, 3)
// or as a name ("distance", "price", "price_then_distance").
type RankPolicyParam string

// UnmarshalJSON accepts both JSON numbers and strings.
func (p *RankPolicyParam) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*p = RankPolicyParam(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*p = RankPolicyParam(n.String())
	return nil
}

// JSONSchema describes the accepted policy encodings.
func (RankPolicyParam) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Description: "Ranking policy: 1 distance, 2 price, 3 price_then_distance",
		OneOf: []*jsonschema.Schema{
			{Type: "integer", Enum: []any{1, 2, 3}},
			{Type: "string", Enum: []any{"distance", "price", "price_then_distance"}},
		},
	}
}

// ClosestStoreQuery represents the query parameters for the closest store lookup
type ClosestStoreQuery struct {
	UserID int64 `form:"userId" binding:"required" jsonschema:"required"`
	FoodID int64 `form:"foodId" binding:"required" jsonschema:"required"`
}

// CompareOffersQuery represents the query parameters for a price comparison
type CompareOffersQuery struct {
	FoodID       int64  `form:"foodId" binding:"required" jsonschema:"required"`
	MaxStores    int    `form:"maxStores"`
	PriceCeiling *int64 `form:"priceCeiling"` // cents
}

// RouteOptimizeRequest represents the closest/best-value lookup request
type RouteOptimizeRequest struct {
	UserID              int64  `json:"userId" binding:"required" jsonschema:"required"`
	FoodID              int64  `json:"foodId" binding:"required" jsonschema:"required"`
	BudgetCeiling       *int64 `json:"budgetCeiling,omitempty"` // cents, wins over the stored preference
	UseBudgetPreference bool   `json:"useBudgetPreference,omitempty"`
	Collapse            bool   `json:"collapse,omitempty"` // drop bestValueStore when it equals closestStore
}

// FulfillListRequest represents the list fulfillment request
type FulfillListRequest struct {
	UserID              int64           `json:"userId" binding:"required" jsonschema:"required"`
	ListID              int64           `json:"listId" binding:"required" jsonschema:"required"`
	BudgetCeiling       *int64          `json:"budgetCeiling,omitempty"`
	UseBudgetPreference bool            `json:"useBudgetPreference,omitempty"`
	MaxRadiusKm         *float64        `json:"maxRadiusKm,omitempty"`
	RankPolicy          RankPolicyParam `json:"rankPolicy,omitempty"`
}

// FindSnackQuery represents the query parameters for a snack search
type FindSnackQuery struct {
	UserID      int64    `form:"userId" binding:"required" jsonschema:"required"`
	FoodID      int64    `form:"foodId" binding:"required" jsonschema:"required"`
	MaxRadiusKm *float64 `form:"maxRadiusKm"`
	RankPolicy  string   `form:"rankPolicy"`
}

// CreateUserRequest represents the user registration request
type CreateUserRequest struct {
	Name      string   `json:"name" binding:"required,max=200" jsonschema:"required"`
	Latitude  *float64 `json:"latitude" binding:"required,min=-90,max=90" jsonschema:"required"`
	Longitude *float64 `json:"longitude" binding:"required,min=-180,max=180" jsonschema:"required"`
}

// SetBudgetRequest represents the budget preference update
type SetBudgetRequest struct {
	Budget *int64 `json:"budget" binding:"required" jsonschema:"required"` // cents
}

// CreateListRequest represents the shopping list creation request
type CreateListRequest struct {
	Name string `json:"name" binding:"required,max=200" jsonschema:"required"`
}

// ListItemRequest is one line to add to a shopping list
type ListItemRequest struct {
	FoodID   int64 `json:"foodId" binding:"required" jsonschema:"required"`
	Quantity int   `json:"quantity" binding:"required" jsonschema:"required"`
}

// AddListItemsRequest represents a batch of lines to add to a list
type AddListItemsRequest struct {
	Items []ListItemRequest `json:"items" binding:"required,min=1,max=200,dive" jsonschema:"required"`
}

// ============================================================================
// Responses
// ============================================================================

// OfferResponse is a ranked store offer for one food item
type OfferResponse struct {
	Rank              int      `json:"rank,omitempty"`
	StoreID           int64    `json:"storeId"`
	StoreName         string   `json:"storeName"`
	Latitude          float64  `json:"latitude"`
	Longitude         float64  `json:"longitude"`
	PriceCents        int64    `json:"priceCents"`
	Price             string   `json:"price"`
	DistanceKm        *float64 `json:"distanceKm,omitempty"`
	QuantityAvailable int      `json:"quantityAvailable"`
}

// CompareOffersResponse is the price-ascending offer list
type CompareOffersResponse struct {
	FoodID int64           `json:"foodId"`
	Offers []OfferResponse `json:"offers"`
}

// RouteOptimizeResponse holds the closest and the best value store
type RouteOptimizeResponse struct {
	ClosestStore   OfferResponse  `json:"closestStore"`
	BestValueStore *OfferResponse `json:"bestValueStore,omitempty"`
	SameStore      bool           `json:"sameStore"`
}

// ItemSelectionResponse is the planner's answer for one list item
type ItemSelectionResponse struct {
	FoodID         int64          `json:"foodId"`
	Name           string         `json:"name"`
	Quantity       int            `json:"quantity"`
	Fulfilled      bool           `json:"fulfilled"`
	Store          *OfferResponse `json:"store,omitempty"`
	LineTotalCents int64          `json:"lineTotalCents"`
	LineTotal      string         `json:"lineTotal"`
	Reason         string         `json:"reason,omitempty"`
}

// FulfillListResponse is the per-item fulfillment plan
type FulfillListResponse struct {
	ListID              int64                   `json:"listId"`
	RankPolicy          string                  `json:"rankPolicy"`
	Items               []ItemSelectionResponse `json:"items"`
	FulfilledCount      int                     `json:"fulfilledCount"`
	UnfulfilledCount    int                     `json:"unfulfilledCount"`
	EstimatedTotalCents int64                   `json:"estimatedTotalCents"`
	EstimatedTotal      string                  `json:"estimatedTotal"`
}

// NutritionRowResponse is the scaled nutrition for one item name, or the total
type NutritionRowResponse struct {
	Name         string  `json:"name"`
	Quantity     int     `json:"quantity,omitempty"`
	ServingSize  float64 `json:"servingSize"`
	Calories     float64 `json:"calories"`
	SaturatedFat float64 `json:"saturatedFat"`
	TransFat     float64 `json:"transFat"`
	Fiber        float64 `json:"fiber"`
	Carbs        float64 `json:"carbs"`
	Sugars       float64 `json:"sugars"`
	Protein      float64 `json:"protein"`
}

// NutritionResponse is the per-item breakdown plus the Total row.
// Empty is true, with no rows, when the list has no items.
type NutritionResponse struct {
	ListID int64                  `json:"listId"`
	Empty  bool                   `json:"empty"`
	Items  []NutritionRowResponse `json:"items"`
	Total  *NutritionRowResponse  `json:"total,omitempty"`
}

// UserResponse is a created user
type UserResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// BudgetResponse is a user's budget preference
type BudgetResponse struct {
	UserID      int64  `json:"userId"`
	BudgetCents int64  `json:"budgetCents"`
	Budget      string `json:"budget"`
}

// ListResponse is a shopping list header
type ListResponse struct {
	ID        int64  `json:"id"`
	UserID    int64  `json:"userId"`
	Name      string `json:"name"`
	ItemCount int    `json:"itemCount"`
}

// StoreResponse is a store with its hours and location
type StoreResponse struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	OpenTime  string  `json:"openTime"`
	CloseTime string  `json:"closeTime"`
}

// CatalogEntryResponse is one item in a store's catalog
type CatalogEntryResponse struct {
	ItemSKU    int64  `json:"itemSku"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
	Price      string `json:"price"`
}

// ============================================================================
// Conversions
// ============================================================================

func toOfferResponse(o optimizer.ScoredOffer) OfferResponse {
	r := OfferResponse{
		Rank:              o.Rank,
		StoreID:           o.StoreID,
		StoreName:         o.StoreName,
		Latitude:          o.StoreLocation.Latitude,
		Longitude:         o.StoreLocation.Longitude,
		PriceCents:        o.Price,
		Price:             presentation.Price(o.Price),
		QuantityAvailable: o.Quantity,
	}
	if o.HasDistance {
		d := presentation.RoundKm(o.DistanceKm)
		r.DistanceKm = &d
	}
	return r
}

func toFulfillListResponse(plan *optimizer.FulfillmentPlan) FulfillListResponse {
	resp := FulfillListResponse{
		ListID:              plan.ListID,
		RankPolicy:          plan.Policy.String(),
		Items:               make([]ItemSelectionResponse, 0, len(plan.Items)),
		FulfilledCount:      plan.FulfilledCount,
		UnfulfilledCount:    len(plan.Items) - plan.FulfilledCount,
		EstimatedTotalCents: plan.EstimatedTotal,
		EstimatedTotal:      presentation.Price(plan.EstimatedTotal),
	}
	for _, item := range plan.Items {
		r := ItemSelectionResponse{
			FoodID:         item.FoodID,
			Name:           item.Name,
			Quantity:       item.Quantity,
			Fulfilled:      item.Fulfilled(),
			LineTotalCents: item.LineTotal,
			LineTotal:      presentation.Price(item.LineTotal),
			Reason:         item.Reason,
		}
		if item.Offer != nil {
			offer := toOfferResponse(*item.Offer)
			offer.Rank = 0
			r.Store = &offer
		}
		resp.Items = append(resp.Items, r)
	}
	return resp
}

func toNutritionRow(name string, quantity int, f types.NutritionFacts) NutritionRowResponse {
	return NutritionRowResponse{
		Name:         name,
		Quantity:     quantity,
		ServingSize:  f.ServingSize,
		Calories:     f.Calories,
		SaturatedFat: f.SaturatedFat,
		TransFat:     f.TransFat,
		Fiber:        f.Fiber,
		Carbs:        f.Carbs,
		Sugars:       f.Sugars,
		Protein:      f.Protein,
	}
}

func toNutritionResponse(report *optimizer.NutritionReport) NutritionResponse {
	resp := NutritionResponse{
		ListID: report.ListID,
		Items:  make([]NutritionRowResponse, 0, len(report.Items)),
	}
	for _, row := range report.Items {
		resp.Items = append(resp.Items, toNutritionRow(row.Name, row.Quantity, row.Facts))
	}
	total := toNutritionRow("Total", 0, report.Total)
	resp.Total = &total
	return resp
}
