package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/types"
)

// ShoppingService is the store/price/distance engine used by the shopping endpoints.
type ShoppingService interface {
	FindClosestStore(ctx context.Context, userID, foodID int64) (optimizer.ScoredOffer, error)
	CompareOffers(ctx context.Context, req optimizer.CompareRequest) ([]optimizer.ScoredOffer, error)
	RouteOptimize(ctx context.Context, req optimizer.RouteRequest) (*optimizer.RouteResult, error)
	FulfillList(ctx context.Context, req optimizer.FulfillRequest) (*optimizer.FulfillmentPlan, error)
	FindSnack(ctx context.Context, req optimizer.SnackRequest) (optimizer.ScoredOffer, error)
	ListNutritionFacts(ctx context.Context, userID, listID int64) (*optimizer.NutritionReport, error)
}

// Store is the CRUD surface used by the user, list and store endpoints.
type Store interface {
	CreateUser(ctx context.Context, name string, loc types.Location) (*types.User, error)
	SetBudget(ctx context.Context, userID, budget int64) error
	GetBudget(ctx context.Context, userID int64) (int64, error)
	CreateList(ctx context.Context, userID int64, name string) (*types.ShoppingList, error)
	ListUserLists(ctx context.Context, userID int64) ([]types.ListSummary, error)
	DeleteList(ctx context.Context, userID, listID int64) error
	AddListItems(ctx context.Context, userID, listID int64, items []types.ShoppingListItem) error
	RemoveListItem(ctx context.Context, userID, listID, foodID int64) error
	ListStores(ctx context.Context) ([]types.Store, error)
	GetStoreCatalog(ctx context.Context, storeID int64) ([]types.CatalogEntry, error)
}

var (
	shoppingService ShoppingService
	dataStore       Store
)

// Init wires the handlers to their backends.
// This should be called during application startup.
func Init(svc ShoppingService, store Store) {
	shoppingService = svc
	dataStore = store
}

// paramID reads a positive integer path parameter. On failure it writes a
// 400 response and returns false.
func paramID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id < 1 {
		respondBindError(c, name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// parsePolicy parses an optional ranking policy parameter. Zero means the
// service default.
func parsePolicy(c *gin.Context, raw string) (optimizer.RankPolicy, bool) {
	p, err := optimizer.ParseRankPolicy(raw, 0)
	if err != nil {
		respondError(c, err)
		return 0, false
	}
	return p, true
}

func respondBindError(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:     types.ErrCodeInvalidConstraint,
		Message:   message,
		RequestID: c.GetString(RequestIDKey),
	})
}
