package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/types"
)

// FindClosestStore returns the nearest store carrying a food item
// @Summary Find the closest store
// @Description Returns the store nearest to the user that carries the food item, ties broken by price then store id
// @Tags shopping
// @Produce json
// @Param userId query int true "User ID"
// @Param foodId query int true "Food item ID"
// @Success 200 {object} OfferResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "User, food item or offer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/shopping/closest [get]
func FindClosestStore(c *gin.Context) {
	var q ClosestStoreQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err.Error())
		return
	}

	offer, err := shoppingService.FindClosestStore(c.Request.Context(), q.UserID, q.FoodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

// CompareOffers returns the cheapest offers for a food item across stores
// @Summary Compare prices across stores
// @Description Returns up to maxStores offers for the food item ordered by ascending price
// @Tags shopping
// @Produce json
// @Param foodId query int true "Food item ID"
// @Param maxStores query int false "Number of offers to return" default(5) minimum(1) maximum(50)
// @Param priceCeiling query int false "Drop offers priced above this (cents)"
// @Success 200 {object} CompareOffersResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "Food item not found or no offer matched"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/shopping/compare [get]
func CompareOffers(c *gin.Context) {
	var q CompareOffersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err.Error())
		return
	}

	offers, err := shoppingService.CompareOffers(c.Request.Context(), optimizer.CompareRequest{
		FoodID:       q.FoodID,
		MaxStores:    q.MaxStores,
		PriceCeiling: q.PriceCeiling,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := CompareOffersResponse{FoodID: q.FoodID, Offers: make([]OfferResponse, 0, len(offers))}
	for _, o := range offers {
		resp.Offers = append(resp.Offers, toOfferResponse(o))
	}
	c.JSON(http.StatusOK, resp)
}

// RouteOptimize returns both the closest and the best value store for a food item
// @Summary Closest and best value store
// @Description Ranks the same filtered offers twice: once by distance and once by price
// @Tags shopping
// @Accept json
// @Produce json
// @Param request body RouteOptimizeRequest true "Route request"
// @Success 200 {object} RouteOptimizeResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "User, food item or offer not found"
// @Failure 409 {object} ErrorResponse "Budget preference missing"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/shopping/route-optimize [post]
func RouteOptimize(c *gin.Context) {
	var req RouteOptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err.Error())
		return
	}

	result, err := shoppingService.RouteOptimize(c.Request.Context(), optimizer.RouteRequest{
		UserID:              req.UserID,
		FoodID:              req.FoodID,
		BudgetCeiling:       req.BudgetCeiling,
		UseBudgetPreference: req.UseBudgetPreference,
		Collapse:            req.Collapse,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	resp := RouteOptimizeResponse{
		ClosestStore: toOfferResponse(result.Closest),
		SameStore:    result.SameStore,
	}
	if result.BestValue != nil {
		best := toOfferResponse(*result.BestValue)
		resp.BestValueStore = &best
	}
	c.JSON(http.StatusOK, resp)
}

// FulfillList plans where to buy every item of a shopping list
// @Summary Fulfill a shopping list
// @Description Selects one store per distinct item under shared constraints; unfulfillable items carry a reason
// @Tags shopping
// @Accept json
// @Produce json
// @Param request body FulfillListRequest true "Fulfillment request"
// @Success 200 {object} FulfillListResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "User or list not found"
// @Failure 409 {object} ErrorResponse "Budget preference missing"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/shopping/fulfill [post]
func FulfillList(c *gin.Context) {
	var req FulfillListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err.Error())
		return
	}
	policy, ok := parsePolicy(c, string(req.RankPolicy))
	if !ok {
		return
	}

	fulfillReq := optimizer.FulfillRequest{
		UserID:              req.UserID,
		ListID:              req.ListID,
		BudgetCeiling:       req.BudgetCeiling,
		UseBudgetPreference: req.UseBudgetPreference,
		MaxRadiusKm:         req.MaxRadiusKm,
		Policy:              policy,
	}
	if err := fulfillReq.Validate(); err != nil {
		respondError(c, err)
		return
	}

	plan, err := shoppingService.FulfillList(c.Request.Context(), fulfillReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFulfillListResponse(plan))
}

// FindSnack returns the best store within a radius for one food item
// @Summary Find a snack nearby
// @Description Returns the best offer within maxRadiusKm of the user under the chosen ranking policy
// @Tags shopping
// @Produce json
// @Param userId query int true "User ID"
// @Param foodId query int true "Food item ID"
// @Param maxRadiusKm query number false "Search radius in kilometers" default(5)
// @Param rankPolicy query string false "Ranking policy" Enums(distance, price, price_then_distance, 1, 2, 3)
// @Success 200 {object} OfferResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "User, food item or offer not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/shopping/snack [get]
func FindSnack(c *gin.Context) {
	var q FindSnackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondBindError(c, err.Error())
		return
	}
	policy, ok := parsePolicy(c, q.RankPolicy)
	if !ok {
		return
	}

	snackReq := optimizer.SnackRequest{
		UserID:      q.UserID,
		FoodID:      q.FoodID,
		MaxRadiusKm: q.MaxRadiusKm,
		Policy:      policy,
	}
	if err := snackReq.Validate(); err != nil {
		respondError(c, err)
		return
	}

	offer, err := shoppingService.FindSnack(c.Request.Context(), snackReq)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOfferResponse(offer))
}

// ListNutritionFacts returns the nutrition breakdown of a shopping list
// @Summary Shopping list nutrition
// @Description Per-item nutrition scaled by quantity plus a Total row; an empty list returns empty=true
// @Tags lists
// @Produce json
// @Param userId path int true "User ID"
// @Param listId path int true "Shopping list ID"
// @Success 200 {object} NutritionResponse
// @Failure 400 {object} ErrorResponse "Invalid parameters"
// @Failure 404 {object} ErrorResponse "User or list not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/lists/{listId}/nutrition [get]
func ListNutritionFacts(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	listID, ok := paramID(c, "listId")
	if !ok {
		return
	}

	report, err := shoppingService.ListNutritionFacts(c.Request.Context(), userID, listID)
	if errors.Is(err, types.ErrListEmpty) {
		c.JSON(http.StatusOK, NutritionResponse{ListID: listID, Empty: true, Items: []NutritionRowResponse{}})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toNutritionResponse(report))
}
