package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfood/grocery-service/internal/presentation"
	"github.com/smartfood/grocery-service/internal/types"
)

// CreateUser registers a user at a home location
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param request body CreateUserRequest true "User"
// @Success 201 {object} UserResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users [post]
func CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err.Error())
		return
	}

	loc := types.Location{Latitude: *req.Latitude, Longitude: *req.Longitude}
	user, err := dataStore.CreateUser(c.Request.Context(), req.Name, loc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Latitude:  user.Location.Latitude,
		Longitude: user.Location.Longitude,
	})
}

// SetBudget creates or replaces a user's budget preference
// @Summary Set budget preference
// @Tags users
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param request body SetBudgetRequest true "Budget in cents"
// @Success 200 {object} BudgetResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/preferences [put]
func SetBudget(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	var req SetBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err.Error())
		return
	}
	if *req.Budget < 0 {
		respondError(c, types.InvalidConstraint("budget", "must be non-negative"))
		return
	}

	if err := dataStore.SetBudget(c.Request.Context(), userID, *req.Budget); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BudgetResponse{
		UserID:      userID,
		BudgetCents: *req.Budget,
		Budget:      presentation.Price(*req.Budget),
	})
}

// GetBudget returns a user's budget preference
// @Summary Get budget preference
// @Tags users
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} BudgetResponse
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 409 {object} ErrorResponse "No budget preference set"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/preferences [get]
func GetBudget(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	budget, err := dataStore.GetBudget(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BudgetResponse{
		UserID:      userID,
		BudgetCents: budget,
		Budget:      presentation.Price(budget),
	})
}

// CreateList creates an empty shopping list for a user
// @Summary Create a shopping list
// @Tags lists
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param request body CreateListRequest true "List"
// @Success 201 {object} ListResponse
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/lists [post]
func CreateList(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	var req CreateListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err.Error())
		return
	}

	list, err := dataStore.CreateList(c.Request.Context(), userID, req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ListResponse{ID: list.ID, UserID: list.UserID, Name: list.Name})
}

// ListUserLists returns a user's shopping lists, newest first
// @Summary List shopping lists
// @Tags lists
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} ListResponse
// @Failure 404 {object} ErrorResponse "User not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/lists [get]
func ListUserLists(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	lists, err := dataStore.ListUserLists(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]ListResponse, 0, len(lists))
	for _, l := range lists {
		resp = append(resp, ListResponse{ID: l.ID, UserID: l.UserID, Name: l.Name, ItemCount: l.ItemCount})
	}
	c.JSON(http.StatusOK, resp)
}

// DeleteList removes a shopping list and its items
// @Summary Delete a shopping list
// @Tags lists
// @Param userId path int true "User ID"
// @Param listId path int true "Shopping list ID"
// @Success 204
// @Failure 404 {object} ErrorResponse "List not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/lists/{listId} [delete]
func DeleteList(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	listID, ok := paramID(c, "listId")
	if !ok {
		return
	}

	if err := dataStore.DeleteList(c.Request.Context(), userID, listID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddListItems adds a batch of items to a shopping list, all or nothing
// @Summary Add items to a shopping list
// @Description Inserts every item or none; a food already on the list is a conflict
// @Tags lists
// @Accept json
// @Produce json
// @Param userId path int true "User ID"
// @Param listId path int true "Shopping list ID"
// @Param request body AddListItemsRequest true "Items"
// @Success 201 {object} map[string]int "Number of items added"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 404 {object} ErrorResponse "List or food item not found"
// @Failure 409 {object} ErrorResponse "Item already on the list"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/lists/{listId}/items [post]
func AddListItems(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	listID, ok := paramID(c, "listId")
	if !ok {
		return
	}
	var req AddListItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err.Error())
		return
	}

	items := make([]types.ShoppingListItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, types.ShoppingListItem{ListID: listID, FoodID: it.FoodID, Quantity: it.Quantity})
	}
	if err := dataStore.AddListItems(c.Request.Context(), userID, listID, items); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"added": len(items)})
}

// RemoveListItem removes one food item from a shopping list
// @Summary Remove an item from a shopping list
// @Tags lists
// @Param userId path int true "User ID"
// @Param listId path int true "Shopping list ID"
// @Param foodId path int true "Food item ID"
// @Success 204
// @Failure 404 {object} ErrorResponse "List or item not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/users/{userId}/lists/{listId}/items/{foodId} [delete]
func RemoveListItem(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}
	listID, ok := paramID(c, "listId")
	if !ok {
		return
	}
	foodID, ok := paramID(c, "foodId")
	if !ok {
		return
	}

	if err := dataStore.RemoveListItem(c.Request.Context(), userID, listID, foodID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
