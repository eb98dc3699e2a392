package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the v1 API on rg.
func RegisterRoutes(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	{
		users.POST("", CreateUser)
		users.PUT("/:userId/preferences", SetBudget)
		users.GET("/:userId/preferences", GetBudget)
		users.POST("/:userId/lists", CreateList)
		users.GET("/:userId/lists", ListUserLists)
		users.DELETE("/:userId/lists/:listId", DeleteList)
		users.POST("/:userId/lists/:listId/items", AddListItems)
		users.DELETE("/:userId/lists/:listId/items/:foodId", RemoveListItem)
		users.GET("/:userId/lists/:listId/nutrition", ListNutritionFacts)
	}

	stores := rg.Group("/stores")
	{
		stores.GET("", ListStores)
		stores.GET("/:storeId/catalog", GetStoreCatalog)
	}

	shopping := rg.Group("/shopping")
	{
		shopping.GET("/closest", FindClosestStore)
		shopping.GET("/compare", CompareOffers)
		shopping.POST("/route-optimize", RouteOptimize)
		shopping.POST("/fulfill", FulfillList)
		shopping.GET("/snack", FindSnack)
	}
}
