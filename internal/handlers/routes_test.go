package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func TestRegisterRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	RegisterRoutes(router.Group("/v1"))

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	want := []string{
		"POST /v1/users",
		"PUT /v1/users/:userId/preferences",
		"GET /v1/users/:userId/preferences",
		"POST /v1/users/:userId/lists",
		"GET /v1/users/:userId/lists",
		"DELETE /v1/users/:userId/lists/:listId",
		"POST /v1/users/:userId/lists/:listId/items",
		"DELETE /v1/users/:userId/lists/:listId/items/:foodId",
		"GET /v1/users/:userId/lists/:listId/nutrition",
		"GET /v1/stores",
		"GET /v1/stores/:storeId/catalog",
		"GET /v1/shopping/closest",
		"GET /v1/shopping/compare",
		"POST /v1/shopping/route-optimize",
		"POST /v1/shopping/fulfill",
		"GET /v1/shopping/snack",
	}
	for _, route := range want {
		assert.True(t, registered[route], "missing route %s", route)
	}
}

func TestSwaggerRouteRegistration(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()

	assert.NotPanics(t, func() {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	})

	found := false
	for _, route := range router.Routes() {
		if route.Path == "/docs/*any" && route.Method == http.MethodGet {
			found = true
			break
		}
	}
	assert.True(t, found, "swagger route should be registered")
}

func TestHealthCheckWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthCheck)

	w := doRequest(t, router, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[HealthResponse](t, w)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "not configured", resp.Database)
	assert.Nil(t, resp.Pool)
}
