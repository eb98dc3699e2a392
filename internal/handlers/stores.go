package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/smartfood/grocery-service/internal/presentation"
)

// ListStores returns every store with its location and hours
// @Summary List stores
// @Tags stores
// @Produce json
// @Success 200 {array} StoreResponse
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/stores [get]
func ListStores(c *gin.Context) {
	stores, err := dataStore.ListStores(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]StoreResponse, 0, len(stores))
	for _, s := range stores {
		resp = append(resp, StoreResponse{
			ID:        s.ID,
			Name:      s.Name,
			Latitude:  s.Location.Latitude,
			Longitude: s.Location.Longitude,
			OpenTime:  s.OpenTime,
			CloseTime: s.CloseTime,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetStoreCatalog returns the items a store sells
// @Summary Store catalog
// @Tags stores
// @Produce json
// @Param storeId path int true "Store ID"
// @Success 200 {array} CatalogEntryResponse
// @Failure 400 {object} ErrorResponse "Invalid store id"
// @Failure 404 {object} ErrorResponse "Store not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /v1/stores/{storeId}/catalog [get]
func GetStoreCatalog(c *gin.Context) {
	storeID, ok := paramID(c, "storeId")
	if !ok {
		return
	}

	entries, err := dataStore.GetStoreCatalog(c.Request.Context(), storeID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := make([]CatalogEntryResponse, 0, len(entries))
	for _, e := range entries {
		resp = append(resp, CatalogEntryResponse{
			ItemSKU:    e.ItemSKU,
			Name:       e.Name,
			Quantity:   e.Quantity,
			PriceCents: e.Price,
			Price:      presentation.Price(e.Price),
		})
	}
	c.JSON(http.StatusOK, resp)
}
