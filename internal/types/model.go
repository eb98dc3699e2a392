package types

// Location is a WGS-84 coordinate pair in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both coordinates are inside their geographic ranges.
func (l Location) Valid() bool {
	return l.Latitude >= -90 && l.Latitude <= 90 &&
		l.Longitude >= -180 && l.Longitude <= 180
}

// User is a shopper with a home location and an optional budget preference.
type User struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Location Location `json:"location"`
	Budget   *int64   `json:"budget,omitempty"` // cents, nil when no preference recorded
}

// NutritionFacts are per-serving values for a food item. All values are non-negative.
type NutritionFacts struct {
	ServingSize  float64 `json:"servingSize"`
	Calories     float64 `json:"calories"`
	SaturatedFat float64 `json:"saturatedFat"`
	TransFat     float64 `json:"transFat"`
	Fiber        float64 `json:"fiber"`
	Carbs        float64 `json:"carbs"`
	Sugars       float64 `json:"sugars"`
	Protein      float64 `json:"protein"`
}

// Scale returns the facts multiplied by factor.
func (n NutritionFacts) Scale(factor float64) NutritionFacts {
	return NutritionFacts{
		ServingSize:  n.ServingSize * factor,
		Calories:     n.Calories * factor,
		SaturatedFat: n.SaturatedFat * factor,
		TransFat:     n.TransFat * factor,
		Fiber:        n.Fiber * factor,
		Carbs:        n.Carbs * factor,
		Sugars:       n.Sugars * factor,
		Protein:      n.Protein * factor,
	}
}

// Add returns the field-wise sum of n and o.
func (n NutritionFacts) Add(o NutritionFacts) NutritionFacts {
	return NutritionFacts{
		ServingSize:  n.ServingSize + o.ServingSize,
		Calories:     n.Calories + o.Calories,
		SaturatedFat: n.SaturatedFat + o.SaturatedFat,
		TransFat:     n.TransFat + o.TransFat,
		Fiber:        n.Fiber + o.Fiber,
		Carbs:        n.Carbs + o.Carbs,
		Sugars:       n.Sugars + o.Sugars,
		Protein:      n.Protein + o.Protein,
	}
}

// FoodItem is a purchasable product with its nutrition facts.
type FoodItem struct {
	ID        int64          `json:"id"`
	Name      string         `json:"name"`
	Nutrition NutritionFacts `json:"nutrition"`
}

// Store is a physical shop with a location and daily operating hours.
type Store struct {
	ID        int64    `json:"id"`
	Name      string   `json:"name"`
	Location  Location `json:"location"`
	OpenTime  string   `json:"openTime"`  // HH:MM
	CloseTime string   `json:"closeTime"` // HH:MM
}

// CatalogOffer is a store's price and stock for a single food item.
type CatalogOffer struct {
	StoreID       int64    `json:"storeId"`
	StoreName     string   `json:"storeName"`
	StoreLocation Location `json:"storeLocation"`
	FoodID        int64    `json:"foodId"`
	Price         int64    `json:"price"`    // cents
	Quantity      int      `json:"quantity"` // units in stock
}

// CatalogEntry is one row of a store's catalog listing.
type CatalogEntry struct {
	ItemSKU  int64  `json:"itemSku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    int64  `json:"price"`
}

// ShoppingList is a named list owned by a single user.
type ShoppingList struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
}

// ShoppingListItem is a requested quantity of a food item on a list.
type ShoppingListItem struct {
	ListID   int64  `json:"listId"`
	FoodID   int64  `json:"foodId"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// ListSummary is a shopping list together with its line count.
type ListSummary struct {
	ShoppingList
	ItemCount int `json:"itemCount"`
}
