package optimizer

// Config holds the ranking settings.
// It is loaded from environment variables or a config file.
type Config struct {
	// Policy used when a request does not name one
	DefaultPolicy RankPolicy `mapstructure:"default_policy" env:"DEFAULT_POLICY" default:"3"`

	// Price comparison limits
	DefaultCompareStores int `mapstructure:"default_compare_stores" env:"DEFAULT_COMPARE_STORES" default:"5"`
	MaxCompareStores     int `mapstructure:"max_compare_stores" env:"MAX_COMPARE_STORES" default:"50"`

	// Radius used by snack search when the request omits one
	DefaultSnackRadiusKm float64 `mapstructure:"default_snack_radius_km" env:"DEFAULT_SNACK_RADIUS_KM" default:"5.0"`

	// Lists longer than this are rejected before planning
	MaxListItems int `mapstructure:"max_list_items" env:"MAX_LIST_ITEMS" default:"200"`
}

// Defaults returns the default configuration.
func Defaults() *Config {
	return &Config{
		DefaultPolicy:        PolicyPriceThenDistance,
		DefaultCompareStores: 5,
		MaxCompareStores:     50,
		DefaultSnackRadiusKm: 5.0,
		MaxListItems:         200,
	}
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if !c.DefaultPolicy.Valid() {
		return ErrInvalidConfig{Field: "default_policy", Reason: "must be 1, 2 or 3"}
	}
	if c.MaxCompareStores < 1 {
		return ErrInvalidConfig{Field: "max_compare_stores", Reason: "must be at least 1"}
	}
	if c.DefaultCompareStores < 1 || c.DefaultCompareStores > c.MaxCompareStores {
		return ErrInvalidConfig{Field: "default_compare_stores", Reason: "must be between 1 and max_compare_stores"}
	}
	if c.DefaultSnackRadiusKm <= 0 {
		return ErrInvalidConfig{Field: "default_snack_radius_km", Reason: "must be positive"}
	}
	if c.MaxListItems < 1 {
		return ErrInvalidConfig{Field: "max_list_items", Reason: "must be at least 1"}
	}
	return nil
}

// ErrInvalidConfig is returned when the configuration is invalid.
type ErrInvalidConfig struct {
	Field  string
	Reason string
}

func (e ErrInvalidConfig) Error() string {
	return e.Field + ": " + e.Reason
}
