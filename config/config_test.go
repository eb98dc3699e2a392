package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/optimizer"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, 25, cfg.Database.MaxConnections)
	assert.Equal(t, optimizer.PolicyPriceThenDistance, cfg.Ranking.DefaultPolicy)
	assert.Equal(t, 5, cfg.Ranking.DefaultCompareStores)
	assert.Equal(t, 5.0, cfg.Ranking.DefaultSnackRadiusKm)
	assert.Equal(t, optimizer.DefaultBreakerConfig(), cfg.Breaker)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, time.Minute, cfg.Sweeper.CatalogStatsInterval)
	assert.Same(t, cfg, Get())
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
ranking:
  default_policy: 1
  max_compare_stores: 10
  default_compare_stores: 3
auth:
  api_keys: ["k1", "k2"]
sweeper:
  catalog_stats_interval: 5m
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, optimizer.PolicyDistance, cfg.Ranking.DefaultPolicy)
	assert.Equal(t, 10, cfg.Ranking.MaxCompareStores)
	assert.True(t, cfg.Auth.Enabled)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.Equal(t, 5*time.Minute, cfg.Sweeper.CatalogStatsInterval)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GROCERY_SERVER_PORT", "7070")
	t.Setenv("GROCERY_RANKING_DEFAULT_SNACK_RADIUS_KM", "2.5")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/grocery")

	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 2.5, cfg.Ranking.DefaultSnackRadiusKm)
	assert.Equal(t, "postgres://u:p@localhost:5432/grocery", cfg.Database.URL)
	assert.Equal(t, "postgres://u:p@localhost:5432/grocery", GetDatabaseURL())
}

func TestLoadRejectsInvalidRanking(t *testing.T) {
	_, err := Load(writeConfig(t, "ranking:\n  default_policy: 7\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_policy")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:   ServerConfig{Port: 8080},
			Database: DatabaseConfig{MaxConnections: 10, MinConnections: 2},
			Ranking:  *optimizer.Defaults(),
		}
	}

	cfg := valid()
	assert.NoError(t, cfg.Validate())

	cfg = valid()
	cfg.Server.Port = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Database.MinConnections = 20
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 0, Burst: 1}
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.RateLimit = RateLimitConfig{Enabled: true, RequestsPerSecond: 5, Burst: 10}
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "idle_ttl")

	cfg.RateLimit.IdleTTL = time.Minute
	assert.NoError(t, cfg.Validate())

	cfg.RateLimit = RateLimitConfig{Enabled: false}
	assert.NoError(t, cfg.Validate(), "disabled limiter needs no settings")
}

func TestLoadDotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("# comment\nexport GROCERY_TEST_A=\"one\"\nGROCERY_TEST_B=two\nbroken line\n"), 0o600))
	t.Setenv("GROCERY_TEST_B", "kept")
	t.Cleanup(func() { os.Unsetenv("GROCERY_TEST_A") })

	require.NoError(t, loadDotEnvFile(path))

	assert.Equal(t, "one", os.Getenv("GROCERY_TEST_A"))
	assert.Equal(t, "kept", os.Getenv("GROCERY_TEST_B"))
}
