package database

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolOptionsApply(t *testing.T) {
	cfg, err := pgxpool.ParseConfig("postgres://grocery@localhost:5432/grocery")
	require.NoError(t, err)
	defaultLifetime := cfg.MaxConnLifetime

	PoolOptions{MaxConns: 4, MinConns: 10, MaxConnIdleTime: 5 * time.Minute}.apply(cfg)

	assert.Equal(t, int32(4), cfg.MaxConns)
	assert.Equal(t, int32(4), cfg.MinConns, "min connections are capped at max")
	assert.Equal(t, 5*time.Minute, cfg.MaxConnIdleTime)
	assert.Equal(t, defaultLifetime, cfg.MaxConnLifetime, "zero keeps the pgx default")
	assert.Equal(t, healthCheckPeriod, cfg.HealthCheckPeriod)
	assert.Equal(t, applicationName, cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestHealthWithoutPool(t *testing.T) {
	Close()

	_, err := Health(context.Background())
	assert.ErrorIs(t, err, ErrNotConnected)
	assert.Nil(t, Pool())
}

func TestConnectErrors(t *testing.T) {
	ctx := context.Background()
	t.Cleanup(Close)

	err := Connect(ctx, "://not a url", PoolOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse database url")

	err = Connect(ctx, "postgres://grocery@127.0.0.1:1/grocery?connect_timeout=1", PoolOptions{MaxConns: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reach database")
	assert.Nil(t, Pool(), "a failed connect leaves no pool behind")
}
