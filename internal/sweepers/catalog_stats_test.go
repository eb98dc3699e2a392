package sweepers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartfood/grocery-service/internal/database"
)

type fakeStats struct {
	stats *database.CatalogStats
	err   error
	calls atomic.Int32
}

func (f *fakeStats) GetCatalogStats(context.Context) (*database.CatalogStats, error) {
	f.calls.Add(1)
	return f.stats, f.err
}

func TestCatalogStatsRefresh(t *testing.T) {
	src := &fakeStats{stats: &database.CatalogStats{Stores: 3, FoodItems: 40, Offers: 97, Users: 5, ShoppingLists: 8}}
	s := NewCatalogStatsSweeper(src, zerolog.Nop(), time.Minute)

	require.NoError(t, s.Refresh(context.Background()))

	assert.Equal(t, 3.0, testutil.ToFloat64(catalogSize.WithLabelValues("stores")))
	assert.Equal(t, 97.0, testutil.ToFloat64(catalogSize.WithLabelValues("offers")))
	assert.Equal(t, 8.0, testutil.ToFloat64(catalogSize.WithLabelValues("shopping_lists")))
	assert.Greater(t, testutil.ToFloat64(catalogStatsLastSuccess), 0.0)
}

func TestCatalogStatsRefreshError(t *testing.T) {
	src := &fakeStats{err: errors.New("connection refused")}
	s := NewCatalogStatsSweeper(src, zerolog.Nop(), time.Minute)

	err := s.Refresh(context.Background())
	assert.ErrorContains(t, err, "connection refused")
}

func TestCatalogStatsSweeperStops(t *testing.T) {
	src := &fakeStats{stats: &database.CatalogStats{}}
	s := NewCatalogStatsSweeper(src, zerolog.Nop(), 10*time.Millisecond)

	done := make(chan struct{})
	go func() {
		s.Start(context.Background())
		close(done)
	}()

	assert.Eventually(t, func() bool { return src.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	s.Stop()
	s.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop")
	}
}

func TestCatalogStatsSweeperContextCancel(t *testing.T) {
	src := &fakeStats{stats: &database.CatalogStats{}}
	s := NewCatalogStatsSweeper(src, zerolog.Nop(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		s.Start(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop on cancel")
	}
	assert.Equal(t, int32(1), src.calls.Load())
}
