package sweepers

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/smartfood/grocery-service/internal/database"
)

var catalogSize = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "grocery_catalog_size",
		Help: "Row counts of the catalog and user tables, refreshed by the stats sweeper",
	},
	[]string{"entity"},
)

var catalogStatsLastSuccess = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name: "grocery_catalog_stats_last_success_timestamp_seconds",
		Help: "Unix time of the last successful catalog stats refresh",
	},
)

// StatsSource returns the current catalog counts.
type StatsSource interface {
	GetCatalogStats(ctx context.Context) (*database.CatalogStats, error)
}

// CatalogStatsSweeper periodically publishes catalog counts as gauges
type CatalogStatsSweeper struct {
	source   StatsSource
	logger   zerolog.Logger
	interval time.Duration
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewCatalogStatsSweeper creates a sweeper that refreshes every interval.
func NewCatalogStatsSweeper(source StatsSource, logger zerolog.Logger, interval time.Duration) *CatalogStatsSweeper {
	return &CatalogStatsSweeper{
		source:   source,
		logger:   logger.With().Str("sweeper", "catalog_stats").Logger(),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start refreshes once immediately, then on every tick until stopped.
func (s *CatalogStatsSweeper) Start(ctx context.Context) {
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Starting catalog stats sweeper")

	if err := s.Refresh(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to refresh catalog stats")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("Catalog stats sweeper stopping (context cancelled)")
			return
		case <-s.stopChan:
			s.logger.Info().Msg("Catalog stats sweeper stopping (stop signal)")
			return
		case <-ticker.C:
			if err := s.Refresh(ctx); err != nil {
				s.logger.Error().Err(err).Msg("Failed to refresh catalog stats")
			}
		}
	}
}

// Stop signals the sweeper to stop. Safe to call more than once.
func (s *CatalogStatsSweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopChan) })
}

// Refresh reads the counts and updates the gauges.
func (s *CatalogStatsSweeper) Refresh(ctx context.Context) error {
	stats, err := s.source.GetCatalogStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to read catalog stats: %w", err)
	}

	catalogSize.WithLabelValues("stores").Set(float64(stats.Stores))
	catalogSize.WithLabelValues("food_items").Set(float64(stats.FoodItems))
	catalogSize.WithLabelValues("offers").Set(float64(stats.Offers))
	catalogSize.WithLabelValues("users").Set(float64(stats.Users))
	catalogSize.WithLabelValues("shopping_lists").Set(float64(stats.ShoppingLists))
	catalogStatsLastSuccess.SetToCurrentTime()

	s.logger.Debug().
		Int64("stores", stats.Stores).
		Int64("offers", stats.Offers).
		Msg("Catalog stats refreshed")
	return nil
}
