// @title Grocery Service API
// @version 1.0
// @description Store, price and distance resolution for grocery shopping lists.
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/smartfood/grocery-service/config"
	_ "github.com/smartfood/grocery-service/docs"
	"github.com/smartfood/grocery-service/internal/database"
	"github.com/smartfood/grocery-service/internal/handlers"
	"github.com/smartfood/grocery-service/internal/middleware"
	"github.com/smartfood/grocery-service/internal/optimizer"
	"github.com/smartfood/grocery-service/internal/sweepers"
	"github.com/smartfood/grocery-service/internal/telemetry"
)

func main() {
	cfg, err := config.Load(os.Getenv("GROCERY_CONFIG"))
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger := initLogger(cfg.Logging)
	log.Logger = logger

	logger.Info().Msg("Starting grocery service")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize telemetry")
	}

	dbURL := config.GetDatabaseURL()
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL not set")
	}

	if err := database.Connect(ctx, dbURL, database.PoolOptions{
		MaxConns:        cfg.Database.MaxConnections,
		MinConns:        cfg.Database.MinConnections,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	}); err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()
	logger.Info().Msg("Database connected")

	repo := database.NewRepository(database.Pool(), logger)
	if cfg.Database.ApplySchema {
		if err := repo.ApplySchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to apply schema")
		}
		logger.Info().Msg("Schema applied")
	}

	ranking := cfg.Ranking
	guarded := optimizer.NewGuardedStore(repo, cfg.Breaker, logger)
	handlers.Init(optimizer.NewService(guarded, &ranking), repo)

	statsSweeper := sweepers.NewCatalogStatsSweeper(repo, logger, cfg.Sweeper.CatalogStatsInterval)
	if cfg.Sweeper.CatalogStatsInterval > 0 {
		go statsSweeper.Start(ctx)
	}

	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.AccessLog(logger))

	router.GET("/health", handlers.HealthCheck)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := router.Group("/v1")
	switch {
	case !cfg.Auth.Enabled:
		logger.Warn().Msg("API key authentication disabled; /v1 is open to any caller")
	case len(cfg.Auth.APIKeys) == 0:
		logger.Warn().Msg("No API keys configured; every /v1 request will be refused")
		fallthrough
	default:
		v1.Use(middleware.APIKeyAuth(cfg.Auth.APIKeys))
	}
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewIPRateLimiter(middleware.RateLimiterConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			BurstSize:         cfg.RateLimit.Burst,
			IdleTTL:           cfg.RateLimit.IdleTTL,
		})
		go limiter.RunCleanup(ctx, cfg.RateLimit.IdleTTL)
		v1.Use(middleware.RateLimit(limiter))
	}
	handlers.RegisterRoutes(v1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      otelhttp.NewHandler(router, "grocery-service"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info().Str("addr", addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()

	logger.Info().Msg("Shutting down server...")
	statsSweeper.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Telemetry shutdown failed")
	}

	logger.Info().Msg("Server exited")
}

func initLogger(cfg config.LoggingConfig) zerolog.Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	var output io.Writer
	if cfg.Format == "json" {
		output = os.Stdout
	} else {
		output = zerolog.ConsoleWriter{Out: os.Stdout, NoColor: cfg.NoColor}
	}

	return zerolog.New(output).Level(level).With().Timestamp().Str("service", "grocery-service").Logger()
}
