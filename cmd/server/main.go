// ===========================================
// shortlink - Main Entry Point
// ===========================================
// Loads configuration, wires dependencies bottom-up (database ->
// repositories -> services -> handlers), mounts the router and
// runs until a shutdown signal. Any critical dependency failing
// at startup is fatal.
// ===========================================

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/user/shortlink/internal/clickmeta"
	"github.com/user/shortlink/internal/config"
	"github.com/user/shortlink/internal/database"
	"github.com/user/shortlink/internal/handler"
	"github.com/user/shortlink/internal/middleware"
	"github.com/user/shortlink/internal/repository"
	"github.com/user/shortlink/internal/service"
)

// Version is set at build time using ldflags.
var Version = "dev"

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stderr).With().Timestamp().Logger()
	cfg := config.Load()
	log.Info().Str("version", Version).Str("port", cfg.Server.Port).Msg("starting shortlink")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	postgres, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to PostgreSQL")
	}
	defer postgres.Close()

	if err := postgres.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to apply database schema")
	}
	log.Info().Msg("PostgreSQL connected")

	redis, err := database.NewRedisDB(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer redis.Close()
	log.Info().Msg("Redis connected")

	var locator clickmeta.Locator = clickmeta.NopLocator{}
	if cfg.Geo.DBPath != "" {
		geo, err := clickmeta.NewGeoIPLocator(cfg.Geo.DBPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Geo.DBPath).Msg("failed to open geolocation database")
		}
		defer geo.Close()
		locator = geo
		log.Info().Str("path", cfg.Geo.DBPath).Msg("geolocation database loaded")
	} else {
		log.Warn().Msg("no geolocation database configured, clicks will have no location")
	}

	linkRepo := repository.NewPostgresLinkRepository(postgres.Pool)

	linkService := service.NewLinkService(
		linkRepo, redis, clickmeta.NewUAParser(), locator,
		cfg.Shortener, cfg.Redis.CacheTTL, log,
	)
	analyticsService := service.NewAnalyticsService(linkRepo, cfg.Shortener, cfg.Analytics)

	linkHandler := handler.NewLinkHandler(linkService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	healthHandler := handler.NewHealthHandler(postgres, redis, Version)

	rateLimiter := middleware.NewRateLimiter(redis, cfg.RateLimit.RequestsPerMinute)
	auth := middleware.NewAuth(cfg.Auth.JWTSecret)

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))

	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/live", healthHandler.Live)

	// The redirect is the hot path: public, rate limited only.
	router.GET("/:alias", rateLimiter.Middleware(), linkHandler.Redirect)

	api := router.Group("/api")
	api.Use(rateLimiter.Middleware())
	api.Use(auth.RequireAuth())
	{
		api.POST("/shorten", linkHandler.Shorten)
		api.GET("/shorten/urls", linkHandler.List)

		api.GET("/analytics/overall", analyticsHandler.Overall)
		api.GET("/analytics/topic/:topic", analyticsHandler.ByTopic)
		api.GET("/analytics/:alias", analyticsHandler.ByAlias)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
