package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"

	"github.com/autokatalog/autokatalog/backend/go-services/handlers"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/assets"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/catalog"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/database"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/models"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/moderation"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/storage"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/tokens"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/users"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/metrics"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// LOG_LEVEL may also come from .env; re-applied once the config is loaded
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Init(cfg.LogLevel)
	logger.Infof("config loaded: store=%s assets=%s mongo=%v redis=%v", cfg.Storage.Backend, cfg.Storage.AssetBackend, cfg.MongoDB.URI != "", cfg.Redis.Host != "")
	if cfg.JWT.Secret == "" {
		logger.Fatalf("JWT_SECRET must be set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conns, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("failed to connect: %v", err)
	}
	defer conns.Close(context.Background())

	backend, err := conns.Backend()
	if err != nil {
		logger.Fatalf("document store: %v", err)
	}
	store := docstore.New(backend, logger.Named("docstore"))

	assetStore, err := openAssets(ctx, cfg)
	if err != nil {
		logger.Fatalf("asset storage: %v", err)
	}

	cat := catalog.New(store)
	pipeline := moderation.New(store, assets.NewReconciler(assetStore, logger.Named("assets")), cat, logger.Named("moderation"))
	usersSvc := users.NewService(store)
	sessionsSvc := sessions.NewService(conns.SessionRepository(), cfg.Session.IdleTimeout)

	if cfg.Admin.Password != "" {
		created, err := usersSvc.EnsureAdmin(ctx, cfg.Admin.User, cfg.Admin.Password, models.Role(cfg.Admin.Role))
		if err != nil {
			logger.Fatalf("ensure admin account: %v", err)
		}
		logger.Infof("admin account %q ready (created=%v)", cfg.Admin.User, created)
	}

	// nothing is being submitted yet, so every unknown owner directory is an orphan
	if removed, err := pipeline.Repair(ctx); err != nil {
		logger.Warnf("asset repair pass failed: %v", err)
	} else if len(removed) > 0 {
		logger.Infof("asset repair removed %d directories", len(removed))
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	// Lightweight CORS middleware: set common headers and respond to OPTIONS.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness: the collections must be readable and every connected server must answer
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}
		_, err := cat.Brands(c.Request.Context())
		deps["store"] = err == nil
		for name, err := range conns.Ping(c.Request.Context()) {
			deps[name] = err == nil
		}
		for _, ok := range deps {
			ready = ready && ok
		}
		uptime := time.Since(startTime).String()
		if !ready {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "deps": deps, "uptime": uptime})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "deps": deps, "uptime": uptime})
	})

	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterSwagger(r)
	api := &handlers.API{
		Config:   cfg,
		Catalog:  cat,
		Pipeline: pipeline,
		Users:    usersSvc,
		Sessions: sessionsSvc,
		Verifier: tokens.NewVerifier(cfg),
		Assets:   assetStore,
		Limit:    rateLimiter(cfg, conns.Redis),
	}
	api.Register(r)
	handlers.RegisterFrontend(r, cfg.Storage.PublicDir)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		logger.Infof("starting catalog service on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Infof("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warnf("graceful shutdown failed: %v", err)
	}
}

func openAssets(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	if cfg.Storage.AssetBackend == config.AssetsMinIO {
		logger.Infof("storing assets in MinIO bucket %s", cfg.MinIO.Bucket)
		s, err := storage.NewMinIOStorage(ctx, &cfg.MinIO)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, err
	}
	logger.Infof("storing assets in %s", cfg.Storage.UploadDir)
	return storage.NewLocalStorage(afero.NewOsFs(), cfg.Storage.UploadDir), nil
}

// rateLimiter returns nil when rate limiting is disabled.
func rateLimiter(cfg *config.Config, client *redis.Client) func(scope string) gin.HandlerFunc {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	if cfg.RateLimit.UseRedis && client != nil {
		win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
		return func(scope string) gin.HandlerFunc {
			return middleware.RedisRateLimitMiddleware(client, scope, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win)
		}
	}
	return func(scope string) gin.HandlerFunc {
		return middleware.RateLimitMiddleware(scope, cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}
}
