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
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"jewelry-catalog/internal/cache"
	"jewelry-catalog/internal/config"
	"jewelry-catalog/internal/database"
	"jewelry-catalog/internal/handlers"
	"jewelry-catalog/internal/logger"
	"jewelry-catalog/internal/media"
	"jewelry-catalog/internal/repository"
	"jewelry-catalog/internal/routes"
	"jewelry-catalog/internal/services"
)

func main() {
	if err := run(); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := database.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Timeout)
	if err != nil {
		return err
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(disconnectCtx); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect failed")
		}
	}()

	db := client.Database(cfg.Mongo.DB)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	host, err := newMediaHost(ctx, cfg.Media)
	if err != nil {
		return err
	}

	checks := map[string]handlers.HealthCheck{
		"mongo": func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
	}
	store, closeCache, err := newCache(ctx, cfg.Cache, checks)
	if err != nil {
		return err
	}
	defer closeCache()

	categoryRepo := repository.NewCategoryRepository(db.Collection(database.CategoriesCollection))
	productRepo := repository.NewProductRepository(db.Collection(database.ProductsCollection), database.CategoriesCollection)
	wishlistRepo := repository.NewWishlistRepository(db.Collection(database.WishlistsCollection))
	outboxRepo := repository.NewOutboxRepository(db.Collection(database.MediaOutboxCollection))

	gateway := media.NewGateway(host, cfg.Media.Folder, cfg.Media.MaxInlineBytes)
	janitor := media.NewJanitor(host, outboxRepo, cfg.Media.OutboxBatchLimit)
	go janitor.Run(ctx, cfg.Media.OutboxInterval)

	categorySvc := services.NewCategoryService(categoryRepo, productRepo, gateway, janitor, store, cfg.Cache.TTL)
	productSvc := services.NewProductService(productRepo, categoryRepo, wishlistRepo, gateway, janitor, store, cfg.Cache.TTL)
	wishlistSvc := services.NewWishlistService(wishlistRepo, productRepo)

	limits := handlers.UploadLimits{MaxFileBytes: cfg.Media.MaxUploadBytes}
	router := routes.NewRouter(routes.Handlers{
		Categories: handlers.NewCategoryHandler(categorySvc, limits),
		Products:   handlers.NewProductHandler(productSvc, limits),
		Wishlist:   handlers.NewWishlistHandler(wishlistSvc),
		Health:     handlers.NewHealthHandler(checks),
	}, cfg.Media.MaxUploadBytes)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("port", cfg.App.Port).
			Str("environment", cfg.App.Environment).
			Str("media_provider", cfg.Media.Provider).
			Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	log.Info().Msg("server exited")
	return nil
}

// newMediaHost construye el host de imágenes configurado; nil si no hay ninguno
func newMediaHost(ctx context.Context, cfg config.MediaConfig) (media.Host, error) {
	switch cfg.Provider {
	case config.MediaProviderCloudinary:
		host, err := media.NewCloudinary(cfg.CloudinaryURL, cfg.MaxWidth, cfg.MaxHeight)
		if err != nil {
			return nil, err
		}
		return host, nil
	case config.MediaProviderMinIO:
		host, err := media.NewMinIO(ctx, media.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			Bucket:    cfg.MinIO.Bucket,
			UseSSL:    cfg.MinIO.UseSSL,
			PublicURL: cfg.MinIO.PublicURL,
			MaxWidth:  cfg.MaxWidth,
			MaxHeight: cfg.MaxHeight,
		})
		if err != nil {
			return nil, err
		}
		return host, nil
	default:
		log.Warn().Msg("no image host configured, product images will be stored inline")
		return nil, nil
	}
}

// newCache usa Redis si hay REDIS_URL y si no una caché en memoria; CACHE_TTL<=0 la desactiva
func newCache(ctx context.Context, cfg config.CacheConfig, checks map[string]handlers.HealthCheck) (cache.Store, func(), error) {
	if cfg.TTL <= 0 {
		log.Info().Msg("cache disabled")
		return cache.Noop{}, func() {}, nil
	}
	if cfg.RedisURL == "" {
		memory := cache.NewMemory(cfg.TTL, time.Minute)
		return memory, memory.Close, nil
	}

	redisStore, err := cache.NewRedis(ctx, cfg.RedisURL, "jewelry", cfg.TTL)
	if err != nil {
		return nil, nil, err
	}
	checks["redis"] = redisStore.Ping
	return redisStore, func() {
		if err := redisStore.Close(); err != nil {
			log.Warn().Err(err).Msg("redis close failed")
		}
	}, nil
}
