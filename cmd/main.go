package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"ogp-service/internal/auth"
	"ogp-service/internal/config"
	"ogp-service/internal/handlers"
	"ogp-service/internal/metadata"
	"ogp-service/internal/render"
	"ogp-service/internal/services"
	"ogp-service/internal/storage"
	"ogp-service/internal/utils"
)

func main() {
	// load config
	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		panic(err)
	}
	dev := cfg.App.Env == "development"

	// logger
	logger, _ := utils.NewLogger(dev)
	defer func() { _ = logger.Sync() }()

	// Redis metadata store
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatalf("redis connect: %v", err)
	}
	meta := metadata.NewRedisStore(rdb, cfg.MetadataTTL, logger)

	// S3 blob store
	blobs, err := storage.NewS3Store(context.Background(), cfg.AWS.Region, cfg.AWS.Bucket, cfg.AWS.Endpoint)
	if err != nil {
		logger.Fatalf("s3 init: %v", err)
	}

	// render pipeline + service
	renderer := render.NewRenderer(cfg.Ogp.FontURL, logger)
	svc := services.NewOgpService(meta, blobs, renderer, cfg.Ogp.Prerender, cfg.App.BaseURL, logger)

	// JWT verifier for the cleanup endpoint; optional
	var verifier *auth.JWTVerifier
	if cfg.JWT.PublicKeyPath != "" {
		verifier, err = auth.NewJWTVerifier(cfg.JWT.PublicKeyPath)
		if err != nil {
			logger.Fatalf("jwt init: %v", err)
		}
	}

	// fiber app & routes
	app := fiber.New(fiber.Config{
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    4 * 1024 * 1024,
	})
	h := handlers.NewHandler(svc, verifier, logger)
	app.Post("/api/ogp", h.Create)
	app.Get("/api/ogp/:id", h.Image)
	app.Get("/api/ogp/:id/meta", h.Metadata)
	if verifier != nil {
		app.Delete("/api/ogp/:id", h.Delete)
	}
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	// start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.App.Port)
		logger.Infof("starting ogp service on %s", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("listen failed: %v", err)
		}
	}()

	// graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	logger.Info("shutdown requested")
	_ = app.ShutdownWithTimeout(cfg.ShutdownTimeout)
	_ = rdb.Close()
	logger.Info("shutdown completed")
}
