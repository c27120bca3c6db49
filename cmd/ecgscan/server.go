package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
	"github.com/terraincognita07/ecgscan/internal/api"
	"github.com/terraincognita07/ecgscan/internal/cli"
	"github.com/terraincognita07/ecgscan/internal/config"
	"github.com/terraincognita07/ecgscan/internal/i18n"
	"github.com/terraincognita07/ecgscan/internal/realtime"
	"github.com/terraincognita07/ecgscan/internal/services"
	"github.com/terraincognita07/ecgscan/internal/storage"
)

const (
	shutdownTimeout = 10 * time.Second
	uploadsPrefix   = "/uploads"
	bodyLimitBytes  = 12 << 20
)

func runServer(ctx context.Context, cfg config.Config, log *logrus.Logger) error {
	location := mustLoadLocation(cfg.TZ, log)
	time.Local = location

	secretKey, err := cfg.ResolveSecretKey()
	if err != nil {
		return err
	}

	database, err := cli.OpenDatabase(cfg, log)
	if err != nil {
		return err
	}

	translations, err := i18n.NewManager(cfg.DefaultLanguage)
	if err != nil {
		return fmt.Errorf("i18n init failed: %w", err)
	}

	lifecycleCtx, cancelLifecycle := context.WithCancel(ctx)
	defer cancelLifecycle()

	blobs, disk, err := openBlobStore(lifecycleCtx, cfg)
	if err != nil {
		return err
	}
	broker, err := openBroker(lifecycleCtx, cfg, log)
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(api.BuildDependencies(database, blobs, broker, translations, log), secretKey, cfg.CookieSecure)
	if err != nil {
		return fmt.Errorf("handler init failed: %w", err)
	}
	handler.BindLifecycle(lifecycleCtx)

	app := newApp(handler, disk)

	go func() {
		<-ctx.Done()
		cancelLifecycle()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.WithError(err).Error("server shutdown failed")
		}
	}()

	log.WithFields(logrus.Fields{
		"port":      cfg.Port,
		"db_driver": cfg.DBDriver,
		"tz":        location.String(),
		"minio":     cfg.UsesMinIO(),
		"redis":     cfg.UsesRedis(),
	}).Info("ecgscan listening")
	return app.Listen(":" + cfg.Port)
}

func newApp(handler *api.Handler, disk *storage.Disk) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "ecgscan",
		DisableStartupMessage: true,
		BodyLimit:             bodyLimitBytes,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New(compressConfig()))

	if disk != nil {
		app.Static(disk.PublicPrefix(), disk.Root())
	}
	api.RegisterRoutes(app, handler)
	app.Use(handler.NotFound)
	return app
}

// compressConfig leaves event streams alone; compression would buffer them.
func compressConfig() compress.Config {
	return compress.Config{
		Next: func(c *fiber.Ctx) bool {
			return strings.HasSuffix(c.Path(), "/stream")
		},
	}
}

// openBlobStore prefers MinIO and falls back to local disk when no endpoint
// is configured. The disk store is returned so its files can be served.
func openBlobStore(ctx context.Context, cfg config.Config) (services.BlobStore, *storage.Disk, error) {
	if cfg.UsesMinIO() {
		store, err := storage.NewMinIO(ctx, storage.MinIOOptions{
			Endpoint:   cfg.MinIOEndpoint,
			AccessKey:  cfg.MinIOAccessKey,
			SecretKey:  cfg.MinIOSecretKey,
			Bucket:     cfg.MinIOBucket,
			UseSSL:     cfg.MinIOUseSSL,
			PublicBase: cfg.MinIOPublicBase,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("minio init failed: %w", err)
		}
		return store, nil, nil
	}

	disk, err := storage.NewDisk(cfg.UploadsDir, uploadsPrefix)
	if err != nil {
		return nil, nil, err
	}
	return disk, disk, nil
}

// openBroker uses Redis pub/sub when configured so several instances share
// live chat; a single instance delivers through the in-process hub.
func openBroker(ctx context.Context, cfg config.Config, log *logrus.Logger) (services.MessageBroker, error) {
	hub := realtime.NewHub(log)
	if !cfg.UsesRedis() {
		return hub, nil
	}

	bus, err := realtime.NewRedisBus(ctx, realtime.RedisOptions{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, hub, log)
	if err != nil {
		return nil, fmt.Errorf("redis init failed: %w", err)
	}

	go func() {
		defer bus.Close()
		if err := bus.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.WithError(err).Error("redis chat relay stopped")
		}
	}()
	return bus, nil
}

func mustLoadLocation(name string, log logrus.FieldLogger) *time.Location {
	location, err := time.LoadLocation(name)
	if err != nil {
		log.WithField("tz", name).Warn("invalid TZ, falling back to UTC")
		return time.UTC
	}
	return location
}
