package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamification-rewards/config"
	"gamification-rewards/handlers"
	"gamification-rewards/middleware"
	"gamification-rewards/repository"
	"gamification-rewards/services"
	"gamification-rewards/utils"
	"gamification-rewards/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	setupLogging()

	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, reading environment variables directly")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := log.ParseLevel(cfg.AppLogLevel); err == nil {
		log.SetLevel(level)
	}
	logger := log.StandardLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		log.WithError(err).Fatal("Failed to open reward store")
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.WithError(err).Warn("Failed to close reward store")
		}
	}()

	clock := services.SystemClock{Location: cfg.Location()}
	rewardService := services.NewRewardService(store, clock, logger)

	app := fiber.New(fiber.Config{
		AppName:      "gamification-rewards",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	})

	app.Use(recover.New())
	app.Use(middleware.RequestLogger(logger))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-Service-Token",
		MaxAge:       86400,
	}))
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, logger, "/healthz"))

	handlers.SetupHealthRoutes(app)
	handlers.SetupRewardRoutes(app, rewardService, cfg.LeaderboardDefaultLimit, logger)

	if cfg.R2Enabled() {
		uploader, err := utils.NewR2Uploader(ctx, utils.R2Config{
			AccountID:       cfg.CloudflareAccountID,
			AccessKeyID:     cfg.R2AccessKeyID,
			AccessKeySecret: cfg.R2AccessKeySecret,
			Bucket:          cfg.R2BucketName,
			CDNBaseURL:      cfg.CDNBaseURL,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize R2 client")
		}
		exporter := workers.NewSnapshotExporter(rewardService, uploader, clock, cfg.SnapshotLimit, logger)
		sched, err := services.StartSnapshotScheduler(ctx, cfg.SnapshotInterval, true, exporter.Export, logger)
		if err != nil {
			log.WithError(err).Fatal("Failed to start snapshot scheduler")
		}
		defer func() {
			if err := sched.Shutdown(); err != nil {
				log.WithError(err).Warn("Snapshot scheduler shutdown")
			}
		}()
		log.WithField("interval", cfg.SnapshotInterval.String()).Info("Leaderboard snapshots enabled")
	} else {
		log.Info("R2 not configured, leaderboard snapshots disabled")
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.WithError(err).Error("Server error")
			stop()
		}
	}()

	log.WithFields(log.Fields{
		"addr":     cfg.HTTPAddr,
		"store":    cfg.StoreDriver,
		"timezone": cfg.AppTimezone,
	}).Info("Rewards service running")

	<-ctx.Done()
	log.Info("Shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Warn("Server shutdown")
	}
}

func setupLogging() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.InfoLevel)
}

// openStore returns the configured backend and its close func.
func openStore(cfg *config.Config, logger *log.Logger) (repository.StateStore, func() error, error) {
	switch cfg.StoreDriver {
	case config.DriverGorm:
		store, err := repository.OpenGorm(cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		return store, store.Close, nil
	case config.DriverSQLite:
		store, err := repository.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.DriverMemory:
		log.Warn("Using in-memory store, state is lost on restart")
		return repository.NewMemoryStore(), func() error { return nil }, nil
	}
	return nil, nil, errors.New("unknown store driver " + cfg.StoreDriver)
}
