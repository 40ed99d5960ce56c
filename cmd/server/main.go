package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/saransh1220/notification-sync/internal/gateway"
	"github.com/saransh1220/notification-sync/internal/modules/notification"
	"github.com/saransh1220/notification-sync/internal/shared/infrastructure/config"
	"github.com/saransh1220/notification-sync/internal/shared/infrastructure/database"
	"github.com/saransh1220/notification-sync/internal/shared/logging"
	"github.com/saransh1220/notification-sync/migrations"
	"github.com/saransh1220/notification-sync/pkg/migration"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{Env: cfg.Log.AppEnv, Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("connecting to database", zap.String("host", cfg.Database.Host), zap.String("db", cfg.Database.DBName))
	db, err := database.NewPostgresDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := migration.AutoMigrate(cfg.Database.DSN(), migrations.FS, logger); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}

	rdb, err := database.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logger.Warn("redis unavailable, pushing to local connections only", zap.Error(err))
	} else {
		defer rdb.Close()
	}

	module, err := notification.NewModule(ctx, db, rdb, logger)
	if err != nil {
		return fmt.Errorf("notification module: %w", err)
	}
	defer module.Shutdown()

	router := gateway.SetupRoutes(gateway.RouterConfig{
		NotificationHandler: module.HTTPHandler(),
		AllowedOrigins:      cfg.Server.AllowedOrigins,
	})

	return gateway.NewServer(cfg.Server.Port, router.Handler(), logger).Start(ctx)
}
