package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tiendaluna/storeapi/internal/api"
	"github.com/tiendaluna/storeapi/internal/config"
	"github.com/tiendaluna/storeapi/internal/mailer"
	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/notify"
	"github.com/tiendaluna/storeapi/internal/repository/postgres"
	"github.com/tiendaluna/storeapi/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Wire dependencies
	repos := postgres.NewRepositories(db, logger)
	gateway := mercadopago.NewClient(cfg.MercadoPago, logger)
	sender := mailer.NewSMTPSender(cfg.SMTP, logger)

	dispatcher := notify.NewDispatcher(
		sender,
		repos.Order,
		func() ([]string, error) { return cfg.Admin.NotificationEmails, nil },
		cfg.Admin.NotificationCacheTTL,
		logger,
	)

	webhookService := service.NewWebhookService(gateway, repos, dispatcher, logger)
	orderService := service.NewOrderService(repos, gateway, dispatcher, logger)

	router := api.NewRouter(cfg, repos, api.Services{
		Webhook:  webhookService,
		Orders:   orderService,
		Admin:    orderService,
		Reloader: dispatcher,
	}, logger)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server stopped", zap.Error(err))
	}
}

func buildLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.Environment != "production" {
		return zap.NewDevelopment()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	return zapCfg.Build()
}
