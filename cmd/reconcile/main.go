package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tiendaluna/storeapi/internal/config"
	"github.com/tiendaluna/storeapi/internal/mailer"
	"github.com/tiendaluna/storeapi/internal/mercadopago"
	"github.com/tiendaluna/storeapi/internal/notify"
	"github.com/tiendaluna/storeapi/internal/repository/postgres"
	"github.com/tiendaluna/storeapi/internal/service"
)

// Sweeps orders stuck in a pending status and re-checks them against the
// gateway. Run with -once for the manual-reconciliation case, or without to
// keep a periodic worker alive.
func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	interval := flag.Duration("interval", 5*time.Minute, "sweep interval")
	maxAge := flag.Duration("max-age", 15*time.Minute, "how old a pending order must be to count as stuck")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := buildLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

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

	pipeline := service.NewWebhookService(gateway, repos, dispatcher, logger)
	reconciler := service.NewReconciler(repos, gateway, pipeline, *maxAge, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		if err := reconciler.Sweep(ctx); err != nil {
			logger.Fatal("Sweep failed", zap.Error(err))
		}
		return
	}

	reconciler.Run(ctx, *interval)
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
