package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vitrinelabs/vitrine-backend/api/controllers"
	"github.com/vitrinelabs/vitrine-backend/api/routes"
	"github.com/vitrinelabs/vitrine-backend/internal/bling"
	"github.com/vitrinelabs/vitrine-backend/internal/catalog"
	"github.com/vitrinelabs/vitrine-backend/internal/integrations"
	"github.com/vitrinelabs/vitrine-backend/internal/inventory"
	"github.com/vitrinelabs/vitrine-backend/internal/mercadopago"
	"github.com/vitrinelabs/vitrine-backend/internal/orders"
	"github.com/vitrinelabs/vitrine-backend/internal/reports"
	"github.com/vitrinelabs/vitrine-backend/internal/settings"
	"github.com/vitrinelabs/vitrine-backend/pkg/config"
	"github.com/vitrinelabs/vitrine-backend/pkg/db"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
	"github.com/vitrinelabs/vitrine-backend/pkg/metrics"
	"github.com/vitrinelabs/vitrine-backend/pkg/migrate"
	"github.com/vitrinelabs/vitrine-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "vitrine-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := context.Background()

	var dbClient *db.Client
	if cfg.DB.Configured() || cfg.FeatureFlags.UseSQLite {
		dbClient, err = db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
		if err != nil {
			logg.Error(ctx, "database unavailable", err)
			os.Exit(1)
		}
		defer dbClient.Close()

		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "migrations failed", err)
			os.Exit(1)
		}
	} else {
		logg.Warn(ctx, "no persistent store configured, serving the demo dataset")
	}

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(ctx, cfg.Redis)
		if err != nil {
			// Redis only backs locking and webhook dedupe; run without it.
			logg.Error(ctx, "redis unavailable, continuing without it", err)
			redisClient = nil
		}
	}

	syncMetrics := metrics.NewSyncMetrics(prometheus.DefaultRegisterer)

	var (
		orderSvc     *orders.Service
		catalogSvc   *catalog.Service
		inventorySvc inventory.Service
		settingsSvc  *settings.Service
		syncLogs     integrations.SyncLogRepository
		tokenRepo    integrations.TokenRepository
		orderSource  reports.OrderSource
	)
	if dbClient != nil {
		gdb := dbClient.DB()
		orderSvc = orders.NewService(orders.NewRepository(gdb))
		catalogSvc = catalog.NewService(catalog.NewRepository(gdb))
		inventorySvc, err = inventory.NewService(inventory.NewRepository(gdb))
		if err != nil {
			logg.Error(ctx, "inventory service", err)
			os.Exit(1)
		}
		settingsSvc = settings.NewService(gdb, cfg.Content.FilePath)
		syncLogs = integrations.NewSyncLogRepository(gdb)
		tokenRepo = integrations.NewTokenRepository(gdb)
		orderSource = orderSvc
	} else {
		settingsSvc = settings.NewService(nil, cfg.Content.FilePath)
		orderSource = reports.NewDemoSource()
	}
	reportSvc := reports.NewService(orderSource)

	tokenSource := bling.NewTokenSource(cfg.Bling, tokenRepo, logg)
	blingClient := bling.NewClient(cfg.Bling, tokenSource, logg)
	importer := bling.NewImporter(blingClient, catalogSvc, inventorySvc, syncLogs, syncMetrics, logg)

	mpClient := mercadopago.NewClient(cfg.MercadoPago)
	var dedupe mercadopago.IdempotencyStore
	if redisClient != nil {
		dedupe = redisClient
	}
	webhookSvc := mercadopago.NewWebhookService(mpClient, orderSvc, blingClient, dedupe, logg)

	var locker controllers.Locker
	if redisClient != nil {
		locker = redisClient
	}
	var dbPinger, redisPinger controllers.Pinger
	if dbClient != nil {
		dbPinger = dbClient
	}
	if redisClient != nil {
		redisPinger = redisClient
	}

	handler := routes.New(routes.Controllers{
		Orders:   controllers.NewOrdersController(reportSvc, orderSvc, logg),
		Products: controllers.NewProductsController(catalogSvc, inventorySvc, logg),
		Bling:    controllers.NewBlingController(importer, tokenSource, syncLogs, locker, cfg.App, logg),
		Webhooks: controllers.NewWebhooksController(webhookSvc, cfg.MercadoPago, logg),
		Settings: controllers.NewSettingsController(settingsSvc, logg),
		Health:   controllers.NewHealthController(dbPinger, redisPinger, logg),
	}, logg)

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info(ctx, "listening on "+server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "server stopped", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logg.Info(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logg.Error(ctx, "shutdown", err)
	}
}
