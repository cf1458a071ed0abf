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
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/platehub-backend/api/controllers"
	"github.com/angelmondragon/platehub-backend/api/routes"
	"github.com/angelmondragon/platehub-backend/internal/idempotency"
	"github.com/angelmondragon/platehub-backend/internal/ledger"
	"github.com/angelmondragon/platehub-backend/internal/menu"
	"github.com/angelmondragon/platehub-backend/internal/notifications"
	"github.com/angelmondragon/platehub-backend/internal/orders"
	"github.com/angelmondragon/platehub-backend/internal/payouts"
	"github.com/angelmondragon/platehub-backend/internal/vendors"
	"github.com/angelmondragon/platehub-backend/pkg/config"
	"github.com/angelmondragon/platehub-backend/pkg/db"
	"github.com/angelmondragon/platehub-backend/pkg/instance"
	"github.com/angelmondragon/platehub-backend/pkg/logger"
	"github.com/angelmondragon/platehub-backend/pkg/metrics"
	"github.com/angelmondragon/platehub-backend/pkg/migrate"
	"github.com/angelmondragon/platehub-backend/pkg/pubsub"
	"github.com/angelmondragon/platehub-backend/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	var pubsubClient *pubsub.Client
	if cfg.PubSub.Enabled {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	}

	store, err := idempotencyStore(cfg, dbClient, redisClient)
	if err != nil {
		return err
	}
	guard, err := idempotency.NewGuard(store, idempotency.Options{
		TTL:          cfg.Idempotency.TTL,
		WaitTimeout:  cfg.Idempotency.WaitTimeout,
		PollInterval: cfg.Idempotency.PollInterval,
	}, logg)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	conn := dbClient.DB()
	vendorRepo := vendors.NewRepository(conn)
	menuRepo := menu.NewRepository(conn)

	ledgerService, err := ledger.NewService(ledger.NewRepository(conn))
	if err != nil {
		return err
	}
	vendorService, err := vendors.NewService(vendorRepo, cfg.Ledger.CommissionRate(), logg)
	if err != nil {
		return err
	}

	notificationsRepo := notifications.NewRepository(conn)
	var publisher notifications.Publisher
	if topic := pubsubClient.NotificationsPublisher(); topic != nil {
		publisher = topic
		defer topic.Stop()
	}
	dispatcher, err := notifications.NewDispatcher(notificationsRepo, publisher, logg)
	if err != nil {
		return err
	}
	notificationsService, err := notifications.NewService(notificationsRepo)
	if err != nil {
		return err
	}

	orderService, err := orders.NewService(orders.Dependencies{
		Repo:     orders.NewRepository(conn),
		Tx:       dbClient,
		Vendors:  vendorRepo,
		Menu:     menuRepo,
		Notifier: dispatcher,
		Ledger:   ledgerService,
		Guard:    guard,
		Metrics:  metrics.NewOrderMetrics(registry),
		Logger:   logg,
	}, orders.Options{
		TransitionTimeout: cfg.Orders.TransitionTimeout,
		NotifyTimeout:     cfg.Orders.NotifyTimeout,
	})
	if err != nil {
		return err
	}

	payoutService, err := payouts.NewService(payouts.ServiceParams{
		Repo:        payouts.NewRepository(conn),
		Tx:          dbClient,
		Vendors:     vendorRepo,
		Ledger:      ledgerService,
		Metrics:     metrics.NewPayoutMetrics(registry),
		Logger:      logg,
		DefaultRate: cfg.Ledger.CommissionRate(),
	})
	if err != nil {
		return err
	}

	readiness := []controllers.Dependency{{Name: "db", Pinger: dbClient}}
	if redisClient != nil {
		readiness = append(readiness, controllers.Dependency{Name: "redis", Pinger: redisClient})
	}
	if pubsubClient != nil {
		readiness = append(readiness, controllers.Dependency{Name: "pubsub", Pinger: pubsubClient})
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":                 cfg.App.Env,
		"addr":                addr,
		"instance":            instance.GetID(),
		"idempotency_backend": cfg.FeatureFlags.IdempotencyBackend,
		"pubsub_enabled":      cfg.PubSub.Enabled,
	})

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, registry, routes.Services{
			Orders:        orderService,
			Payouts:       payoutService,
			Vendors:       vendorService,
			Menu:          menuRepo,
			Notifications: notificationsService,
		}, readiness...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(serverCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(serverCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func idempotencyStore(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client) (idempotency.Store, error) {
	if cfg.FeatureFlags.IdempotencyBackend == config.IdempotencyBackendRedis && redisClient != nil {
		return idempotency.NewRedisStore(redisClient)
	}
	return idempotency.NewDBStore(dbClient.DB())
}
