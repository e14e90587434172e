package console

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.temporal.io/sdk/client"
	"gorm.io/gorm"

	"github.com/Apurer/go-order-console/internal/catalogsync"
	catalogsyncmemory "github.com/Apurer/go-order-console/internal/catalogsync/memory"
	catalogsyncpostgres "github.com/Apurer/go-order-console/internal/catalogsync/postgres"
	"github.com/Apurer/go-order-console/internal/clients/http/orderapi"
	catalogservice "github.com/Apurer/go-order-console/internal/domains/catalog/adapters/external/orderservice"
	checkoutworkflows "github.com/Apurer/go-order-console/internal/domains/checkout/adapters/workflows"
	checkoutports "github.com/Apurer/go-order-console/internal/domains/checkout/ports"
	ordersservice "github.com/Apurer/go-order-console/internal/domains/orders/adapters/external/orderservice"
	ordersobs "github.com/Apurer/go-order-console/internal/domains/orders/adapters/observability"
	"github.com/Apurer/go-order-console/internal/httpapi"
	"github.com/Apurer/go-order-console/internal/pages/admin"
	"github.com/Apurer/go-order-console/internal/pages/storefront"
	"github.com/Apurer/go-order-console/internal/platform/migrations"
	platformobservability "github.com/Apurer/go-order-console/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-order-console/internal/platform/postgres"
	platformtemporal "github.com/Apurer/go-order-console/internal/platform/temporal"
)

// Run boots the console HTTP surface and blocks until ctx is cancelled or the server fails.
func Run(ctx context.Context, cfg Config) error {
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.Observability(cfg.ServiceName))
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	apiClient, err := orderapi.NewClient(cfg.OrderServiceURL, &http.Client{Timeout: cfg.OrderServiceTimeout})
	if err != nil {
		return fmt.Errorf("failed to build order service client: %w", err)
	}
	rawOrders := ordersservice.NewGateway(apiClient)
	gatewayOpts := []ordersobs.Option{
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.gateway")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.gateway")),
	}
	orders := ordersobs.New(rawOrders, gatewayOpts...)
	tracker := ordersobs.NewTracker(rawOrders, gatewayOpts...)
	products := catalogservice.NewGateway(apiClient)

	db, closeDB := platformpostgres.Open(ctx, cfg.PostgresDSN, logger)
	defer closeDB()
	feed, publisher := buildCatalogSync(ctx, cfg, db, logger)
	defer feed.Close()
	defer publisher.Close()

	var pipeline checkoutports.Pipeline = checkoutworkflows.NewInlineCheckout(orders)
	if temporalClient, err := platformtemporal.Dial(cfg.Temporal(), instruments, "temporal-client"); err != nil {
		logger.Warn("Temporal workflows unavailable, running checkout inline", slog.String("error", err.Error()))
	} else {
		defer temporalClient.Close()
		pipeline = checkoutworkflows.NewTemporalCheckout(temporalClient)
		logger.Info("Temporal workflows enabled", slog.String("namespace", namespaceOf(cfg)))
	}

	opts := httpapi.Options{
		ServiceName:    cfg.ServiceName,
		AllowedOrigins: cfg.AllowedOrigins,
		ProblemBaseURI: strings.TrimRight(cfg.ProblemBaseURI, "/"),
		Logger:         logger,
		Storefront: storefront.Deps{
			Products: products,
			Checkout: pipeline,
			Tracker:  tracker,
			Feed:     feed,
			Logger:   logger,
		},
		Admin: admin.Deps{
			Orders:   orders,
			Products: products,
			Notifier: publisher,
			Feed:     feed,
			Logger:   logger,
		},
	}
	server := httpapi.NewServer(opts)
	defer server.Close()
	purgeCtx, stopPurge := context.WithCancel(ctx)
	defer stopPurge()
	if cfg.PageIdleTTL > 0 {
		go server.PurgeIdle(purgeCtx, cfg.PageIdleTTL, cfg.PagePurgeInterval)
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           httpapi.NewRouter(server, opts),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("order console listening", slog.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("order console server exited", slog.String("addr", srv.Addr), slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("order console shutdown incomplete", slog.String("error", err.Error()))
	}
	logger.Info("order console stopped")
	return nil
}

// buildCatalogSync returns the storefront feed and the admin publisher. They are distinct
// Sync instances because each ignores what it published itself. Without a database both
// share an in-process hub.
func buildCatalogSync(ctx context.Context, cfg Config, db *gorm.DB, logger *slog.Logger) (feed, publisher *catalogsync.Sync) {
	var (
		channel catalogsync.Channel
		store   catalogsync.SentinelStore
	)
	if db != nil {
		if err := migrations.Run(db); err != nil {
			logger.Warn("catalog sentinel migration failed", slog.String("error", err.Error()))
		}
		channel = catalogsyncpostgres.NewChannel(db, cfg.PostgresDSN, logger)
		store = catalogsyncpostgres.NewSentinelStore(db,
			catalogsyncpostgres.WithPollInterval(cfg.SentinelPollInterval),
			catalogsyncpostgres.WithLogger(logger),
		)
	} else {
		channel = catalogsyncmemory.NewHub()
		store = catalogsyncmemory.NewSentinelStore()
	}
	build := func(role string) *catalogsync.Sync {
		s := catalogsync.New(
			catalogsync.WithChannel(channel),
			catalogsync.WithSentinelStore(store),
			catalogsync.WithLogger(logger.With(slog.String("catalogsync.role", role))),
		)
		if err := s.Start(ctx); err != nil {
			logger.Warn("catalog sync degraded to focus refetch", slog.String("role", role), slog.String("error", err.Error()))
		}
		return s
	}
	return build("storefront"), build("admin")
}

func namespaceOf(cfg Config) string {
	if cfg.TemporalNamespace != "" {
		return cfg.TemporalNamespace
	}
	return client.DefaultNamespace
}
