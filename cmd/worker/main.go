package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-order-console/internal/app/console"
	"github.com/Apurer/go-order-console/internal/clients/http/orderapi"
	ordersservice "github.com/Apurer/go-order-console/internal/domains/orders/adapters/external/orderservice"
	ordersobs "github.com/Apurer/go-order-console/internal/domains/orders/adapters/observability"
	platformobservability "github.com/Apurer/go-order-console/internal/platform/observability"
	platformtemporal "github.com/Apurer/go-order-console/internal/platform/temporal"
	checkoutactivities "github.com/Apurer/go-order-console/internal/platform/temporal/activities/checkout"
	checkoutworkflows "github.com/Apurer/go-order-console/internal/platform/temporal/workflows/checkout"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("failed to load .env: %v", err)
	}
	cfg, err := console.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	ctx := context.Background()
	instruments, shutdown, err := platformobservability.Init(ctx, cfg.Observability(cfg.ServiceName+"-worker"))
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
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
		logger.Error("failed to build order service client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	orders := ordersobs.New(
		ordersservice.NewGateway(apiClient),
		ordersobs.WithLogger(logger),
		ordersobs.WithTracer(instruments.Tracer("internal.orders.gateway")),
		ordersobs.WithMeter(instruments.Meter("internal.orders.gateway")),
	)
	orderActivities := checkoutactivities.NewActivities(orders)

	settings := cfg.Temporal()
	settings.Disabled = false
	temporalClient, err := platformtemporal.Dial(settings, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, checkoutworkflows.CheckoutTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(checkoutworkflows.CheckoutWorkflow, workflow.RegisterOptions{Name: checkoutworkflows.CheckoutWorkflowName})
	w.RegisterActivityWithOptions(orderActivities.CreateOrder, activity.RegisterOptions{Name: checkoutactivities.CreateOrderActivityName})

	namespace := cfg.TemporalNamespace
	if namespace == "" {
		namespace = client.DefaultNamespace
	}
	logger.Info("worker listening", slog.String("taskQueue", checkoutworkflows.CheckoutTaskQueue), slog.String("namespace", namespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
