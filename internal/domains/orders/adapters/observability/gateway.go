package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

const tracerName = "github.com/Apurer/go-order-console/internal/domains/orders/adapters/observability/gateway"

// Gateway decorates the order gateway with tracing, logging, and metrics.
type Gateway struct {
	inner   ports.Gateway
	tracker ports.Tracker
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics gatewayMetrics
}

type Option func(*Gateway)

func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		g.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(g *Gateway) {
		g.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(g *Gateway) {
		g.metrics = newGatewayMetrics(m)
	}
}

// New wraps an order gateway.
func New(inner ports.Gateway, opts ...Option) ports.Gateway {
	return build(inner, nil, opts)
}

// NewTracker wraps the public tracking lookup with the same instrumentation.
func NewTracker(inner ports.Tracker, opts ...Option) ports.Tracker {
	return build(nil, inner, opts)
}

func build(inner ports.Gateway, tracker ports.Tracker, opts []Option) *Gateway {
	g := &Gateway{
		inner:   inner,
		tracker: tracker,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newGatewayMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	if g.tracer == nil {
		g.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return g
}

func (g *Gateway) ListOrders(ctx context.Context, creds authdomain.Credentials) ([]domain.Order, error) {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.ListOrders", trace.WithAttributes(attribute.String("auth.username", creds.Username)))
	defer span.End()

	orders, err := g.inner.ListOrders(ctx, creds)
	g.metrics.recordCall(ctx, "list", err)
	if err != nil {
		return nil, g.handleError(ctx, span, err, "failed to load orders", slog.String("auth.username", creds.Username))
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	g.logDebug(ctx, "orders loaded", slog.Int("orders.count", len(orders)))
	return orders, nil
}

func (g *Gateway) CreateOrder(ctx context.Context, creds authdomain.Credentials, draft domain.Draft) (domain.Order, error) {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.CreateOrder",
		trace.WithAttributes(attribute.String("order.product_name", draft.ProductName), attribute.Int("order.quantity", draft.Quantity)))
	defer span.End()

	order, err := g.inner.CreateOrder(ctx, creds, draft)
	g.metrics.recordCall(ctx, "create", err)
	if err != nil {
		return domain.Order{}, g.handleError(ctx, span, err, "failed to create order", slog.String("order.product_name", draft.ProductName))
	}
	span.SetAttributes(attribute.Int64("order.id", order.ID))
	g.logInfo(ctx, "order created", slog.Int64("order.id", order.ID), slog.String("price", draft.Price.StringFixed(2)))
	return order, nil
}

func (g *Gateway) UpdateOrder(ctx context.Context, creds authdomain.Credentials, id int64, draft domain.Draft) error {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.UpdateOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := g.inner.UpdateOrder(ctx, creds, id, draft)
	g.metrics.recordCall(ctx, "update", err)
	if err != nil {
		return g.handleError(ctx, span, err, "failed to update order", slog.Int64("order.id", id))
	}
	g.logInfo(ctx, "order updated", slog.Int64("order.id", id))
	return nil
}

func (g *Gateway) UpdateStatus(ctx context.Context, creds authdomain.Credentials, id int64, status domain.Status) error {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.UpdateStatus",
		trace.WithAttributes(attribute.Int64("order.id", id), attribute.String("order.status", string(status))))
	defer span.End()

	err := g.inner.UpdateStatus(ctx, creds, id, status)
	g.metrics.recordCall(ctx, "status", err)
	if err != nil {
		return g.handleError(ctx, span, err, "failed to update order status", slog.Int64("order.id", id))
	}
	g.metrics.recordTransition(ctx, status)
	g.logInfo(ctx, "order status updated", slog.Int64("order.id", id), slog.String("status", string(status)))
	return nil
}

func (g *Gateway) CancelOrder(ctx context.Context, creds authdomain.Credentials, id int64) error {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.CancelOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := g.inner.CancelOrder(ctx, creds, id)
	g.metrics.recordCall(ctx, "cancel", err)
	if err != nil {
		return g.handleError(ctx, span, err, "failed to cancel order", slog.Int64("order.id", id))
	}
	g.metrics.recordTransition(ctx, domain.StatusCancelled)
	g.logInfo(ctx, "order cancelled", slog.Int64("order.id", id))
	return nil
}

func (g *Gateway) DeleteOrder(ctx context.Context, creds authdomain.Credentials, id int64) error {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.DeleteOrder", trace.WithAttributes(attribute.Int64("order.id", id)))
	defer span.End()

	err := g.inner.DeleteOrder(ctx, creds, id)
	g.metrics.recordCall(ctx, "delete", err)
	if err != nil {
		return g.handleError(ctx, span, err, "failed to delete order", slog.Int64("order.id", id))
	}
	g.logInfo(ctx, "order deleted", slog.Int64("order.id", id))
	return nil
}

func (g *Gateway) TrackOrder(ctx context.Context, orderID string) (domain.Tracking, error) {
	ctx, span := g.tracer.Start(ctx, "OrderGateway.TrackOrder", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	tracking, err := g.tracker.TrackOrder(ctx, orderID)
	g.metrics.recordCall(ctx, "track", err)
	if err != nil {
		return domain.Tracking{}, g.handleError(ctx, span, err, "failed to track order", slog.String("order.id", orderID))
	}
	span.SetAttributes(attribute.String("order.status", tracking.Status))
	g.logDebug(ctx, "order tracked", slog.String("order.id", orderID), slog.String("order.status", tracking.Status))
	return tracking, nil
}

func (g *Gateway) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if g.logger == nil {
		return
	}
	g.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (g *Gateway) logDebug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if g.logger == nil {
		return
	}
	g.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (g *Gateway) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	if status := apierrors.StatusCode(err); status != 0 {
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		attrs = append(attrs, slog.Int("upstream.status", status))
	}
	if g.logger != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		g.logger.LogAttrs(ctx, slog.LevelWarn, msg, attrs...)
	}
	return err
}

type gatewayMetrics struct {
	calls       metric.Int64Counter
	transitions metric.Int64Counter
}

func newGatewayMetrics(m metric.Meter) gatewayMetrics {
	if m == nil {
		return gatewayMetrics{}
	}
	calls, _ := m.Int64Counter("orders.gateway.calls", metric.WithDescription("Order service calls by operation and outcome"))
	transitions, _ := m.Int64Counter("orders.gateway.status_transitions", metric.WithDescription("Status changes accepted by the order service"))
	return gatewayMetrics{calls: calls, transitions: transitions}
}

func (m gatewayMetrics) recordCall(ctx context.Context, op string, err error) {
	if m.calls == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.calls.Add(ctx, 1, metric.WithAttributes(attribute.String("operation", op), attribute.String("outcome", outcome)))
}

func (m gatewayMetrics) recordTransition(ctx context.Context, status domain.Status) {
	if m.transitions != nil {
		m.transitions.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

var (
	_ ports.Gateway = (*Gateway)(nil)
	_ ports.Tracker = (*Gateway)(nil)
)
