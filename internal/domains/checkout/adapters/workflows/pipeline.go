package workflows

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	"github.com/Apurer/go-order-console/internal/domains/checkout/ports"
	checkoutworkflows "github.com/Apurer/go-order-console/internal/platform/temporal/workflows/checkout"
)

var (
	_ ports.Pipeline = (*TemporalCheckout)(nil)
	_ ports.Pipeline = (*InlineCheckout)(nil)
)

// TemporalCheckout runs checkouts as Temporal workflows.
type TemporalCheckout struct {
	client    client.Client
	taskQueue string
}

// NewTemporalCheckout wires a Temporal client into the pipeline.
func NewTemporalCheckout(c client.Client) *TemporalCheckout {
	return &TemporalCheckout{client: c, taskQueue: checkoutworkflows.CheckoutTaskQueue}
}

// Run starts the checkout workflow and waits for its outcome. A repeated idempotency key
// joins the run already started for it instead of creating the orders again.
func (p *TemporalCheckout) Run(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if p == nil || p.client == nil {
		return domain.Outcome{}, errors.New("temporal checkout not configured")
	}
	traceComponent := workflowTraceComponent(ctx)
	workflowID := buildCheckoutWorkflowID(req, traceComponent)
	options := client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: p.taskQueue,
	}
	run, err := p.client.ExecuteWorkflow(
		ctx,
		options,
		checkoutworkflows.CheckoutWorkflowName,
		checkoutworkflows.CheckoutWorkflowInput{Request: req, TraceID: traceComponent},
	)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if errors.As(err, &alreadyStarted) && strings.TrimSpace(req.IdempotencyKey) != "" {
			var outcome domain.Outcome
			if err := p.client.GetWorkflow(ctx, workflowID, alreadyStarted.RunId).Get(ctx, &outcome); err != nil {
				return domain.Outcome{}, err
			}
			return outcome, nil
		}
		return domain.Outcome{}, err
	}
	var outcome domain.Outcome
	if err := run.Get(ctx, &outcome); err != nil {
		return domain.Outcome{}, err
	}
	return outcome, nil
}

// InlineCheckout creates the orders in-process, for tests and deployments without Temporal.
type InlineCheckout struct {
	creator ports.OrderCreator
}

// NewInlineCheckout wraps an order creator for synchronous execution.
func NewInlineCheckout(creator ports.OrderCreator) *InlineCheckout {
	return &InlineCheckout{creator: creator}
}

// Run creates the lines in order and stops at the first failure.
func (p *InlineCheckout) Run(ctx context.Context, req domain.Request) (domain.Outcome, error) {
	if p == nil || p.creator == nil {
		return domain.Outcome{}, errors.New("inline checkout not configured")
	}
	outcome := domain.Outcome{}
	for index, line := range req.Lines {
		order, err := p.creator.CreateOrder(ctx, req.Customer.Credentials, line.Draft(req.Customer.Name, req.OrderDate))
		if err != nil {
			outcome.Failure = domain.NewFailure(index, line, err)
			return outcome, nil
		}
		outcome.Created = append(outcome.Created, order)
	}
	return outcome, nil
}

func buildCheckoutWorkflowID(req domain.Request, traceComponent string) string {
	if key := strings.TrimSpace(req.IdempotencyKey); key != "" {
		return fmt.Sprintf("checkout-idem-%s", hashIdempotencyKey(key))
	}
	return fmt.Sprintf("checkout-%d-%s", time.Now().UnixNano(), traceComponent)
}

func hashIdempotencyKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func workflowTraceComponent(ctx context.Context) string {
	if traceID := workflowTraceID(ctx); traceID != "" {
		return traceID
	}
	return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
}

func workflowTraceID(ctx context.Context) string {
	spanCtx := oteltrace.SpanFromContext(ctx).SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}
