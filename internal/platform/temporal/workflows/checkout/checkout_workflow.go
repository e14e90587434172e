package checkout

import (
	"go.temporal.io/sdk/workflow"

	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	"github.com/Apurer/go-order-console/internal/platform/temporal/sequences"
)

const (
	// CheckoutWorkflowName is the public identifier for registering the workflow.
	CheckoutWorkflowName = "checkout.workflows.PlaceOrders"
	// CheckoutTaskQueue is the queue consumed by the worker processing checkouts.
	CheckoutTaskQueue = "CHECKOUT"
)

// CheckoutWorkflowInput captures one storefront checkout.
type CheckoutWorkflowInput struct {
	Request checkoutdomain.Request
	TraceID string
}

// CheckoutWorkflow places the orders for every cart line.
func CheckoutWorkflow(ctx workflow.Context, input CheckoutWorkflowInput) (checkoutdomain.Outcome, error) {
	logger := workflow.GetLogger(ctx)
	lines := len(input.Request.Lines)
	logger.Info("CheckoutWorkflow started", withTraceID(input.TraceID, "lines", lines)...)
	outcome, err := sequences.RunCheckoutSequence(ctx, input.Request)
	if err != nil {
		logger.Error("CheckoutWorkflow failed", withTraceID(input.TraceID, "lines", lines, "error", err)...)
		return outcome, err
	}
	if outcome.Failure != nil {
		logger.Warn("CheckoutWorkflow partially completed", withTraceID(input.TraceID, "created", len(outcome.Created), "failedLine", outcome.Failure.Line)...)
		return outcome, nil
	}
	logger.Info("CheckoutWorkflow completed", withTraceID(input.TraceID, "created", len(outcome.Created))...)
	return outcome, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}
