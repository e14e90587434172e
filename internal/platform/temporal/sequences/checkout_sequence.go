package sequences

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	checkoutactivities "github.com/Apurer/go-order-console/internal/platform/temporal/activities/checkout"
)

// RunCheckoutSequence creates the request's orders one after another and stops at the first rejected line.
func RunCheckoutSequence(ctx workflow.Context, req checkoutdomain.Request) (checkoutdomain.Outcome, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("checkout sequence started", "lines", len(req.Lines))
	// Order creation is not idempotent upstream, so a line is attempted once.
	createOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 1,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, createOptions)

	outcome := checkoutdomain.Outcome{}
	for index, line := range req.Lines {
		input := checkoutactivities.CreateOrderInput{
			Index:        index,
			Line:         line,
			CustomerName: req.Customer.Name,
			OrderDate:    req.OrderDate,
			Credentials:  req.Customer.Credentials,
		}
		var result checkoutactivities.CreateOrderResult
		if err := workflow.ExecuteActivity(ctx, checkoutactivities.CreateOrderActivityName, input).Get(ctx, &result); err != nil {
			logger.Error("checkout sequence failed", "line", index, "error", err)
			return outcome, err
		}
		if result.Failure != nil {
			logger.Warn("checkout sequence stopped", "line", index, "created", len(outcome.Created))
			outcome.Failure = result.Failure
			return outcome, nil
		}
		if result.Order == nil {
			return outcome, errors.New("checkout activity returned neither order nor failure")
		}
		outcome.Created = append(outcome.Created, *result.Order)
	}
	logger.Info("checkout sequence completed", "created", len(outcome.Created))
	return outcome, nil
}
