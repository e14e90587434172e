package checkout

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/go-order-console/internal/domains/checkout/ports"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
)

// CreateOrderActivityName creates the order for one checkout line.
const CreateOrderActivityName = "checkout.activities.CreateOrder"

// CreateOrderInput is one checkout line plus what is needed to turn it into an order.
type CreateOrderInput struct {
	Index        int
	Line         checkoutdomain.Line
	CustomerName string
	OrderDate    string
	Credentials  authdomain.Credentials
}

// CreateOrderResult carries either the created order or the reason the line failed.
// Upstream rejections are results, not activity errors, so they are never retried.
type CreateOrderResult struct {
	Order   *ordersdomain.Order
	Failure *checkoutdomain.Failure
}

// Activities groups the checkout activities.
type Activities struct {
	creator checkoutports.OrderCreator
}

// NewActivities wires the order creator into the Temporal activities bundle.
func NewActivities(creator checkoutports.OrderCreator) *Activities {
	return &Activities{creator: creator}
}

// CreateOrder posts one Pending order upstream.
func (a *Activities) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.creator == nil {
		logger.Error("checkout activity not initialized", "line", input.Index)
		return nil, errors.New("checkout activity not initialized")
	}
	logger.Info("CreateOrder activity started", "line", input.Index, "product", input.Line.ProductName)
	order, err := a.creator.CreateOrder(ctx, input.Credentials, input.Line.Draft(input.CustomerName, input.OrderDate))
	if err != nil {
		failure := checkoutdomain.NewFailure(input.Index, input.Line, err)
		logger.Warn("CreateOrder activity rejected", "line", input.Index, "status", failure.Status, "error", err)
		return &CreateOrderResult{Failure: failure}, nil
	}
	logger.Info("CreateOrder activity completed", "line", input.Index, "orderId", order.ID)
	return &CreateOrderResult{Order: &order}, nil
}
