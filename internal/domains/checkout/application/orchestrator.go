// Package application turns a storefront cart into orders.
package application

import (
	"context"
	"errors"
	"time"

	cartdomain "github.com/Apurer/go-order-console/internal/domains/cart/domain"
	"github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	"github.com/Apurer/go-order-console/internal/domains/checkout/ports"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
	"github.com/Apurer/go-order-console/internal/shared/format"
)

// Orchestrator runs checkouts and remembers the orders they created.
type Orchestrator struct {
	pipeline ports.Pipeline
	recent   *domain.RecentOrders
	now      func() time.Time
}

// Option customises an Orchestrator.
type Option func(*Orchestrator)

// WithClock overrides the clock used to stamp order dates.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// NewOrchestrator wires the pipeline used to create orders.
func NewOrchestrator(pipeline ports.Pipeline, opts ...Option) *Orchestrator {
	o := &Orchestrator{pipeline: pipeline, recent: &domain.RecentOrders{}, now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Checkout creates one order per cart line, in cart order.
//
// Orders created before a failing line stay created and are added to the recent orders;
// the cart is left untouched so the shopper can retry. The cart is cleared only when
// every line succeeded.
func (o *Orchestrator) Checkout(ctx context.Context, cart *cartdomain.Cart, customer domain.Customer, idempotencyKey string) (domain.Outcome, error) {
	if o == nil || o.pipeline == nil {
		return domain.Outcome{}, errors.New("checkout pipeline not configured")
	}
	if cart == nil || cart.Len() == 0 {
		return domain.Outcome{}, apierrors.Invalid(domain.MsgEmptyCart)
	}
	if err := customer.Validate(); err != nil {
		return domain.Outcome{}, err
	}
	req := domain.Request{
		Customer:       customer,
		OrderDate:      format.OrderDate(o.now()),
		Lines:          domain.LinesFromCart(cart.Lines()),
		IdempotencyKey: idempotencyKey,
	}
	outcome, err := o.pipeline.Run(ctx, req)
	if err != nil {
		return domain.Outcome{}, err
	}
	for _, order := range outcome.Created {
		o.recent.Push(order)
	}
	if outcome.Failure != nil {
		return outcome, outcome.Failure
	}
	cart.Clear()
	return outcome, nil
}

// Recent lists the newest created orders first.
func (o *Orchestrator) Recent() []domain.RecentOrder {
	return o.recent.List()
}
