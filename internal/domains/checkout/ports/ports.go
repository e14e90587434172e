package ports

import (
	"context"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
)

// OrderCreator creates a single order upstream. The orders gateway satisfies it.
type OrderCreator interface {
	CreateOrder(ctx context.Context, creds authdomain.Credentials, draft ordersdomain.Draft) (ordersdomain.Order, error)
}

// Pipeline creates the request's lines one at a time and stops at the first failure.
// A line failure is reported through Outcome.Failure; the error return is reserved for the pipeline itself.
type Pipeline interface {
	Run(ctx context.Context, req domain.Request) (domain.Outcome, error)
}
