package ports

import (
	"context"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
)

// Gateway is the order side of the remote order/product service.
type Gateway interface {
	ListOrders(ctx context.Context, creds authdomain.Credentials) ([]domain.Order, error)
	CreateOrder(ctx context.Context, creds authdomain.Credentials, draft domain.Draft) (domain.Order, error)
	UpdateOrder(ctx context.Context, creds authdomain.Credentials, id int64, draft domain.Draft) error
	UpdateStatus(ctx context.Context, creds authdomain.Credentials, id int64, status domain.Status) error
	CancelOrder(ctx context.Context, creds authdomain.Credentials, id int64) error
	DeleteOrder(ctx context.Context, creds authdomain.Credentials, id int64) error
}

// Tracker reads the public tracking view of an order. It needs no credentials.
type Tracker interface {
	TrackOrder(ctx context.Context, orderID string) (domain.Tracking, error)
}
