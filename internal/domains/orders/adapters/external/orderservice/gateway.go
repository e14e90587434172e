package orderservice

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-console/internal/clients/http/orderapi"
	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/ports"
)

// Gateway implements the order port on top of the order service client.
type Gateway struct {
	client *orderapi.Client
}

// NewGateway wires an order service client into the order port.
func NewGateway(client *orderapi.Client) *Gateway {
	return &Gateway{client: client}
}

func (g *Gateway) ListOrders(ctx context.Context, creds authdomain.Credentials) ([]domain.Order, error) {
	if err := g.ready(); err != nil {
		return nil, err
	}
	orders, err := g.client.ListOrders(ctx, basicAuth(creds))
	if err != nil {
		return nil, err
	}
	result := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		result = append(result, FromOrder(order))
	}
	return result, nil
}

func (g *Gateway) CreateOrder(ctx context.Context, creds authdomain.Credentials, draft domain.Draft) (domain.Order, error) {
	if err := g.ready(); err != nil {
		return domain.Order{}, err
	}
	created, err := g.client.CreateOrder(ctx, ToInput(draft), basicAuth(creds))
	if err != nil {
		return domain.Order{}, err
	}
	return FromOrder(created), nil
}

func (g *Gateway) UpdateOrder(ctx context.Context, creds authdomain.Credentials, id int64, draft domain.Draft) error {
	if err := g.ready(); err != nil {
		return err
	}
	return g.client.UpdateOrder(ctx, id, ToInput(draft), basicAuth(creds))
}

func (g *Gateway) UpdateStatus(ctx context.Context, creds authdomain.Credentials, id int64, status domain.Status) error {
	if err := g.ready(); err != nil {
		return err
	}
	return g.client.UpdateOrderStatus(ctx, id, string(status), basicAuth(creds))
}

func (g *Gateway) CancelOrder(ctx context.Context, creds authdomain.Credentials, id int64) error {
	if err := g.ready(); err != nil {
		return err
	}
	return g.client.CancelOrder(ctx, id, basicAuth(creds))
}

func (g *Gateway) DeleteOrder(ctx context.Context, creds authdomain.Credentials, id int64) error {
	if err := g.ready(); err != nil {
		return err
	}
	return g.client.DeleteOrder(ctx, id, basicAuth(creds))
}

func (g *Gateway) TrackOrder(ctx context.Context, orderID string) (domain.Tracking, error) {
	if err := g.ready(); err != nil {
		return domain.Tracking{}, err
	}
	tracking, err := g.client.TrackOrder(ctx, orderID)
	if err != nil {
		return domain.Tracking{}, err
	}
	return domain.Tracking{
		OrderID:           tracking.OrderID,
		CustomerName:      tracking.CustomerName,
		Status:            tracking.Status,
		EstimatedDelivery: tracking.EstimatedDelivery,
	}, nil
}

func (g *Gateway) ready() error {
	if g == nil || g.client == nil {
		return errors.New("order service gateway not configured")
	}
	return nil
}

func basicAuth(creds authdomain.Credentials) orderapi.RequestEditorFn {
	return orderapi.WithBasicAuth(creds.Username, creds.Password)
}

var (
	_ ports.Gateway = (*Gateway)(nil)
	_ ports.Tracker = (*Gateway)(nil)
)
