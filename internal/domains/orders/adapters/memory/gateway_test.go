package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

func TestGatewayLifecycle(t *testing.T) {
	gw := NewGateway(map[string]string{"admin": "secret"})
	creds := authdomain.NewCredentials("admin", "secret")
	ctx := context.Background()

	_, err := gw.ListOrders(ctx, authdomain.NewCredentials("admin", "wrong"))
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)

	order, err := gw.CreateOrder(ctx, creds, domain.Draft{CustomerName: "Ada", ProductName: "Lamp", Quantity: 1,
		Price: decimal.RequireFromString("1.005"), Status: domain.StatusPending})
	require.NoError(t, err)
	require.Equal(t, int64(1), order.ID)
	require.Equal(t, "admin", order.CreatedBy)
	require.Equal(t, "1.01", order.Price.StringFixed(2))

	require.NoError(t, gw.UpdateStatus(ctx, creds, 1, domain.StatusShipped))
	err = gw.CancelOrder(ctx, creds, 1)
	require.ErrorIs(t, err, apierrors.ErrConflict)

	require.ErrorIs(t, gw.CancelOrder(ctx, creds, 7), apierrors.ErrNotFound)
	require.NoError(t, gw.DeleteOrder(ctx, creds, 1))
	require.ErrorIs(t, gw.DeleteOrder(ctx, creds, 1), apierrors.ErrNotFound)

	orders, err := gw.ListOrders(ctx, creds)
	require.NoError(t, err)
	require.Empty(t, orders)
	require.Equal(t, []string{"list", "create", "status", "cancel", "cancel", "delete", "delete", "list"}, gw.Calls())
}

func TestGatewaySeedKeepsIDs(t *testing.T) {
	gw := NewGateway(nil)
	gw.Seed(domain.Order{ID: 10, Status: domain.StatusPending}, domain.Order{ID: 4, Status: domain.StatusDelivered})

	orders, err := gw.ListOrders(context.Background(), authdomain.Credentials{})
	require.NoError(t, err)
	require.Equal(t, int64(4), orders[0].ID)
	require.Equal(t, int64(10), orders[1].ID)

	created, err := gw.CreateOrder(context.Background(), authdomain.Credentials{Username: "x"}, domain.Draft{})
	require.NoError(t, err)
	require.Equal(t, int64(11), created.ID)
}

func TestGatewayTrackOrder(t *testing.T) {
	gw := NewGateway(nil)
	gw.Seed(domain.Order{ID: 42, CustomerName: "Ada", Status: domain.StatusShipped, OrderDate: "2024-05-01T10:00"})

	tracking, err := gw.TrackOrder(context.Background(), "42")
	require.NoError(t, err)
	require.Equal(t, "Ada", tracking.CustomerName)
	require.Equal(t, "Shipped", tracking.Status)
	require.Equal(t, "2024-05-06T10:00:00", tracking.EstimatedDelivery)

	_, err = gw.TrackOrder(context.Background(), "7")
	require.ErrorIs(t, err, apierrors.ErrNotFound)
	_, err = gw.TrackOrder(context.Background(), "x")
	require.ErrorIs(t, err, apierrors.ErrInvalidInput)
}
