package storefront

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-order-console/internal/catalogsync"
	"github.com/Apurer/go-order-console/internal/catalogsync/memory"
	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	catalogdomain "github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-console/internal/domains/checkout/adapters/workflows"
	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	ordersmemory "github.com/Apurer/go-order-console/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-order-console/internal/pages"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

type fakeProducts struct {
	products []catalogdomain.Product
	err      error
	calls    atomic.Int32
}

func (f *fakeProducts) ListProducts(context.Context) ([]catalogdomain.Product, error) {
	f.calls.Add(1)
	return f.products, f.err
}

func (f *fakeProducts) CreateProduct(context.Context, authdomain.Credentials, catalogdomain.ProductDraft) error {
	return nil
}

func newPage(t *testing.T, products *fakeProducts, orders *ordersmemory.Gateway, feed pages.CatalogFeed) *Page {
	t.Helper()
	page := New("page-1", Deps{
		Products: products,
		Checkout: workflows.NewInlineCheckout(orders),
		Tracker:  orders,
		Feed:     feed,
	})
	t.Cleanup(page.Close)
	return page
}

func lampAndDesk() *fakeProducts {
	return &fakeProducts{products: []catalogdomain.Product{
		{ID: "p1", Name: "Lamp", Price: decimal.RequireFromString("1234.5")},
		{ID: "p2", Name: "Desk", Price: decimal.RequireFromString("10")},
	}}
}

func drainNotices(events <-chan pages.Event) []string {
	var notices []string
	for {
		select {
		case ev := <-events:
			if ev.Type == pages.EventNotice {
				notices = append(notices, ev.Message)
			}
		default:
			return notices
		}
	}
}

func TestCartFlowEmitsNotices(t *testing.T) {
	page := newPage(t, lampAndDesk(), ordersmemory.NewGateway(nil), nil)
	events, release := page.Events()
	defer release()

	products, err := page.Refresh(context.Background())
	require.NoError(t, err)
	require.Equal(t, "$1,234.50", products[0].Price)

	_, err = page.AddToCart("p1")
	require.NoError(t, err)
	view, err := page.AddToCart("p1")
	require.NoError(t, err)
	require.Len(t, view.Lines, 1)
	require.Equal(t, 2, view.Lines[0].Quantity)
	require.Equal(t, "$2,469.00", view.Total)

	_, err = page.AddToCart("missing")
	require.True(t, IsUnknownProduct(err))

	page.Decrement("p1")
	view = page.Decrement("p1")
	require.True(t, view.Empty)
	require.Equal(t, "$0.00", view.Total)

	require.Equal(t, []string{
		"Added Lamp to your cart.",
		"Added Lamp to your cart.",
		"Lamp removed from your cart.",
	}, drainNotices(events))
}

func TestCheckoutTracksFirstOrder(t *testing.T) {
	orders := ordersmemory.NewGateway(map[string]string{"ada": "pw"})
	page := newPage(t, lampAndDesk(), orders, nil)
	_, err := page.Refresh(context.Background())
	require.NoError(t, err)
	_, err = page.AddToCart("p1")
	require.NoError(t, err)
	_, err = page.AddToCart("p2")
	require.NoError(t, err)

	customer := checkoutdomain.Customer{Name: "Ada", Credentials: authdomain.NewCredentials("ada", "pw")}
	result, err := page.Checkout(context.Background(), customer, "")
	require.NoError(t, err)
	require.Equal(t, "Created 2 order(s)! Track them below.", result.Message)
	require.True(t, result.Cart.Empty)
	require.Len(t, result.Recent, 2)
	require.Equal(t, "2", result.Recent[0].ID)
	require.NotNil(t, result.Tracking)
	require.Equal(t, "1", result.Tracking.OrderID)
	require.Equal(t, "Ada", result.Tracking.CustomerName)
	require.Equal(t, []string{"create", "create", "track"}, orders.Calls())
}

func TestCheckoutFailureKeepsCart(t *testing.T) {
	orders := ordersmemory.NewGateway(map[string]string{"ada": "pw"})
	page := newPage(t, lampAndDesk(), orders, nil)
	_, err := page.Refresh(context.Background())
	require.NoError(t, err)
	_, err = page.AddToCart("p1")
	require.NoError(t, err)

	customer := checkoutdomain.Customer{Name: "Ada", Credentials: authdomain.NewCredentials("ada", "nope")}
	result, err := page.Checkout(context.Background(), customer, "")
	require.ErrorIs(t, err, apierrors.ErrUnauthorized)
	require.Equal(t, "Authentication failed. Check the username and password and try again.", err.Error())
	require.False(t, result.Cart.Empty)
	require.Zero(t, result.Created)
}

func TestCatalogChangeTriggersRefetch(t *testing.T) {
	ctx := context.Background()
	hub := memory.NewHub()
	admin := catalogsync.New(catalogsync.WithChannel(hub))
	storefrontSync := catalogsync.New(catalogsync.WithChannel(hub))
	require.NoError(t, admin.Start(ctx))
	require.NoError(t, storefrontSync.Start(ctx))

	products := lampAndDesk()
	page := newPage(t, products, ordersmemory.NewGateway(nil), storefrontSync)

	admin.PublishCatalogChanged(ctx)
	require.Eventually(t, func() bool { return len(page.Products()) == 2 }, time.Second, 5*time.Millisecond)
	require.Equal(t, int32(1), products.calls.Load())

	page.Close()
	admin.PublishCatalogChanged(ctx)
	require.Never(t, func() bool { return products.calls.Load() > 1 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestRefreshFailureKeepsCatalog(t *testing.T) {
	products := lampAndDesk()
	page := newPage(t, products, ordersmemory.NewGateway(nil), nil)
	_, err := page.Focus(context.Background())
	require.NoError(t, err)

	products.err = errors.New("Unable to load products (500).")
	_, err = page.Focus(context.Background())
	require.Error(t, err)
	require.Len(t, page.Products(), 2)
}
