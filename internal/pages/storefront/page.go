// Package storefront is one shopper's live page: catalog, cart, checkout, and order tracking.
package storefront

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"

	cartdomain "github.com/Apurer/go-order-console/internal/domains/cart/domain"
	catalogapp "github.com/Apurer/go-order-console/internal/domains/catalog/application"
	catalogports "github.com/Apurer/go-order-console/internal/domains/catalog/ports"
	checkoutapp "github.com/Apurer/go-order-console/internal/domains/checkout/application"
	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	checkoutports "github.com/Apurer/go-order-console/internal/domains/checkout/ports"
	ordersapp "github.com/Apurer/go-order-console/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-order-console/internal/domains/orders/ports"
	"github.com/Apurer/go-order-console/internal/pages"
)

// Deps are the collaborators shared by every storefront instance.
type Deps struct {
	Products catalogports.Gateway
	Checkout checkoutports.Pipeline
	Tracker  ordersports.Tracker
	Feed     pages.CatalogFeed
	Logger   *slog.Logger
}

// Page is a single storefront instance.
type Page struct {
	ID string

	catalog  *catalogapp.Catalog
	cart     *cartdomain.Cart
	checkout *checkoutapp.Orchestrator
	tracking *ordersapp.TrackingService
	bus      *pages.Bus
	logger   *slog.Logger

	unsubscribe func()
}

// New wires a storefront instance and subscribes it to catalog changes.
func New(id string, deps Deps) *Page {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Page{
		ID:       id,
		catalog:  catalogapp.NewCatalog(deps.Products, nil),
		checkout: checkoutapp.NewOrchestrator(deps.Checkout),
		tracking: ordersapp.NewTrackingService(deps.Tracker),
		bus:      pages.NewBus(),
		logger:   logger.With(slog.String("page", "storefront"), slog.String("page.id", id)),
	}
	p.cart = cartdomain.New(p.lookup)
	p.cart.OnRemoved(func(line cartdomain.Line) {
		p.bus.Notice(cartdomain.RemovedMessage(line.Name), false)
	})
	if deps.Feed != nil {
		p.unsubscribe = deps.Feed.OnCatalogChanged(func(ctx context.Context) {
			if _, err := p.Refresh(ctx); err != nil {
				p.logger.LogAttrs(ctx, slog.LevelWarn, "catalog refetch after change failed", slog.String("error", err.Error()))
			}
		})
	}
	return p
}

// Events streams updates for the browser.
func (p *Page) Events() (<-chan pages.Event, func()) {
	return p.bus.Subscribe()
}

// Close drops the catalog subscription and ends every event stream.
func (p *Page) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
	}
	p.bus.Close()
}

// Refresh refetches the catalog. The previous catalog stays on screen when it fails.
func (p *Page) Refresh(ctx context.Context) ([]ProductView, error) {
	products, err := p.catalog.Load(ctx)
	if err != nil {
		p.bus.Notice(err.Error(), true)
		return nil, err
	}
	views := productViews(products)
	p.bus.Emit(pages.Event{Type: pages.EventCatalog, Data: views})
	return views, nil
}

// Focus is called when the shopper returns to the page.
func (p *Page) Focus(ctx context.Context) ([]ProductView, error) {
	return p.Refresh(ctx)
}

// Products is the catalog as last fetched.
func (p *Page) Products() []ProductView {
	return productViews(p.catalog.Products())
}

// AddToCart adds one unit of a catalog product.
func (p *Page) AddToCart(productID string) (CartView, error) {
	line, err := p.cart.Add(productID)
	if err != nil {
		return p.Cart(), err
	}
	p.bus.Notice(cartdomain.AddedMessage(line.Name), false)
	return p.cartChanged(), nil
}

func (p *Page) Increment(productID string) CartView {
	p.cart.Increment(productID)
	return p.cartChanged()
}

func (p *Page) Decrement(productID string) CartView {
	p.cart.Decrement(productID)
	return p.cartChanged()
}

func (p *Page) Remove(productID string) CartView {
	p.cart.Remove(productID)
	return p.cartChanged()
}

// Cart is the current cart with display totals.
func (p *Page) Cart() CartView {
	return cartView(p.cart.Lines(), p.cart.Total())
}

// Checkout places one order per cart line. After a full success the first created
// order is tracked straight away.
func (p *Page) Checkout(ctx context.Context, customer checkoutdomain.Customer, idempotencyKey string) (CheckoutResult, error) {
	outcome, err := p.checkout.Checkout(ctx, p.cart, customer, idempotencyKey)
	result := CheckoutResult{Created: len(outcome.Created), Recent: p.checkout.Recent(), Cart: p.Cart()}
	if err != nil {
		p.bus.Notice(err.Error(), true)
		p.bus.Emit(pages.Event{Type: pages.EventCart, Data: result.Cart})
		return result, err
	}
	result.Message = checkoutdomain.SuccessMessage(len(outcome.Created))
	p.bus.Notice(result.Message, false)
	p.bus.Emit(pages.Event{Type: pages.EventCart, Data: result.Cart})

	if len(outcome.Created) > 0 && outcome.Created[0].ID != 0 {
		view, err := p.Track(ctx, strconv.FormatInt(outcome.Created[0].ID, 10))
		if err != nil {
			result.TrackingError = err.Error()
		} else {
			result.Tracking = &view
		}
	}
	return result, nil
}

// Recent lists the latest created orders, newest first.
func (p *Page) Recent() []checkoutdomain.RecentOrder {
	return p.checkout.Recent()
}

// Track looks up the public status of an order.
func (p *Page) Track(ctx context.Context, orderID string) (ordersdomain.TrackingView, error) {
	return p.tracking.Track(ctx, orderID)
}

func (p *Page) lookup(productID string) (cartdomain.Product, bool) {
	product, ok := p.catalog.Find(productID)
	if !ok {
		return cartdomain.Product{}, false
	}
	return cartdomain.Product{ID: product.ID, Name: product.Name, Price: product.Price}, true
}

func (p *Page) cartChanged() CartView {
	view := p.Cart()
	p.bus.Emit(pages.Event{Type: pages.EventCart, Data: view})
	return view
}

// IsUnknownProduct reports whether err came from adding a product the catalog does not list.
func IsUnknownProduct(err error) bool {
	return errors.Is(err, cartdomain.ErrUnknownProduct)
}
