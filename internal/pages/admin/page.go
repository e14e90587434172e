// Package admin is one operator's live console page: the order table, its edit form,
// and the product catalog.
package admin

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/Apurer/go-order-console/internal/catalogsync"
	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	catalogapp "github.com/Apurer/go-order-console/internal/domains/catalog/application"
	catalogdomain "github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	catalogports "github.com/Apurer/go-order-console/internal/domains/catalog/ports"
	"github.com/Apurer/go-order-console/internal/domains/orders/adapters/http/mapper"
	ordersapp "github.com/Apurer/go-order-console/internal/domains/orders/application"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
	ordersports "github.com/Apurer/go-order-console/internal/domains/orders/ports"
	"github.com/Apurer/go-order-console/internal/pages"
	"github.com/Apurer/go-order-console/internal/shared/format"
)

// Deps are the collaborators shared by every admin instance.
type Deps struct {
	Orders   ordersports.Gateway
	Products catalogports.Gateway
	Notifier catalogports.ChangeNotifier
	Feed     pages.CatalogFeed
	Logger   *slog.Logger
}

// Page is a single admin console instance.
type Page struct {
	ID string

	orders  *ordersapp.Controller
	catalog *catalogapp.Catalog
	bus     *pages.Bus
	logger  *slog.Logger

	unsubscribe func()
}

// OrdersResult is the table after an order operation plus its feedback line.
type OrdersResult struct {
	Message string         `json:"message"`
	Orders  []mapper.Order `json:"orders"`
}

// EditResult is the edit form prefilled from a cached order.
type EditResult struct {
	Message string            `json:"message"`
	OrderID int64             `json:"orderId"`
	Form    ordersdomain.Form `json:"form"`
}

// ProductRow is one line of the admin catalog table.
type ProductRow struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	CreatedAt   string `json:"createdAt"`
}

// ProductsResult is the catalog table plus its feedback line.
type ProductsResult struct {
	Message  string       `json:"message"`
	Products []ProductRow `json:"products"`
}

// New wires an admin instance. With a feed, the catalog table follows changes made by
// other instances; changes this instance made are already reloaded by CreateProduct.
func New(id string, deps Deps) *Page {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	p := &Page{
		ID:      id,
		orders:  ordersapp.NewController(deps.Orders),
		catalog: catalogapp.NewCatalog(deps.Products, deps.Notifier),
		bus:     pages.NewBus(),
		logger:  logger.With(slog.String("page", "admin"), slog.String("page.id", id)),
	}
	if deps.Feed != nil {
		p.unsubscribe = deps.Feed.OnCatalogChanged(func(ctx context.Context) {
			if catalogsync.SourceFrom(ctx) == p.ID {
				return
			}
			if _, err := p.LoadProducts(ctx); err != nil {
				p.logger.LogAttrs(ctx, slog.LevelWarn, "catalog refetch after change failed", slog.String("error", err.Error()))
			}
		})
	}
	return p
}

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

// LoadOrders refetches the order table.
func (p *Page) LoadOrders(ctx context.Context, creds authdomain.Credentials) (OrdersResult, error) {
	orders, err := p.orders.ListOrders(ctx, creds)
	if err != nil {
		return p.fail(err)
	}
	return p.succeed(fmt.Sprintf("Loaded %d order(s).", len(orders)))
}

func (p *Page) CreateOrder(ctx context.Context, creds authdomain.Credentials, form ordersdomain.Form) (OrdersResult, error) {
	if _, err := p.orders.CreateOrder(ctx, creds, form); err != nil {
		return p.fail(err)
	}
	return p.succeed("Order created successfully.")
}

func (p *Page) SetStatus(ctx context.Context, creds authdomain.Credentials, id int64, status string) (OrdersResult, error) {
	if err := p.orders.SetStatus(ctx, creds, id, status); err != nil {
		return p.fail(err)
	}
	canonical, _ := ordersdomain.ParseStatus(status)
	return p.succeed(fmt.Sprintf("Order %d updated to %s.", id, canonical))
}

func (p *Page) Cancel(ctx context.Context, creds authdomain.Credentials, id int64) (OrdersResult, error) {
	if err := p.orders.Cancel(ctx, creds, id); err != nil {
		return p.fail(err)
	}
	return p.succeed(fmt.Sprintf("Order %d cancelled.", id))
}

// Delete removes an order. The operator has already confirmed it.
func (p *Page) Delete(ctx context.Context, creds authdomain.Credentials, id int64) (OrdersResult, error) {
	if err := p.orders.Delete(ctx, creds, id); err != nil {
		return p.fail(err)
	}
	return p.succeed(fmt.Sprintf("Order %d deleted.", id))
}

func (p *Page) BeginEdit(id int64) (EditResult, error) {
	session, err := p.orders.BeginEdit(id)
	if err != nil {
		p.bus.Notice(err.Error(), true)
		return EditResult{}, err
	}
	return EditResult{Message: fmt.Sprintf("Editing order #%d", id), OrderID: session.OrderID, Form: session.Form}, nil
}

// Editing reports the live edit session.
func (p *Page) Editing() (EditResult, bool) {
	session, ok := p.orders.Editing()
	if !ok {
		return EditResult{}, false
	}
	return EditResult{Message: fmt.Sprintf("Editing order #%d", session.OrderID), OrderID: session.OrderID, Form: session.Form}, true
}

func (p *Page) SaveEdit(ctx context.Context, creds authdomain.Credentials, form ordersdomain.Form) (OrdersResult, error) {
	if err := p.orders.SaveEdit(ctx, creds, form); err != nil {
		return p.fail(err)
	}
	return p.succeed("Order updated successfully.")
}

func (p *Page) CancelEdit() {
	p.orders.CancelEdit()
}

// Orders is the table as last fetched.
func (p *Page) Orders() []mapper.Order {
	return mapper.FromDomainOrders(p.orders.Orders())
}

// LoadProducts refetches the catalog table.
func (p *Page) LoadProducts(ctx context.Context) (ProductsResult, error) {
	products, err := p.catalog.Load(ctx)
	if err != nil {
		p.bus.Notice(err.Error(), true)
		return ProductsResult{Message: err.Error(), Products: productRows(p.catalog.Products())}, err
	}
	result := ProductsResult{Message: fmt.Sprintf("Loaded %d product(s).", len(products)), Products: productRows(products)}
	p.bus.Emit(pages.Event{Type: pages.EventCatalog, Message: result.Message, Data: result.Products})
	return result, nil
}

// Focus is called when the operator returns to the tab.
func (p *Page) Focus(ctx context.Context) (ProductsResult, error) {
	return p.LoadProducts(ctx)
}

// CreateProduct adds a product and tells every other instance to refetch.
func (p *Page) CreateProduct(ctx context.Context, creds authdomain.Credentials, form catalogdomain.ProductForm) (ProductsResult, error) {
	if err := p.catalog.Create(catalogsync.WithSource(ctx, p.ID), creds, form); err != nil {
		p.bus.Notice(err.Error(), true)
		return ProductsResult{Message: err.Error(), Products: productRows(p.catalog.Products())}, err
	}
	result := ProductsResult{Message: "Product created successfully.", Products: productRows(p.catalog.Products())}
	p.bus.Emit(pages.Event{Type: pages.EventCatalog, Message: result.Message, Data: result.Products})
	return result, nil
}

func (p *Page) succeed(message string) (OrdersResult, error) {
	result := OrdersResult{Message: message, Orders: p.Orders()}
	p.bus.Emit(pages.Event{Type: pages.EventOrders, Message: message, Data: result.Orders})
	return result, nil
}

func (p *Page) fail(err error) (OrdersResult, error) {
	p.logger.LogAttrs(context.Background(), slog.LevelDebug, "admin operation failed", slog.String("error", err.Error()))
	p.bus.Notice(err.Error(), true)
	return OrdersResult{Message: err.Error(), Orders: p.Orders()}, err
}

func productRows(products []catalogdomain.Product) []ProductRow {
	rows := make([]ProductRow, 0, len(products))
	for _, product := range products {
		rows = append(rows, ProductRow{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       format.Currency(product.Price),
			CreatedAt:   format.Timestamp(product.CreatedAt),
		})
	}
	return rows
}
