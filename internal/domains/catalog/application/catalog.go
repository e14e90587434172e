package application

import (
	"context"
	"sync"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-console/internal/domains/catalog/ports"
)

// Catalog is one page instance's copy of the product list.
type Catalog struct {
	gateway  ports.Gateway
	notifier ports.ChangeNotifier

	mu       sync.RWMutex
	products []domain.Product
}

// NewCatalog builds an empty catalog. notifier may be nil on pages that never create products.
func NewCatalog(gateway ports.Gateway, notifier ports.ChangeNotifier) *Catalog {
	return &Catalog{gateway: gateway, notifier: notifier}
}

// Load refetches the catalog. It never publishes a change notification, so a
// refetch triggered by one cannot start a loop. On failure the previous list is kept.
func (c *Catalog) Load(ctx context.Context) ([]domain.Product, error) {
	products, err := c.gateway.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.products = products
	c.mu.Unlock()
	return c.Products(), nil
}

// Products returns a copy of the current list.
func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Product(nil), c.products...)
}

// Find looks a product up by id.
func (c *Catalog) Find(id string) (domain.Product, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, product := range c.products {
		if product.ID == id {
			return product, true
		}
	}
	return domain.Product{}, false
}

// Create adds a product, tells other instances, then refetches.
func (c *Catalog) Create(ctx context.Context, creds authdomain.Credentials, form domain.ProductForm) error {
	draft, err := form.Draft()
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := c.gateway.CreateProduct(ctx, creds, draft); err != nil {
		return err
	}
	if c.notifier != nil {
		c.notifier.PublishCatalogChanged(ctx)
	}
	_, err = c.Load(ctx)
	return err
}
