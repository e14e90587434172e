package ports

import (
	"context"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/catalog/domain"
)

// Gateway is the product side of the remote order/product service.
type Gateway interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, creds authdomain.Credentials, draft domain.ProductDraft) error
}

// ChangeNotifier tells other page instances that the catalog changed. It never fails.
type ChangeNotifier interface {
	PublishCatalogChanged(ctx context.Context)
}
