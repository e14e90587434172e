package orderservice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-order-console/internal/clients/http/orderapi"
	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	"github.com/Apurer/go-order-console/internal/domains/catalog/ports"
)

// Gateway implements the product port on top of the order service client.
type Gateway struct {
	client *orderapi.Client
	newID  func() string
}

func NewGateway(client *orderapi.Client) *Gateway {
	return &Gateway{client: client, newID: uuid.NewString}
}

func (g *Gateway) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if g == nil || g.client == nil {
		return nil, errors.New("order service gateway not configured")
	}
	products, err := g.client.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Product, 0, len(products))
	for _, product := range products {
		result = append(result, FromProduct(product, g.newID))
	}
	return result, nil
}

func (g *Gateway) CreateProduct(ctx context.Context, creds authdomain.Credentials, draft domain.ProductDraft) error {
	if g == nil || g.client == nil {
		return errors.New("order service gateway not configured")
	}
	return g.client.CreateProduct(ctx, orderapi.ProductInput{
		Name:        draft.Name,
		Description: draft.Description,
		Price:       orderapi.Money(draft.Price),
	}, orderapi.WithBasicAuth(creds.Username, creds.Password))
}

// FromProduct fills every field the service left out.
func FromProduct(product orderapi.Product, newID func() string) domain.Product {
	out := domain.Product{
		ID:          string(product.ID),
		Name:        product.Name,
		Description: product.Description,
		Price:       decimal.Zero,
		CreatedAt:   product.CreatedAt,
	}
	if out.ID == "" {
		out.ID = newID()
	}
	if out.Name == "" {
		out.Name = domain.DefaultName
	}
	if out.Description == "" {
		out.Description = domain.DefaultDescription
	}
	if product.Price.Valid {
		out.Price = product.Price.Decimal
	}
	return out
}

var _ ports.Gateway = (*Gateway)(nil)
