package orderservice

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-order-console/internal/clients/http/orderapi"
	"github.com/Apurer/go-order-console/internal/domains/catalog/domain"
)

func TestFromProductNormalizes(t *testing.T) {
	product := FromProduct(orderapi.Product{}, func() string { return "generated" })
	require.Equal(t, domain.Product{
		ID:          "generated",
		Name:        domain.DefaultName,
		Description: domain.DefaultDescription,
		Price:       decimal.Zero,
	}, product)

	product = FromProduct(orderapi.Product{
		ID:    "7",
		Name:  "Lamp",
		Price: decimal.NewNullDecimal(decimal.RequireFromString("12.5")),
	}, nil)
	require.Equal(t, "7", product.ID)
	require.Equal(t, "Lamp", product.Name)
	require.Equal(t, "12.5", product.Price.String())
}

func TestListProductsGeneratesMissingIDs(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"name":"Lamp"},{"id":3,"name":"Desk","price":99}]`)
	}))
	defer server.Close()

	client, err := orderapi.NewClient(server.URL, server.Client())
	require.NoError(t, err)

	products, err := NewGateway(client).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)
	_, err = uuid.Parse(products[0].ID)
	require.NoError(t, err)
	require.Equal(t, "3", products[1].ID)
}
