package domain

import (
	"strings"

	"github.com/shopspring/decimal"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

const (
	DefaultName        = "Untitled Product"
	DefaultDescription = "No description provided."

	MsgInvalidProduct = "Enter a name, description, and a non-negative price."
)

// Product is a catalog entry as last fetched. Catalogs are replaced wholesale.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	CreatedAt   string
}

// ProductForm holds the admin product form exactly as typed.
type ProductForm struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

// ProductDraft is a validated product ready to be sent.
type ProductDraft struct {
	Name        string
	Description string
	Price       decimal.Decimal
}

// Draft validates the form. Unlike orders, a negative price is rejected.
func (f ProductForm) Draft() (ProductDraft, error) {
	draft := ProductDraft{
		Name:        strings.TrimSpace(f.Name),
		Description: strings.TrimSpace(f.Description),
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil || draft.Name == "" || draft.Description == "" || price.IsNegative() {
		return ProductDraft{}, apierrors.Invalid(MsgInvalidProduct)
	}
	draft.Price = price
	return draft, nil
}
