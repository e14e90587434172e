package storefront

import (
	"github.com/shopspring/decimal"

	cartdomain "github.com/Apurer/go-order-console/internal/domains/cart/domain"
	catalogdomain "github.com/Apurer/go-order-console/internal/domains/catalog/domain"
	checkoutdomain "github.com/Apurer/go-order-console/internal/domains/checkout/domain"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/shared/format"
)

type ProductView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
}

type LineView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Subtotal  string `json:"subtotal"`
}

type CartView struct {
	Lines []LineView `json:"lines"`
	Total string     `json:"total"`
	Empty bool       `json:"empty"`
}

type CheckoutResult struct {
	Message       string                       `json:"message,omitempty"`
	Created       int                          `json:"created"`
	Recent        []checkoutdomain.RecentOrder `json:"recentOrders"`
	Cart          CartView                     `json:"cart"`
	Tracking      *ordersdomain.TrackingView   `json:"tracking,omitempty"`
	TrackingError string                       `json:"trackingError,omitempty"`
}

func productViews(products []catalogdomain.Product) []ProductView {
	views := make([]ProductView, 0, len(products))
	for _, product := range products {
		views = append(views, ProductView{
			ID:          product.ID,
			Name:        product.Name,
			Description: product.Description,
			Price:       format.Currency(product.Price),
		})
	}
	return views
}

func cartView(lines []cartdomain.Line, total decimal.Decimal) CartView {
	view := CartView{Lines: make([]LineView, 0, len(lines)), Total: format.Currency(total), Empty: len(lines) == 0}
	for _, line := range lines {
		view.Lines = append(view.Lines, LineView{
			ProductID: line.ProductID,
			Name:      line.Name,
			Quantity:  line.Quantity,
			UnitPrice: format.Currency(line.UnitPrice),
			Subtotal:  format.Currency(line.Subtotal()),
		})
	}
	return view
}
