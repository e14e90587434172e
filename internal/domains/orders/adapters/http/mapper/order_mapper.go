package mapper

import (
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/shared/format"
)

// Order is the admin table row sent to the page.
type Order struct {
	ID           int64  `json:"id"`
	CustomerName string `json:"customerName"`
	CreatedBy    string `json:"createdBy"`
	ProductName  string `json:"productName"`
	Quantity     int    `json:"quantity"`
	Price        string `json:"price"`
	PriceLabel   string `json:"priceLabel"`
	Status       string `json:"status"`
	OrderDate    string `json:"orderDate"`
	PlacedAt     string `json:"placedAt"`
	Cancellable  bool   `json:"cancellable"`
}

// FromDomainOrder converts a cached order to its table row.
func FromDomainOrder(order domain.Order) Order {
	return Order{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		CreatedBy:    order.CreatedBy,
		ProductName:  order.ProductName,
		Quantity:     order.Quantity,
		Price:        order.Price.StringFixed(2),
		PriceLabel:   format.Currency(order.Price),
		Status:       string(order.Status),
		OrderDate:    order.OrderDate,
		PlacedAt:     format.Timestamp(order.OrderDate),
		Cancellable:  order.Cancellable(),
	}
}

// FromDomainOrders converts a whole list, keeping order.
func FromDomainOrders(orders []domain.Order) []Order {
	rows := make([]Order, 0, len(orders))
	for _, order := range orders {
		rows = append(rows, FromDomainOrder(order))
	}
	return rows
}
