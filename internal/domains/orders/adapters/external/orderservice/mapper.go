package orderservice

import (
	"github.com/Apurer/go-order-console/internal/clients/http/orderapi"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
)

// ToInput converts a validated draft into the order service body.
func ToInput(draft domain.Draft) orderapi.OrderInput {
	return orderapi.OrderInput{
		CustomerName: draft.CustomerName,
		CreatedBy:    draft.CreatedBy,
		ProductName:  draft.ProductName,
		Quantity:     draft.Quantity,
		Price:        orderapi.Money(draft.Price),
		Status:       string(draft.Status),
		OrderDate:    draft.OrderDate,
	}
}

// FromOrder converts an order document into the domain order.
func FromOrder(order orderapi.Order) domain.Order {
	status := domain.Status(order.Status)
	if canonical, ok := domain.ParseStatus(order.Status); ok {
		status = canonical
	}
	var createdBy string
	if order.CreatedBy != nil {
		createdBy = *order.CreatedBy
	}
	return domain.Order{
		ID:           order.ID,
		CustomerName: order.CustomerName,
		CreatedBy:    createdBy,
		ProductName:  order.ProductName,
		Quantity:     order.Quantity,
		Price:        order.Price,
		Status:       status,
		OrderDate:    order.OrderDate,
	}
}
