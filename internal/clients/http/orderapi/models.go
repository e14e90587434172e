package orderapi

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Order is the order document served by /api/orders.
type Order struct {
	ID           int64           `json:"id"`
	CustomerName string          `json:"customerName"`
	CreatedBy    *string         `json:"createdBy,omitempty"`
	ProductName  string          `json:"productName"`
	Quantity     int             `json:"quantity"`
	Price        decimal.Decimal `json:"price"`
	Status       string          `json:"status"`
	OrderDate    string          `json:"orderDate"`
}

// OrderInput is the body of create and full-update calls.
type OrderInput struct {
	CustomerName string      `json:"customerName"`
	CreatedBy    string      `json:"createdBy,omitempty"`
	ProductName  string      `json:"productName"`
	Quantity     int         `json:"quantity"`
	Price        json.Number `json:"price"`
	Status       string      `json:"status"`
	OrderDate    string      `json:"orderDate"`
}

// StatusUpdate is the body of PATCH /api/orders/{id}/status.
type StatusUpdate struct {
	Status string `json:"status"`
}

// Product is the catalog entry served by /api/products. Every field may be absent.
type Product struct {
	ID          ProductID           `json:"id"`
	Name        string              `json:"name"`
	Description string              `json:"description"`
	Price       decimal.NullDecimal `json:"price"`
	CreatedAt   string              `json:"createdAt"`
}

// ProductInput is the body of POST /api/products.
type ProductInput struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
}

// Tracking is the public tracking document served by /track/{orderId}.
type Tracking struct {
	OrderID           string `json:"orderId"`
	CustomerName      string `json:"customerName"`
	Status            string `json:"status"`
	EstimatedDelivery string `json:"estimatedDelivery"`
}

// ErrorBody is the optional JSON document attached to failed product calls.
type ErrorBody struct {
	Message *string `json:"message,omitempty"`
}

// ProductID accepts both numeric and string identifiers.
type ProductID string

func (id *ProductID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProductID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("product id: %w", err)
		}
		*id = ProductID(n.String())
	}
	return nil
}

// Money renders an amount as a JSON number with two fraction digits.
func Money(amount decimal.Decimal) json.Number {
	return json.Number(amount.Round(2).StringFixed(2))
}
