package domain

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusShipped, StatusDelivered, StatusCancelled}

const (
	MsgInvalidCreate = "Please fill out every field with valid values."
	MsgInvalidEdit   = "Please provide valid values for every edit field."
	MsgInvalidStatus = "Choose one of Pending, Shipped, Delivered, or Cancelled."
)

// ParseStatus canonicalizes a status ignoring case.
func ParseStatus(raw string) (Status, bool) {
	for _, status := range Statuses {
		if strings.EqualFold(strings.TrimSpace(raw), string(status)) {
			return status, true
		}
	}
	return "", false
}

// IsCancellable reports whether a cancel action may be offered for status.
func IsCancellable(status Status) bool {
	switch strings.ToLower(strings.TrimSpace(string(status))) {
	case "shipped", "delivered", "cancelled":
		return false
	default:
		return true
	}
}

// Order is an order as last fetched from the order service.
type Order struct {
	ID           int64
	CustomerName string
	CreatedBy    string
	ProductName  string
	Quantity     int
	Price        decimal.Decimal
	Status       Status
	OrderDate    string
}

// Cancellable reports whether the order still exposes a cancel action.
func (o Order) Cancellable() bool {
	return IsCancellable(o.Status)
}

// Draft is a validated set of order fields ready to be sent.
type Draft struct {
	CustomerName string
	CreatedBy    string
	ProductName  string
	Quantity     int
	Price        decimal.Decimal
	Status       Status
	OrderDate    string
}

// Form holds order fields exactly as typed.
type Form struct {
	CustomerName string `json:"customerName"`
	CreatedBy    string `json:"createdBy,omitempty"`
	ProductName  string `json:"productName"`
	Quantity     string `json:"quantity"`
	Price        string `json:"price"`
	Status       string `json:"status"`
	OrderDate    string `json:"orderDate"`
}

// Draft validates the form. Names and date must be present and quantity and
// price must be numbers; their sign is not checked. Quantity may be written as
// a decimal ("2.0") but must be a whole number.
func (f Form) Draft(message string) (Draft, error) {
	draft := Draft{
		CustomerName: strings.TrimSpace(f.CustomerName),
		CreatedBy:    strings.TrimSpace(f.CreatedBy),
		ProductName:  strings.TrimSpace(f.ProductName),
		OrderDate:    f.OrderDate,
	}
	if draft.CustomerName == "" || draft.ProductName == "" || draft.OrderDate == "" {
		return Draft{}, apierrors.Invalid(message)
	}
	quantity, err := parseQuantity(f.Quantity)
	if err != nil {
		return Draft{}, apierrors.Invalid(message)
	}
	price, err := decimal.NewFromString(strings.TrimSpace(f.Price))
	if err != nil {
		return Draft{}, apierrors.Invalid(message)
	}
	draft.Quantity = quantity
	draft.Price = price
	draft.Status = StatusPending
	if strings.TrimSpace(f.Status) != "" {
		status, ok := ParseStatus(f.Status)
		if !ok {
			return Draft{}, apierrors.Invalid(message)
		}
		draft.Status = status
	}
	return draft, nil
}

func parseQuantity(raw string) (int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	whole := value.IntPart()
	if !value.IsInteger() || !value.Equal(decimal.NewFromInt(whole)) || int64(int(whole)) != whole {
		return 0, fmt.Errorf("quantity %q is not a whole number", raw)
	}
	return int(whole), nil
}

// EditSession is the single order being edited on an admin page.
type EditSession struct {
	OrderID int64 `json:"orderId"`
	Form    Form  `json:"form"`
}

// NewEditSession seeds the edit form from the cached order.
func NewEditSession(order Order) EditSession {
	date := order.OrderDate
	if len(date) > 16 {
		date = date[:16]
	}
	status := order.Status
	if status == "" {
		status = StatusPending
	}
	return EditSession{
		OrderID: order.ID,
		Form: Form{
			CustomerName: order.CustomerName,
			ProductName:  order.ProductName,
			Quantity:     strconv.Itoa(order.Quantity),
			Price:        order.Price.String(),
			Status:       string(status),
			OrderDate:    date,
		},
	}
}
