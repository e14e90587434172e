package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	cartdomain "github.com/Apurer/go-order-console/internal/domains/cart/domain"
	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

const (
	MsgEmptyCart          = "Add items to your cart before checking out."
	MsgMissingCustomer    = "Please enter the customer name."
	MsgMissingCredentials = "Enter your backend username and password."
)

// Customer is the storefront checkout form.
type Customer struct {
	Name        string
	Credentials authdomain.Credentials
}

// Validate checks the customer name first, then the backend credentials.
func (c Customer) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return apierrors.Invalid(MsgMissingCustomer)
	}
	if c.Credentials.Validate() != nil {
		return apierrors.Invalid(MsgMissingCredentials)
	}
	return nil
}

// Line is one order to create: the cart line's quantity and its subtotal rounded to cents.
type Line struct {
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// LinesFromCart keeps cart order.
func LinesFromCart(lines []cartdomain.Line) []Line {
	out := make([]Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, Line{
			ProductName: line.Name,
			Quantity:    line.Quantity,
			Price:       line.Subtotal().Round(2),
		})
	}
	return out
}

// Draft builds the Pending order for this line.
func (l Line) Draft(customerName, orderDate string) ordersdomain.Draft {
	return ordersdomain.Draft{
		CustomerName: strings.TrimSpace(customerName),
		ProductName:  l.ProductName,
		Quantity:     l.Quantity,
		Price:        l.Price,
		Status:       ordersdomain.StatusPending,
		OrderDate:    orderDate,
	}
}

// Failure describes the line that stopped a checkout. Lines before it were created; lines after it were never sent.
type Failure struct {
	Line        int    `json:"line"`
	ProductName string `json:"productName"`
	Status      int    `json:"status,omitempty"`
	Message     string `json:"message"`
}

func (f *Failure) Error() string { return f.Message }

// Unwrap exposes the failure kind matching the upstream status.
func (f *Failure) Unwrap() error {
	if f.Status == 0 {
		return apierrors.ErrGateway
	}
	return apierrors.KindForStatus(f.Status)
}

// NewFailure phrases an order creation error for the storefront.
func NewFailure(index int, line Line, err error) *Failure {
	failure := &Failure{Line: index, ProductName: line.ProductName, Status: apierrors.StatusCode(err)}
	switch {
	case errors.Is(err, apierrors.ErrUnauthorized):
		failure.Message = "Authentication failed. Check the username and password and try again."
	case errors.Is(err, apierrors.ErrForbidden):
		failure.Message = "You do not have permission to place orders with these credentials."
	case failure.Status != 0:
		failure.Message = fmt.Sprintf("Unable to create an order for %s. (%d)", line.ProductName, failure.Status)
	default:
		failure.Message = err.Error()
	}
	return failure
}

// Outcome is what a checkout run produced.
type Outcome struct {
	Created []ordersdomain.Order `json:"created"`
	Failure *Failure             `json:"failure,omitempty"`
}

// SuccessMessage is shown after every line was created.
func SuccessMessage(created int) string {
	return fmt.Sprintf("Created %d order(s)! Track them below.", created)
}

// Request is one checkout run: every line becomes an order for the same customer.
type Request struct {
	Customer       Customer `json:"customer"`
	OrderDate      string   `json:"orderDate"`
	Lines          []Line   `json:"lines"`
	IdempotencyKey string   `json:"idempotencyKey,omitempty"`
}
