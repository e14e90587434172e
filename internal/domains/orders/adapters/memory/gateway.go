package memory

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

var (
	_ ports.Gateway = (*Gateway)(nil)
	_ ports.Tracker = (*Gateway)(nil)
)

// Gateway is an in-memory stand-in for the order service. It enforces the
// server-side cancel rule and answers with the same failure kinds.
type Gateway struct {
	mu       sync.RWMutex
	orders   map[int64]domain.Order
	nextID   int64
	accounts map[string]string
	calls    []string
}

// NewGateway accepts the given username/password pairs; with none, any credentials pass.
func NewGateway(accounts map[string]string) *Gateway {
	return &Gateway{orders: map[int64]domain.Order{}, accounts: accounts}
}

// Calls returns the operations received so far, in order.
func (g *Gateway) Calls() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return append([]string(nil), g.calls...)
}

// Seed stores orders as-is, keeping their ids.
func (g *Gateway) Seed(orders ...domain.Order) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, order := range orders {
		g.orders[order.ID] = order
		if order.ID > g.nextID {
			g.nextID = order.ID
		}
	}
}

func (g *Gateway) ListOrders(_ context.Context, creds authdomain.Credentials) ([]domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("list", creds); err != nil {
		return nil, err
	}
	list := make([]domain.Order, 0, len(g.orders))
	for _, order := range g.orders {
		list = append(list, order)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (g *Gateway) CreateOrder(_ context.Context, creds authdomain.Credentials, draft domain.Draft) (domain.Order, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("create", creds); err != nil {
		return domain.Order{}, err
	}
	g.nextID++
	createdBy := draft.CreatedBy
	if createdBy == "" {
		createdBy = creds.Username
	}
	order := domain.Order{
		ID:           g.nextID,
		CustomerName: draft.CustomerName,
		CreatedBy:    createdBy,
		ProductName:  draft.ProductName,
		Quantity:     draft.Quantity,
		Price:        draft.Price.Round(2),
		Status:       draft.Status,
		OrderDate:    draft.OrderDate,
	}
	g.orders[order.ID] = order
	return order, nil
}

func (g *Gateway) UpdateOrder(_ context.Context, creds authdomain.Credentials, id int64, draft domain.Draft) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("update", creds); err != nil {
		return err
	}
	order, ok := g.orders[id]
	if !ok {
		return notFound(id)
	}
	order.CustomerName = draft.CustomerName
	order.ProductName = draft.ProductName
	order.Quantity = draft.Quantity
	order.Price = draft.Price.Round(2)
	order.Status = draft.Status
	order.OrderDate = draft.OrderDate
	g.orders[id] = order
	return nil
}

func (g *Gateway) UpdateStatus(_ context.Context, creds authdomain.Credentials, id int64, status domain.Status) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("status", creds); err != nil {
		return err
	}
	order, ok := g.orders[id]
	if !ok {
		return notFound(id)
	}
	order.Status = status
	g.orders[id] = order
	return nil
}

func (g *Gateway) CancelOrder(_ context.Context, creds authdomain.Credentials, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("cancel", creds); err != nil {
		return err
	}
	order, ok := g.orders[id]
	if !ok {
		return notFound(id)
	}
	if !order.Cancellable() {
		return &apierrors.RemoteError{Kind: apierrors.ErrConflict, StatusCode: 409, Message: fmt.Sprintf("Order %d can no longer be cancelled.", id)}
	}
	order.Status = domain.StatusCancelled
	g.orders[id] = order
	return nil
}

func (g *Gateway) DeleteOrder(_ context.Context, creds authdomain.Credentials, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.enter("delete", creds); err != nil {
		return err
	}
	if _, ok := g.orders[id]; !ok {
		return &apierrors.RemoteError{Kind: apierrors.ErrNotFound, StatusCode: 404, Message: fmt.Sprintf("Failed to delete order %d (404).", id)}
	}
	delete(g.orders, id)
	return nil
}

// TrackOrder mirrors the public tracking endpoint: delivery is estimated five days after the order date.
func (g *Gateway) TrackOrder(_ context.Context, orderID string) (domain.Tracking, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, "track")
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return domain.Tracking{}, &apierrors.RemoteError{Kind: apierrors.ErrInvalidInput, StatusCode: 400, Message: "Order IDs must be numeric."}
	}
	order, ok := g.orders[id]
	if !ok {
		return domain.Tracking{}, &apierrors.RemoteError{Kind: apierrors.ErrNotFound, StatusCode: 404, Message: "We could not find an order with that ID."}
	}
	tracking := domain.Tracking{
		OrderID:      orderID,
		CustomerName: order.CustomerName,
		Status:       string(order.Status),
	}
	if placed, err := time.ParseInLocation("2006-01-02T15:04", order.OrderDate, time.Local); err == nil {
		tracking.EstimatedDelivery = placed.AddDate(0, 0, 5).Format("2006-01-02T15:04:05")
	}
	return tracking, nil
}

// enter records the call and checks credentials; g.mu must be held.
func (g *Gateway) enter(op string, creds authdomain.Credentials) error {
	g.calls = append(g.calls, op)
	if len(g.accounts) == 0 {
		return nil
	}
	if password, ok := g.accounts[creds.Username]; ok && password == creds.Password {
		return nil
	}
	return &apierrors.RemoteError{Kind: apierrors.ErrUnauthorized, StatusCode: 401, Message: "Authentication failed. Check the username and password."}
}

func notFound(id int64) error {
	return &apierrors.RemoteError{Kind: apierrors.ErrNotFound, StatusCode: 404, Message: fmt.Sprintf("Order %d was not found.", id)}
}
