// Package application holds the admin console's order lifecycle controller.
//
// The order service is the single source of truth: every successful mutation
// is followed by a full ListOrders and the controller never patches its cache
// optimistically.
package application

import (
	"context"
	"fmt"
	"sync"

	authdomain "github.com/Apurer/go-order-console/internal/domains/auth/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/ports"
	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
)

const (
	MsgUnknownOrder  = "Unable to find that order in the current list."
	MsgNoEditSession = "Select an order to edit first."
)

// Controller owns the cached order list and the edit session of one admin page.
type Controller struct {
	gateway ports.Gateway

	mu      sync.Mutex
	orders  []domain.Order
	index   map[int64]int
	editing *domain.EditSession
}

func NewController(gateway ports.Gateway) *Controller {
	return &Controller{gateway: gateway, index: map[int64]int{}}
}

// ListOrders replaces the cache with the server's list. A failure keeps the previous cache.
func (c *Controller) ListOrders(ctx context.Context, creds authdomain.Credentials) ([]domain.Order, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	orders, err := c.gateway.ListOrders(ctx, creds)
	if err != nil {
		return nil, err
	}
	index := make(map[int64]int, len(orders))
	for i, order := range orders {
		index[order.ID] = i
	}
	c.mu.Lock()
	c.orders = orders
	c.index = index
	c.mu.Unlock()
	return c.Orders(), nil
}

// Orders returns a copy of the cached list in server order.
func (c *Controller) Orders() []domain.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Order(nil), c.orders...)
}

// Order looks an order up in the cache.
func (c *Controller) Order(id int64) (domain.Order, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return domain.Order{}, false
	}
	return c.orders[i], true
}

// CreateOrder validates the admin create form, creates the order and refreshes.
func (c *Controller) CreateOrder(ctx context.Context, creds authdomain.Credentials, form domain.Form) (domain.Order, error) {
	draft, err := form.Draft(domain.MsgInvalidCreate)
	if err != nil {
		return domain.Order{}, err
	}
	if err := creds.Validate(); err != nil {
		return domain.Order{}, err
	}
	created, err := c.gateway.CreateOrder(ctx, creds, draft)
	if err != nil {
		return domain.Order{}, err
	}
	if _, err := c.ListOrders(ctx, creds); err != nil {
		return created, err
	}
	return created, nil
}

// SetStatus writes any of the four statuses; transitions are left to the server.
func (c *Controller) SetStatus(ctx context.Context, creds authdomain.Credentials, id int64, raw string) error {
	status, ok := domain.ParseStatus(raw)
	if !ok {
		return apierrors.Invalid(domain.MsgInvalidStatus)
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := c.gateway.UpdateStatus(ctx, creds, id, status); err != nil {
		return err
	}
	_, err := c.ListOrders(ctx, creds)
	return err
}

// Cancel refuses locally when the cached status is no longer cancellable.
func (c *Controller) Cancel(ctx context.Context, creds authdomain.Credentials, id int64) error {
	order, ok := c.Order(id)
	if !ok {
		return apierrors.Invalid(MsgUnknownOrder)
	}
	if !order.Cancellable() {
		return apierrors.Invalid(fmt.Sprintf("Order %d can no longer be cancelled.", id))
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := c.gateway.CancelOrder(ctx, creds, id); err != nil {
		return err
	}
	_, err := c.ListOrders(ctx, creds)
	return err
}

// Delete removes an order. The caller must already hold the user's confirmation.
func (c *Controller) Delete(ctx context.Context, creds authdomain.Credentials, id int64) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := c.gateway.DeleteOrder(ctx, creds, id); err != nil {
		return err
	}
	c.mu.Lock()
	c.forget(id)
	if c.editing != nil && c.editing.OrderID == id {
		c.editing = nil
	}
	c.mu.Unlock()
	_, err := c.ListOrders(ctx, creds)
	return err
}

// BeginEdit starts editing a cached order, discarding any previous draft.
func (c *Controller) BeginEdit(id int64) (domain.EditSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i, ok := c.index[id]
	if !ok {
		return domain.EditSession{}, apierrors.Invalid(MsgUnknownOrder)
	}
	session := domain.NewEditSession(c.orders[i])
	c.editing = &session
	return session, nil
}

// Editing returns the live edit session, if any.
func (c *Controller) Editing() (domain.EditSession, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing == nil {
		return domain.EditSession{}, false
	}
	return *c.editing, true
}

// SaveEdit sends the edited fields and ends the session on success.
func (c *Controller) SaveEdit(ctx context.Context, creds authdomain.Credentials, form domain.Form) error {
	session, ok := c.Editing()
	if !ok {
		return apierrors.Invalid(MsgNoEditSession)
	}
	draft, err := form.Draft(domain.MsgInvalidEdit)
	if err != nil {
		return err
	}
	if err := creds.Validate(); err != nil {
		return err
	}
	if err := c.gateway.UpdateOrder(ctx, creds, session.OrderID, draft); err != nil {
		return err
	}
	c.mu.Lock()
	if c.editing != nil && c.editing.OrderID == session.OrderID {
		c.editing = nil
	}
	c.mu.Unlock()
	_, err = c.ListOrders(ctx, creds)
	return err
}

// CancelEdit drops the edit session without saving.
func (c *Controller) CancelEdit() {
	c.mu.Lock()
	c.editing = nil
	c.mu.Unlock()
}

// forget drops id from the cache; c.mu must be held.
func (c *Controller) forget(id int64) {
	i, ok := c.index[id]
	if !ok {
		return
	}
	c.orders = append(c.orders[:i:i], c.orders[i+1:]...)
	delete(c.index, id)
	for j := i; j < len(c.orders); j++ {
		c.index[c.orders[j].ID] = j
	}
}
