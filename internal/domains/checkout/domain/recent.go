package domain

import (
	"strconv"
	"sync"

	ordersdomain "github.com/Apurer/go-order-console/internal/domains/orders/domain"
)

// MaxRecentOrders bounds the storefront's "track this order" shortcuts.
const MaxRecentOrders = 5

// RecentOrder is a shortcut to track a freshly created order.
type RecentOrder struct {
	ID          string `json:"id"`
	ProductName string `json:"productName"`
	Status      string `json:"status"`
	CreatedAt   string `json:"createdAt"`
}

// RecentOrders keeps the newest order first and evicts beyond MaxRecentOrders.
type RecentOrders struct {
	mu      sync.Mutex
	entries []RecentOrder
}

// Push front-inserts an order.
func (r *RecentOrders) Push(order ordersdomain.Order) {
	entry := RecentOrder{
		ProductName: order.ProductName,
		Status:      string(order.Status),
		CreatedAt:   order.OrderDate,
	}
	if order.ID != 0 {
		entry.ID = strconv.FormatInt(order.ID, 10)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]RecentOrder{entry}, r.entries...)
	if len(r.entries) > MaxRecentOrders {
		r.entries = r.entries[:MaxRecentOrders]
	}
}

// List returns the entries, newest first.
func (r *RecentOrders) List() []RecentOrder {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]RecentOrder(nil), r.entries...)
}
