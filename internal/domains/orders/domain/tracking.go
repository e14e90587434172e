package domain

import (
	"regexp"
	"strings"

	apierrors "github.com/Apurer/go-order-console/internal/shared/errors"
	"github.com/Apurer/go-order-console/internal/shared/format"
)

const (
	MsgNumericOrderID = "Please enter a numeric order ID (e.g., 42)."
	MsgTrackingFound  = "We found your order! Here is the latest information."
)

var numericID = regexp.MustCompile(`^\d+$`)

// ParseTrackingID trims the shopper's input and requires it to be all digits.
func ParseTrackingID(raw string) (string, error) {
	id := strings.TrimSpace(raw)
	if !numericID.MatchString(id) {
		return "", apierrors.Invalid(MsgNumericOrderID)
	}
	return id, nil
}

// Tracking is the public status of an order. Any field may be empty.
type Tracking struct {
	OrderID           string
	CustomerName      string
	Status            string
	EstimatedDelivery string
}

// TrackingView is what the storefront shows for a tracked order.
type TrackingView struct {
	OrderID      string `json:"orderId"`
	CustomerName string `json:"customerName"`
	Status       string `json:"status"`
	Delivery     string `json:"delivery"`
	Message      string `json:"message"`
}

// View fills missing fields with placeholders; requestedID stands in for a missing order id.
func (t Tracking) View(requestedID string) TrackingView {
	status := orPlaceholder(t.Status)
	return TrackingView{
		OrderID:      orPlaceholder(firstNonEmpty(t.OrderID, requestedID)),
		CustomerName: orPlaceholder(t.CustomerName),
		Status:       status,
		Delivery:     format.Delivery(t.EstimatedDelivery, status),
		Message:      MsgTrackingFound,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func orPlaceholder(v string) string {
	if strings.TrimSpace(v) == "" {
		return format.Placeholder
	}
	return v
}
