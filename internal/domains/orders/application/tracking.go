package application

import (
	"context"
	"errors"

	"github.com/Apurer/go-order-console/internal/domains/orders/domain"
	"github.com/Apurer/go-order-console/internal/domains/orders/ports"
)

// TrackingService answers the storefront's "where is my order" lookups.
type TrackingService struct {
	tracker ports.Tracker
}

func NewTrackingService(tracker ports.Tracker) *TrackingService {
	return &TrackingService{tracker: tracker}
}

// Track validates the id locally before asking the order service.
func (s *TrackingService) Track(ctx context.Context, rawID string) (domain.TrackingView, error) {
	if s == nil || s.tracker == nil {
		return domain.TrackingView{}, errors.New("order tracking not configured")
	}
	id, err := domain.ParseTrackingID(rawID)
	if err != nil {
		return domain.TrackingView{}, err
	}
	tracking, err := s.tracker.TrackOrder(ctx, id)
	if err != nil {
		return domain.TrackingView{}, err
	}
	return tracking.View(id), nil
}
