package services

import (
	"context"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/events"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"
)

// LotService manages markas, the production lots bales are pressed into.
type LotService struct {
	Lots   storage.LotStore
	Events events.Publisher
}

func NewLotService(lots storage.LotStore, publisher events.Publisher) *LotService {
	return &LotService{Lots: lots, Events: publisher}
}

func (s *LotService) publish(eventType string, id int, status string) {
	if s.Events != nil {
		s.Events.Publish(events.Event{Type: eventType, Entity: "lot", ID: id, Status: status})
	}
}

// CreateLot opens a new lot in draft. Bales cannot be registered against it
// until it is activated.
func (s *LotService) CreateLot(ctx context.Context, req *models.CreateLotRequest, actor auth.Actor) (*models.Lot, error) {
	if !actor.Can().ManageLots {
		return nil, apperr.PermissionDenied("role cannot manage lots")
	}
	if req.ProductType == "" {
		return nil, apperr.Validation("product_type is required")
	}
	capacity := req.Capacity
	if capacity == 0 {
		capacity = models.DefaultLotCapacity
	}
	if capacity < 0 {
		return nil, apperr.Validation("capacity must be positive")
	}

	lot := &models.Lot{
		ProductType:     req.ProductType,
		Capacity:        capacity,
		Status:          models.LotDraft,
		CreatedByUserID: actor.UserID,
	}
	if err := s.Lots.CreateLot(ctx, lot); err != nil {
		return nil, err
	}
	s.publish("lot.created", lot.ID, lot.Status)
	return lot, nil
}

func (s *LotService) GetLot(ctx context.Context, id int) (*models.Lot, error) {
	return s.Lots.GetLot(ctx, id)
}

func (s *LotService) ListLots(ctx context.Context) ([]models.Lot, error) {
	return s.Lots.ListLots(ctx)
}

// SetStatus moves a lot through draft -> active -> (paused <-> active) ->
// closed. Closing only stops new bale registration; bales already in the lot
// keep moving through their own lifecycle.
func (s *LotService) SetStatus(ctx context.Context, id int, to string, actor auth.Actor) (*models.Lot, error) {
	if !actor.Can().ManageLots {
		return nil, apperr.PermissionDenied("role cannot manage lots")
	}

	lot, err := s.Lots.GetLot(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.LotStatusAllowed(lot.Status, to) {
		return nil, apperr.InvalidTransition("lot", id, lot.Status, to)
	}
	if err := s.Lots.SetLotStatus(ctx, id, lot.Status, to); err != nil {
		return nil, err
	}
	s.publish("lot.status", id, to)
	return s.Lots.GetLot(ctx, id)
}
