package services

import (
	"context"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/events"
	"textile-backend/internal/metrics"
	"textile-backend/internal/models"
	"textile-backend/internal/proofs"
	"textile-backend/internal/storage"
	"textile-backend/internal/timeutil"

	"go.uber.org/zap"
)

// ShipmentService dispatches locked checklists. Totals are frozen from the
// checklist summary at creation; the shipment record is what the customer
// signed for, not a live view.
type ShipmentService struct {
	Shipments  storage.ShipmentStore
	Checklists storage.ChecklistStore
	Proofs     proofs.Uploader
	Events     events.Publisher
	Log        *zap.Logger
}

func NewShipmentService(
	shipments storage.ShipmentStore,
	checklists storage.ChecklistStore,
	uploader proofs.Uploader,
	publisher events.Publisher,
	log *zap.Logger,
) *ShipmentService {
	return &ShipmentService{
		Shipments:  shipments,
		Checklists: checklists,
		Proofs:     uploader,
		Events:     publisher,
		Log:        log,
	}
}

func (s *ShipmentService) publish(eventType string, id int, status string) {
	if s.Events != nil {
		s.Events.Publish(events.Event{Type: eventType, Entity: "shipment", ID: id, Status: status})
	}
}

// CreateShipment dispatches a locked checklist. Every reserved bale on it
// moves to shipped in the same transaction that inserts the shipment.
func (s *ShipmentService) CreateShipment(ctx context.Context, req *models.CreateShipmentRequest, actor auth.Actor) (*models.Shipment, error) {
	if !actor.Can().Dispatch {
		return nil, apperr.PermissionDenied("role cannot dispatch shipments")
	}
	if req.ChecklistID <= 0 {
		return nil, apperr.Validation("checklist_id is required")
	}
	if req.OrderID == "" {
		return nil, apperr.Validation("order_id is required")
	}
	if req.DriverName == "" || req.VehicleNumber == "" {
		return nil, apperr.Validation("driver_name and vehicle_number are required")
	}

	cl, err := s.Checklists.GetChecklist(ctx, req.ChecklistID)
	if err != nil {
		return nil, err
	}
	summary := models.BuildSummary(cl.Items)

	sh := &models.Shipment{
		OrderID:         req.OrderID,
		ChecklistID:     req.ChecklistID,
		CustomerID:      cl.CustomerID,
		DriverName:      req.DriverName,
		DriverPhone:     req.DriverPhone,
		VehicleNumber:   req.VehicleNumber,
		WaybillNumber:   req.WaybillNumber,
		TotalItems:      summary.TotalToys,
		TotalWeight:     summary.TotalWeight,
		ShippedByUserID: actor.UserID,
	}
	if err := s.Shipments.CreateShipment(ctx, sh); err != nil {
		return nil, err
	}
	metrics.ShipmentTransitionsTotal.WithLabelValues(models.ShipmentPending).Inc()
	s.publish("shipment.created", sh.ID, sh.Status)
	return sh, nil
}

func (s *ShipmentService) GetShipment(ctx context.Context, id int) (*models.Shipment, error) {
	return s.Shipments.GetShipment(ctx, id)
}

func (s *ShipmentService) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	return s.Shipments.ListShipments(ctx)
}

// SetStatus walks the shipment forward one step, or cancels it before it
// leaves the gate.
func (s *ShipmentService) SetStatus(ctx context.Context, id int, to, notes string, actor auth.Actor) (*models.Shipment, error) {
	if !actor.Can().Dispatch {
		return nil, apperr.PermissionDenied("role cannot update shipments")
	}

	sh, err := s.Shipments.GetShipment(ctx, id)
	if err != nil {
		return nil, err
	}
	if !models.ShipmentTransitionAllowed(sh.Status, to) {
		return nil, apperr.InvalidTransition("shipment", id, sh.Status, to)
	}
	if err := s.Shipments.SetShipmentStatus(ctx, id, sh.Status, to, notes); err != nil {
		return nil, err
	}
	metrics.ShipmentTransitionsTotal.WithLabelValues(to).Inc()
	s.publish("shipment.status", id, to)
	return s.Shipments.GetShipment(ctx, id)
}

// SetDocumentFlag flips one paperwork-readiness flag.
func (s *ShipmentService) SetDocumentFlag(ctx context.Context, id int, document string, ready bool, actor auth.Actor) (*models.Shipment, error) {
	if !actor.Can().Dispatch {
		return nil, apperr.PermissionDenied("role cannot update shipments")
	}
	switch document {
	case "waybill", "invoice", "packing", "quality":
	default:
		return nil, apperr.Validation("document must be waybill, invoice, packing or quality")
	}
	return s.Shipments.SetDocumentFlag(ctx, id, document, ready)
}

// Complete confirms delivery. The signature upload is best-effort: a dead
// object store must not block the driver from closing out the run, so an
// upload failure is logged and the shipment is delivered without a proof key.
func (s *ShipmentService) Complete(ctx context.Context, id int, req *models.CompleteShipmentRequest, actor auth.Actor) (*models.Shipment, error) {
	if !actor.Can().Dispatch {
		return nil, apperr.PermissionDenied("role cannot complete shipments")
	}
	if req.RecipientName == "" {
		return nil, apperr.Validation("recipient_name is required")
	}

	var proofKey *string
	if s.Proofs != nil && len(req.Signature) > 0 {
		key, err := s.Proofs.PutDeliveryProof(ctx, id, req.Signature)
		if err != nil {
			if s.Log != nil {
				s.Log.Warn("delivery proof upload failed",
					zap.Int("shipment_id", id), zap.Error(err))
			}
		} else {
			proofKey = &key
		}
	}

	sh, err := s.Shipments.CompleteShipment(ctx, id, timeutil.Now(), req.RecipientName, proofKey)
	if err != nil {
		return nil, err
	}
	metrics.ShipmentTransitionsTotal.WithLabelValues(models.ShipmentDelivered).Inc()
	s.publish("shipment.delivered", id, models.ShipmentDelivered)
	return sh, nil
}
