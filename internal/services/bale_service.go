package services

import (
	"context"
	"fmt"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/events"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"
	"textile-backend/internal/timeutil"

	"github.com/google/uuid"
)

// BaleService covers the bale lifecycle outside of checklists: registration
// at the press, lab grading and disposal.
type BaleService struct {
	Bales  storage.BaleStore
	Lots   storage.LotStore
	Events events.Publisher
}

func NewBaleService(bales storage.BaleStore, lots storage.LotStore, publisher events.Publisher) *BaleService {
	return &BaleService{Bales: bales, Lots: lots, Events: publisher}
}

func (s *BaleService) publish(eventType string, id int, status string) {
	if s.Events != nil {
		s.Events.Publish(events.Event{Type: eventType, Entity: "bale", ID: id, Status: status})
	}
}

// newQRCode mints the label printed on the bale at the press. The lot number
// prefix lets floor staff read the marka off the sticker without scanning.
func newQRCode(lotNumber int) string {
	return fmt.Sprintf("BL-%04d-%s", lotNumber, uuid.NewString()[:8])
}

// RegisterBale records a freshly pressed bale against an active lot. The lot
// counter moves in the same storage transaction, so two presses racing for
// the last slot cannot both win.
func (s *BaleService) RegisterBale(ctx context.Context, req *models.CreateBaleRequest, actor auth.Actor) (*models.Bale, error) {
	if !actor.Can().RegisterBales {
		return nil, apperr.PermissionDenied("role cannot register bales")
	}
	if req.LotID <= 0 {
		return nil, apperr.Validation("lot_id is required")
	}
	if req.GrossWeight <= 0 {
		return nil, apperr.Validation("gross_weight must be positive")
	}
	if req.TareWeight < 0 || req.TareWeight >= req.GrossWeight {
		return nil, apperr.Validation("tare_weight must be non-negative and below gross_weight")
	}

	lot, err := s.Lots.GetLot(ctx, req.LotID)
	if err != nil {
		return nil, err
	}

	bale := &models.Bale{
		QRCode:          newQRCode(lot.LotNumber),
		LotID:           req.LotID,
		GrossWeight:     req.GrossWeight,
		TareWeight:      req.TareWeight,
		NetWeight:       req.GrossWeight - req.TareWeight,
		Status:          models.BaleInStock,
		LabStatus:       models.LabPending,
		CreatedByUserID: actor.UserID,
	}
	if err := s.Bales.CreateBale(ctx, bale); err != nil {
		return nil, err
	}
	s.publish("bale.registered", bale.ID, bale.Status)
	return bale, nil
}

func (s *BaleService) GetBale(ctx context.Context, id int) (*models.Bale, error) {
	return s.Bales.GetBale(ctx, id)
}

// GetBaleByQR resolves a scanned label.
func (s *BaleService) GetBaleByQR(ctx context.Context, qrCode string) (*models.Bale, error) {
	if qrCode == "" {
		return nil, apperr.Validation("qr_code is required")
	}
	return s.Bales.GetBaleByQR(ctx, qrCode)
}

func (s *BaleService) ListBales(ctx context.Context, filter storage.BaleFilter) ([]models.Bale, error) {
	return s.Bales.ListBales(ctx, filter)
}

// Grade records the lab outcome. Approval requires a grade and is final;
// a rejected bale may be re-graded after rework.
func (s *BaleService) Grade(ctx context.Context, id int, req *models.GradeBaleRequest, actor auth.Actor) (*models.Bale, error) {
	if !actor.Can().Grade {
		return nil, apperr.PermissionDenied("role cannot grade bales")
	}

	switch req.Outcome {
	case models.LabApproved:
		if req.Grade == "" {
			return nil, apperr.Validation("grade is required when approving")
		}
	case models.LabRejected:
		if req.Note == "" {
			return nil, apperr.Validation("note is required when rejecting")
		}
	default:
		return nil, apperr.Validation("outcome must be approved or rejected")
	}

	bale, err := s.Bales.SetLabResult(ctx, id, req.Outcome, req.Grade, req.Note, actor.UserID, timeutil.Now())
	if err != nil {
		return nil, err
	}
	s.publish("bale.graded", bale.ID, bale.LabStatus)
	return bale, nil
}

// Dispose writes a bale off as waste or returns it to production. Only
// in-stock bales can be disposed; reserved and shipped bales belong to a
// checklist or a customer.
func (s *BaleService) Dispose(ctx context.Context, id int, to string, actor auth.Actor) (*models.Bale, error) {
	if !actor.Can().RegisterBales {
		return nil, apperr.PermissionDenied("role cannot dispose bales")
	}
	if to != models.BaleWaste && to != models.BaleReturned {
		return nil, apperr.Validation("disposal target must be waste or returned")
	}

	bale, err := s.Bales.Dispose(ctx, id, to)
	if err != nil {
		return nil, err
	}
	s.publish("bale.disposed", bale.ID, bale.Status)
	return bale, nil
}
