package services

import (
	"context"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/events"
	"textile-backend/internal/metrics"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"
	"textile-backend/internal/timeutil"
)

// ModificationService is the review side of the correction workflow.
// Requests are filed through ChecklistService; supervisors settle them here.
type ModificationService struct {
	Mods   storage.ModificationStore
	Events events.Publisher
}

func NewModificationService(mods storage.ModificationStore, publisher events.Publisher) *ModificationService {
	return &ModificationService{Mods: mods, Events: publisher}
}

func (s *ModificationService) GetModification(ctx context.Context, id int) (*models.ModificationRequest, error) {
	return s.Mods.GetModification(ctx, id)
}

// ListModifications returns requests, optionally filtered by status. The
// pending queue is what the supervisor screen polls.
func (s *ModificationService) ListModifications(ctx context.Context, status string) ([]models.ModificationRequest, error) {
	if status != "" &&
		status != models.ModificationPending &&
		status != models.ModificationApproved &&
		status != models.ModificationRejected {
		return nil, apperr.Validation("unknown modification status filter")
	}
	return s.Mods.ListModifications(ctx, status)
}

// Review settles a pending request. Approval reopens the checklist as a
// draft with its reservations intact; rejection returns it to locked. Either
// way the checklist leaves modification_requested in the same transaction
// that stamps the request, so a crash cannot strand it between states.
func (s *ModificationService) Review(ctx context.Context, id int, approve bool, note string, actor auth.Actor) (*models.ModificationRequest, error) {
	if !actor.Can().ReviewModifications {
		return nil, apperr.PermissionDenied("role cannot review modification requests")
	}
	if !approve && note == "" {
		return nil, apperr.Validation("note is required when rejecting")
	}

	req, err := s.Mods.ReviewModification(ctx, id, approve, actor.UserID, note, timeutil.Now())
	if err != nil {
		return nil, err
	}

	checklistStatus := models.ChecklistLocked
	eventType := "checklist.modification_rejected"
	if approve {
		checklistStatus = models.ChecklistDraft
		eventType = "checklist.modification_approved"
	}
	metrics.ChecklistTransitionsTotal.WithLabelValues(checklistStatus).Inc()
	if s.Events != nil {
		s.Events.Publish(events.Event{Type: eventType, Entity: "checklist", ID: req.ChecklistID, Status: checklistStatus})
	}
	return req, nil
}
