package services

import (
	"context"
	"sync"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/events"
	"textile-backend/internal/metrics"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"
	"textile-backend/internal/timeutil"
)

// ChecklistService drives the reservation lifecycle: draft -> confirmed ->
// locked -> (modification_requested -> draft | locked). Mutations on the same
// checklist are serialized through a per-checklist mutex so summary
// recomputation and position renumbering never interleave; different
// checklists proceed in parallel. The bale-level race (two terminals grabbing
// the same bale for different checklists) is settled below us by the store's
// conditional update.
type ChecklistService struct {
	Checklists storage.ChecklistStore
	Bales      storage.BaleStore
	Mods       storage.ModificationStore
	Events     events.Publisher

	mu    sync.Mutex
	locks map[int]*sync.Mutex
}

func NewChecklistService(
	checklists storage.ChecklistStore,
	bales storage.BaleStore,
	mods storage.ModificationStore,
	publisher events.Publisher,
) *ChecklistService {
	return &ChecklistService{
		Checklists: checklists,
		Bales:      bales,
		Mods:       mods,
		Events:     publisher,
		locks:      make(map[int]*sync.Mutex),
	}
}

// lock returns the mutex for one checklist, creating it on first use.
func (s *ChecklistService) lock(checklistID int) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[checklistID]
	if !ok {
		m = &sync.Mutex{}
		s.locks[checklistID] = m
	}
	return m
}

func (s *ChecklistService) publish(eventType, entity string, id int, status string) {
	if s.Events != nil {
		s.Events.Publish(events.Event{Type: eventType, Entity: entity, ID: id, Status: status})
	}
}

// withSummary recomputes the summary from the items. It is never persisted
// and never served stale.
func withSummary(cl *models.Checklist) *models.Checklist {
	cl.Summary = models.BuildSummary(cl.Items)
	return cl
}

// CreateChecklist starts an empty draft for a customer order.
func (s *ChecklistService) CreateChecklist(ctx context.Context, req *models.CreateChecklistRequest, actor auth.Actor) (*models.Checklist, error) {
	if !actor.Can().EditChecklists {
		return nil, apperr.PermissionDenied("role cannot edit checklists")
	}
	if req.CustomerID <= 0 {
		return nil, apperr.Validation("customer_id is required")
	}

	cl := &models.Checklist{
		WorkspaceID:     req.WorkspaceID,
		CustomerID:      req.CustomerID,
		CreatedByUserID: actor.UserID,
	}
	if err := s.Checklists.CreateChecklist(ctx, cl); err != nil {
		return nil, err
	}
	s.publish("checklist.created", "checklist", cl.ID, cl.Status)
	return withSummary(cl), nil
}

func (s *ChecklistService) GetChecklist(ctx context.Context, id int) (*models.Checklist, error) {
	cl, err := s.Checklists.GetChecklist(ctx, id)
	if err != nil {
		return nil, err
	}
	return withSummary(cl), nil
}

func (s *ChecklistService) ListChecklists(ctx context.Context, workspaceID int) ([]models.Checklist, error) {
	lists, err := s.Checklists.ListChecklists(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	for i := range lists {
		lists[i].Summary = models.BuildSummary(lists[i].Items)
	}
	return lists, nil
}

// AddBales reserves a batch of bales onto a draft checklist. The batch is
// all-or-nothing: one ineligible bale rejects the whole request and the
// error names every failing bale, so the terminal can drop them and retry.
func (s *ChecklistService) AddBales(ctx context.Context, checklistID int, baleIDs []int, actor auth.Actor) (*models.Checklist, error) {
	if !actor.Can().EditChecklists {
		return nil, apperr.PermissionDenied("role cannot edit checklists")
	}
	if len(baleIDs) == 0 {
		return nil, apperr.Validation("bale_ids must not be empty")
	}

	m := s.lock(checklistID)
	m.Lock()
	defer m.Unlock()

	cl, err := s.Checklists.ReserveAndAppend(ctx, checklistID, baleIDs)
	if err != nil {
		if apperr.IsKind(err, apperr.KindIneligibleBale) {
			metrics.ReservationConflictsTotal.Inc()
		}
		return nil, err
	}
	metrics.ReservationsTotal.Add(float64(len(baleIDs)))
	for _, id := range baleIDs {
		s.publish("bale.reserved", "bale", id, models.BaleReserved)
	}
	return withSummary(cl), nil
}

// RemoveItem releases one bale from a draft checklist and renumbers the
// remaining positions.
func (s *ChecklistService) RemoveItem(ctx context.Context, checklistID, itemID int, actor auth.Actor) (*models.Checklist, error) {
	if !actor.Can().EditChecklists {
		return nil, apperr.PermissionDenied("role cannot edit checklists")
	}

	m := s.lock(checklistID)
	m.Lock()
	defer m.Unlock()

	cl, err := s.Checklists.ReleaseItem(ctx, checklistID, itemID)
	if err != nil {
		return nil, err
	}
	return withSummary(cl), nil
}

// Confirm freezes the item content of a non-empty draft.
func (s *ChecklistService) Confirm(ctx context.Context, checklistID int, actor auth.Actor) (*models.Checklist, error) {
	if !actor.Can().EditChecklists {
		return nil, apperr.PermissionDenied("role cannot edit checklists")
	}

	m := s.lock(checklistID)
	m.Lock()
	defer m.Unlock()

	cl, err := s.Checklists.GetChecklist(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if len(cl.Items) == 0 {
		return nil, apperr.InvalidState("checklist", checklistID, cl.Status, "cannot confirm an empty checklist")
	}
	if err := s.Checklists.SetChecklistStatus(ctx, checklistID, models.ChecklistDraft, models.ChecklistConfirmed, actor.UserID, timeutil.Now()); err != nil {
		return nil, err
	}
	metrics.ChecklistTransitionsTotal.WithLabelValues(models.ChecklistConfirmed).Inc()
	s.publish("checklist.confirmed", "checklist", checklistID, models.ChecklistConfirmed)
	return s.GetChecklist(ctx, checklistID)
}

// Lock is the durability boundary: after it the reservation becomes
// shipment-eligible and item removal is refused.
func (s *ChecklistService) Lock(ctx context.Context, checklistID int, actor auth.Actor) (*models.Checklist, error) {
	if !actor.Can().Lock {
		return nil, apperr.PermissionDenied("role cannot lock checklists")
	}

	m := s.lock(checklistID)
	m.Lock()
	defer m.Unlock()

	cl, err := s.Checklists.GetChecklist(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if len(cl.Items) == 0 {
		return nil, apperr.InvalidState("checklist", checklistID, cl.Status, "cannot lock an empty checklist")
	}
	if err := s.Checklists.SetChecklistStatus(ctx, checklistID, models.ChecklistConfirmed, models.ChecklistLocked, actor.UserID, timeutil.Now()); err != nil {
		return nil, err
	}
	metrics.ChecklistTransitionsTotal.WithLabelValues(models.ChecklistLocked).Inc()
	s.publish("checklist.locked", "checklist", checklistID, models.ChecklistLocked)
	return s.GetChecklist(ctx, checklistID)
}

// DeleteChecklist cancels a draft, releasing any bales still reserved on it.
func (s *ChecklistService) DeleteChecklist(ctx context.Context, checklistID int, actor auth.Actor) error {
	if !actor.Can().EditChecklists {
		return apperr.PermissionDenied("role cannot edit checklists")
	}

	m := s.lock(checklistID)
	m.Lock()
	defer m.Unlock()

	if err := s.Checklists.DeleteChecklist(ctx, checklistID); err != nil {
		return err
	}
	s.publish("checklist.deleted", "checklist", checklistID, "")
	return nil
}

// RequestModification files a post-lock correction request. The checklist
// moves to modification_requested but its bales stay reserved: the intent is
// correction, not cancellation.
func (s *ChecklistService) RequestModification(ctx context.Context, checklistID int, reason string, actor auth.Actor) (*models.ModificationRequest, error) {
	if !actor.Can().RequestModification {
		return nil, apperr.PermissionDenied("role cannot request modifications")
	}
	if reason == "" {
		return nil, apperr.Validation("reason is required")
	}

	m := s.lock(checklistID)
	m.Lock()
	defer m.Unlock()

	cl, err := s.Checklists.GetChecklist(ctx, checklistID)
	if err != nil {
		return nil, err
	}
	if cl.Status != models.ChecklistLocked {
		return nil, apperr.InvalidState("checklist", checklistID, cl.Status, "modifications can only be requested on a locked checklist")
	}

	// Freeze the summary now: whatever happens to the checklist later, the
	// reviewer compares against these numbers.
	summary := models.BuildSummary(cl.Items)
	req := &models.ModificationRequest{
		ChecklistID:       checklistID,
		RequestedByUserID: actor.UserID,
		RequestedRole:     actor.Role,
		Reason:            reason,
		Snapshot: models.ModificationSnapshot{
			TotalToys:     summary.TotalToys,
			TotalWeight:   summary.TotalWeight,
			MarkasCount:   summary.MarkasCount,
			AverageWeight: summary.AverageWeight,
		},
	}
	if err := s.Mods.CreateModification(ctx, req); err != nil {
		return nil, err
	}
	metrics.ChecklistTransitionsTotal.WithLabelValues(models.ChecklistModRequested).Inc()
	s.publish("checklist.modification_requested", "checklist", checklistID, models.ChecklistModRequested)
	return req, nil
}
