// Package memory provides an in-memory implementation of the storage
// interfaces. It backs unit tests and the single-binary demo mode; the
// production deployment uses the pgx repositories instead.
//
// All operations run under one mutex, which gives the same atomicity
// guarantees the SQL implementations get from transactions and conditional
// updates.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"
	"textile-backend/internal/timeutil"
)

type Store struct {
	mu sync.Mutex

	lotSeq       int
	baleSeq      int
	checklistSeq int
	itemSeq      int
	modSeq       int
	shipmentSeq  int
	userSeq      int
	actionSeq    int

	lots       map[int]*models.Lot
	bales      map[int]*models.Bale
	balesByQR  map[string]int
	checklists map[int]*models.Checklist
	mods       map[int]*models.ModificationRequest
	shipments  map[int]*models.Shipment
	users      map[int]*models.User
	emails     map[string]int
	actions    []models.ActionLog
}

var _ storage.LotStore = (*Store)(nil)
var _ storage.BaleStore = (*Store)(nil)
var _ storage.ChecklistStore = (*Store)(nil)
var _ storage.ModificationStore = (*Store)(nil)
var _ storage.ShipmentStore = (*Store)(nil)
var _ storage.UserStore = (*Store)(nil)
var _ storage.ActionLogStore = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		lots:       map[int]*models.Lot{},
		bales:      map[int]*models.Bale{},
		balesByQR:  map[string]int{},
		checklists: map[int]*models.Checklist{},
		mods:       map[int]*models.ModificationRequest{},
		shipments:  map[int]*models.Shipment{},
		users:      map[int]*models.User{},
		emails:     map[string]int{},
	}
}

func cloneLot(l *models.Lot) *models.Lot {
	c := *l
	return &c
}

func cloneBale(b *models.Bale) *models.Bale {
	c := *b
	return &c
}

func cloneChecklist(cl *models.Checklist) *models.Checklist {
	c := *cl
	c.Items = append([]models.ChecklistItem(nil), cl.Items...)
	c.Summary = nil
	return &c
}

func cloneMod(m *models.ModificationRequest) *models.ModificationRequest {
	c := *m
	return &c
}

func cloneShipment(s *models.Shipment) *models.Shipment {
	c := *s
	return &c
}

// --- LotStore ---

func (s *Store) CreateLot(_ context.Context, lot *models.Lot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lotSeq++
	lot.ID = s.lotSeq
	lot.LotNumber = s.lotSeq
	if lot.Status == "" {
		lot.Status = models.LotDraft
	}
	now := timeutil.Now()
	lot.CreatedAt = now
	lot.UpdatedAt = now
	s.lots[lot.ID] = cloneLot(lot)
	return nil
}

func (s *Store) GetLot(_ context.Context, id int) (*models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return nil, apperr.NotFound("lot", id)
	}
	return cloneLot(lot), nil
}

func (s *Store) ListLots(_ context.Context) ([]models.Lot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Lot, 0, len(s.lots))
	for _, l := range s.lots {
		out = append(out, *cloneLot(l))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetLotStatus(_ context.Context, id int, from, to string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	lot, ok := s.lots[id]
	if !ok {
		return apperr.NotFound("lot", id)
	}
	if lot.Status != from {
		return apperr.InvalidState("lot", id, lot.Status, "expected status "+from)
	}
	lot.Status = to
	lot.UpdatedAt = timeutil.Now()
	return nil
}

// --- BaleStore ---

func (s *Store) CreateBale(_ context.Context, bale *models.Bale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	lot, ok := s.lots[bale.LotID]
	if !ok {
		return apperr.NotFound("lot", bale.LotID)
	}
	if lot.Status != models.LotActive {
		return apperr.InvalidState("lot", lot.ID, lot.Status, "lot does not accept new bales")
	}
	if lot.Used >= lot.Capacity {
		return apperr.CapacityExceeded(lot.ID, lot.Capacity)
	}

	s.baleSeq++
	bale.ID = s.baleSeq
	if bale.Status == "" {
		bale.Status = models.BaleInStock
	}
	if bale.LabStatus == "" {
		bale.LabStatus = models.LabPending
	}
	now := timeutil.Now()
	bale.CreatedAt = now
	bale.UpdatedAt = now

	lot.Used++
	lot.UpdatedAt = now
	s.bales[bale.ID] = cloneBale(bale)
	s.balesByQR[bale.QRCode] = bale.ID
	return nil
}

func (s *Store) GetBale(_ context.Context, id int) (*models.Bale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bales[id]
	if !ok {
		return nil, apperr.NotFound("bale", id)
	}
	return cloneBale(b), nil
}

func (s *Store) GetBaleByQR(_ context.Context, qrCode string) (*models.Bale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.balesByQR[qrCode]
	if !ok {
		return nil, apperr.NotFound("bale", 0)
	}
	return cloneBale(s.bales[id]), nil
}

func (s *Store) ListBales(_ context.Context, filter storage.BaleFilter) ([]models.Bale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Bale
	for _, b := range s.bales {
		if filter.LotID != nil && b.LotID != *filter.LotID {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		if filter.LabStatus != "" && b.LabStatus != filter.LabStatus {
			continue
		}
		out = append(out, *cloneBale(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetLabResult(_ context.Context, id int, labStatus, grade, note string, by int, at time.Time) (*models.Bale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bales[id]
	if !ok {
		return nil, apperr.NotFound("bale", id)
	}
	// A rejected bale may be re-graded after rework; an approved one is final.
	if b.LabStatus == models.LabApproved {
		return nil, apperr.InvalidState("bale", id, b.LabStatus, "bale already graded")
	}
	b.LabStatus = labStatus
	b.Grade = grade
	if note != "" {
		b.LabNote = &note
	}
	b.GradedByUserID = &by
	b.GradedAt = &at
	b.UpdatedAt = at
	return cloneBale(b), nil
}

func (s *Store) Dispose(_ context.Context, id int, to string) (*models.Bale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bales[id]
	if !ok {
		return nil, apperr.NotFound("bale", id)
	}
	if b.Status != models.BaleInStock {
		return nil, apperr.InvalidState("bale", id, b.Status, "only in-stock bales can be disposed")
	}
	b.Status = to
	b.UpdatedAt = timeutil.Now()
	if lot, ok := s.lots[b.LotID]; ok {
		lot.Used--
		lot.UpdatedAt = b.UpdatedAt
	}
	return cloneBale(b), nil
}

// --- ChecklistStore ---

func (s *Store) CreateChecklist(_ context.Context, cl *models.Checklist) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checklistSeq++
	cl.ID = s.checklistSeq
	cl.Status = models.ChecklistDraft
	now := timeutil.Now()
	cl.CreatedAt = now
	cl.UpdatedAt = now
	cl.Items = nil
	s.checklists[cl.ID] = cloneChecklist(cl)
	return nil
}

func (s *Store) GetChecklist(_ context.Context, id int) (*models.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cl, ok := s.checklists[id]
	if !ok {
		return nil, apperr.NotFound("checklist", id)
	}
	return cloneChecklist(cl), nil
}

func (s *Store) ListChecklists(_ context.Context, workspaceID int) ([]models.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Checklist
	for _, cl := range s.checklists {
		if workspaceID != 0 && cl.WorkspaceID != workspaceID {
			continue
		}
		out = append(out, *cloneChecklist(cl))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ReserveAndAppend(_ context.Context, checklistID int, baleIDs []int) (*models.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.checklists[checklistID]
	if !ok {
		return nil, apperr.NotFound("checklist", checklistID)
	}
	if cl.Status != models.ChecklistDraft {
		return nil, apperr.InvalidState("checklist", checklistID, cl.Status, "bales can only be added to a draft checklist")
	}

	// First pass: collect every failure so the whole batch can be rejected
	// with a full report. Nothing is mutated until the batch is clean.
	var failures []apperr.BaleFailure
	seen := map[int]bool{}
	for _, id := range baleIDs {
		if seen[id] {
			failures = append(failures, apperr.BaleFailure{BaleID: id, Reason: "duplicated in request"})
			continue
		}
		seen[id] = true
		b, ok := s.bales[id]
		if !ok {
			failures = append(failures, apperr.BaleFailure{BaleID: id, Reason: "not found"})
			continue
		}
		if !b.Eligible() {
			failures = append(failures, apperr.BaleFailure{BaleID: id, Reason: b.IneligibleReason()})
		}
	}
	if len(failures) > 0 {
		return nil, apperr.IneligibleBale(failures...)
	}

	now := timeutil.Now()
	for _, id := range baleIDs {
		b := s.bales[id]
		b.Status = models.BaleReserved
		b.UpdatedAt = now
		s.itemSeq++
		cl.Items = append(cl.Items, models.ChecklistItem{
			ID:          s.itemSeq,
			ChecklistID: checklistID,
			Position:    len(cl.Items),
			BaleID:      b.ID,
			QRCode:      b.QRCode,
			LotID:       b.LotID,
			NetWeight:   b.NetWeight,
			Grade:       b.Grade,
			AddedAt:     now,
		})
	}
	cl.UpdatedAt = now
	return cloneChecklist(cl), nil
}

func (s *Store) ReleaseItem(_ context.Context, checklistID, itemID int) (*models.Checklist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.checklists[checklistID]
	if !ok {
		return nil, apperr.NotFound("checklist", checklistID)
	}
	if cl.Status != models.ChecklistDraft {
		return nil, apperr.InvalidState("checklist", checklistID, cl.Status, "items can only be removed from a draft checklist")
	}

	idx := -1
	for i, it := range cl.Items {
		if it.ID == itemID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("checklist_item", itemID)
	}

	now := timeutil.Now()
	if b, ok := s.bales[cl.Items[idx].BaleID]; ok && b.Status == models.BaleReserved {
		b.Status = models.BaleInStock
		b.UpdatedAt = now
	}
	cl.Items = append(cl.Items[:idx], cl.Items[idx+1:]...)
	for i := range cl.Items {
		cl.Items[i].Position = i
	}
	cl.UpdatedAt = now
	return cloneChecklist(cl), nil
}

func (s *Store) SetChecklistStatus(_ context.Context, id int, from, to string, by int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.checklists[id]
	if !ok {
		return apperr.NotFound("checklist", id)
	}
	if cl.Status != from {
		return apperr.InvalidState("checklist", id, cl.Status, "expected status "+from)
	}
	cl.Status = to
	cl.UpdatedAt = at
	switch to {
	case models.ChecklistConfirmed:
		cl.ConfirmedByUserID = &by
		cl.ConfirmedAt = &at
	case models.ChecklistLocked:
		cl.LockedByUserID = &by
		cl.LockedAt = &at
	case models.ChecklistDraft:
		// Re-opened for editing: the old confirm/lock stamps no longer apply.
		cl.ConfirmedByUserID = nil
		cl.ConfirmedAt = nil
		cl.LockedByUserID = nil
		cl.LockedAt = nil
	}
	return nil
}

func (s *Store) DeleteChecklist(_ context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.checklists[id]
	if !ok {
		return apperr.NotFound("checklist", id)
	}
	if cl.Status != models.ChecklistDraft {
		return apperr.InvalidState("checklist", id, cl.Status, "only a draft checklist can be deleted")
	}
	now := timeutil.Now()
	for _, it := range cl.Items {
		if b, ok := s.bales[it.BaleID]; ok && b.Status == models.BaleReserved {
			b.Status = models.BaleInStock
			b.UpdatedAt = now
		}
	}
	delete(s.checklists, id)
	return nil
}

// --- ModificationStore ---

func (s *Store) CreateModification(_ context.Context, req *models.ModificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.checklists[req.ChecklistID]
	if !ok {
		return apperr.NotFound("checklist", req.ChecklistID)
	}
	for _, m := range s.mods {
		if m.ChecklistID == req.ChecklistID && m.Status == models.ModificationPending {
			return apperr.DuplicateRequest(req.ChecklistID)
		}
	}
	if cl.Status != models.ChecklistLocked {
		return apperr.InvalidState("checklist", cl.ID, cl.Status, "modifications can only be requested on a locked checklist")
	}

	s.modSeq++
	req.ID = s.modSeq
	req.Status = models.ModificationPending
	req.CreatedAt = timeutil.Now()
	cl.Status = models.ChecklistModRequested
	cl.UpdatedAt = req.CreatedAt
	s.mods[req.ID] = cloneMod(req)
	return nil
}

func (s *Store) GetModification(_ context.Context, id int) (*models.ModificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.mods[id]
	if !ok {
		return nil, apperr.NotFound("modification_request", id)
	}
	return cloneMod(m), nil
}

func (s *Store) ListModifications(_ context.Context, status string) ([]models.ModificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ModificationRequest
	for _, m := range s.mods {
		if status != "" && m.Status != status {
			continue
		}
		out = append(out, *cloneMod(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ReviewModification(_ context.Context, id int, approve bool, by int, note string, at time.Time) (*models.ModificationRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.mods[id]
	if !ok {
		return nil, apperr.NotFound("modification_request", id)
	}
	if m.Status != models.ModificationPending {
		return nil, apperr.InvalidState("modification_request", id, m.Status, "request already reviewed")
	}
	cl, ok := s.checklists[m.ChecklistID]
	if !ok {
		return nil, apperr.NotFound("checklist", m.ChecklistID)
	}
	if cl.Status != models.ChecklistModRequested {
		return nil, apperr.InvalidState("checklist", cl.ID, cl.Status, "checklist is not awaiting review")
	}

	if approve {
		m.Status = models.ModificationApproved
		cl.Status = models.ChecklistDraft
		cl.ConfirmedByUserID = nil
		cl.ConfirmedAt = nil
		cl.LockedByUserID = nil
		cl.LockedAt = nil
	} else {
		m.Status = models.ModificationRejected
		cl.Status = models.ChecklistLocked
	}
	m.ReviewedByUserID = &by
	m.ReviewedAt = &at
	if note != "" {
		m.ReviewNote = &note
	}
	cl.UpdatedAt = at
	return cloneMod(m), nil
}

// --- ShipmentStore ---

func (s *Store) CreateShipment(_ context.Context, sh *models.Shipment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cl, ok := s.checklists[sh.ChecklistID]
	if !ok {
		return apperr.NotFound("checklist", sh.ChecklistID)
	}
	if cl.Status != models.ChecklistLocked {
		return apperr.InvalidState("checklist", cl.ID, cl.Status, "only a locked checklist can be dispatched")
	}

	now := timeutil.Now()
	for _, it := range cl.Items {
		if b, ok := s.bales[it.BaleID]; ok && b.Status == models.BaleReserved {
			b.Status = models.BaleShipped
			b.UpdatedAt = now
		}
	}

	s.shipmentSeq++
	sh.ID = s.shipmentSeq
	sh.Status = models.ShipmentPending
	sh.CreatedAt = now
	sh.UpdatedAt = now
	s.shipments[sh.ID] = cloneShipment(sh)
	return nil
}

func (s *Store) GetShipment(_ context.Context, id int) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[id]
	if !ok {
		return nil, apperr.NotFound("shipment", id)
	}
	return cloneShipment(sh), nil
}

func (s *Store) ListShipments(_ context.Context) ([]models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Shipment
	for _, sh := range s.shipments {
		out = append(out, *cloneShipment(sh))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetShipmentStatus(_ context.Context, id int, from, to, notes string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[id]
	if !ok {
		return apperr.NotFound("shipment", id)
	}
	if sh.Status != from {
		return apperr.InvalidTransition("shipment", id, sh.Status, to)
	}
	sh.Status = to
	if notes != "" {
		sh.Notes = &notes
	}
	sh.UpdatedAt = timeutil.Now()
	return nil
}

func (s *Store) SetDocumentFlag(_ context.Context, id int, document string, ready bool) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[id]
	if !ok {
		return nil, apperr.NotFound("shipment", id)
	}
	switch document {
	case "waybill":
		sh.Documents.Waybill = ready
	case "invoice":
		sh.Documents.Invoice = ready
	case "packing":
		sh.Documents.Packing = ready
	case "quality":
		sh.Documents.Quality = ready
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown document %q", document))
	}
	sh.UpdatedAt = timeutil.Now()
	return cloneShipment(sh), nil
}

func (s *Store) CompleteShipment(_ context.Context, id int, deliveredAt time.Time, recipient string, proofKey *string) (*models.Shipment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.shipments[id]
	if !ok {
		return nil, apperr.NotFound("shipment", id)
	}
	if sh.Status != models.ShipmentShipped {
		return nil, apperr.InvalidState("shipment", id, sh.Status, "only a shipped shipment can be completed")
	}
	sh.Status = models.ShipmentDelivered
	sh.DeliveredAt = &deliveredAt
	sh.RecipientName = &recipient
	sh.ProofKey = proofKey
	sh.UpdatedAt = deliveredAt
	return cloneShipment(sh), nil
}

// --- UserStore ---

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.emails[u.Email]; exists {
		return apperr.Validation("email already registered")
	}
	s.userSeq++
	u.ID = s.userSeq
	now := timeutil.Now()
	u.CreatedAt = now
	u.UpdatedAt = now
	c := *u
	s.users[u.ID] = &c
	s.emails[u.Email] = u.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id int) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id)
	}
	c := *u
	return &c, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.emails[email]
	if !ok {
		return nil, apperr.NotFound("user", 0)
	}
	c := *s.users[id]
	return &c, nil
}

func (s *Store) ListUsers(_ context.Context) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SetUserActive(_ context.Context, id int, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return apperr.NotFound("user", id)
	}
	u.IsActive = active
	u.UpdatedAt = timeutil.Now()
	return nil
}

// --- ActionLogStore ---

func (s *Store) AppendAction(_ context.Context, a *models.ActionLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionSeq++
	a.ID = s.actionSeq
	a.CreatedAt = timeutil.Now()
	s.actions = append(s.actions, *a)
	return nil
}

func (s *Store) ListActions(_ context.Context, limit int) ([]models.ActionLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.actions)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]models.ActionLog, limit)
	// newest first
	for i := 0; i < limit; i++ {
		out[i] = s.actions[n-1-i]
	}
	return out, nil
}
