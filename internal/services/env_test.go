package services

import (
	"context"
	"testing"

	"textile-backend/internal/apperr"
	"textile-backend/internal/auth"
	"textile-backend/internal/models"
	"textile-backend/internal/storage/memory"
)

// testEnv wires every service against one shared in-memory store, the same
// way main wires them against the repositories.
type testEnv struct {
	store      *memory.Store
	lots       *LotService
	bales      *BaleService
	checklists *ChecklistService
	mods       *ModificationService
	shipments  *ShipmentService

	admin     auth.Actor
	warehouse auth.Actor
	lab       auth.Actor
	viewer    auth.Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore()
	return &testEnv{
		store:      store,
		lots:       NewLotService(store, nil),
		bales:      NewBaleService(store, store, nil),
		checklists: NewChecklistService(store, store, store, nil),
		mods:       NewModificationService(store, nil),
		shipments:  NewShipmentService(store, store, nil, nil, nil),
		admin:      auth.Actor{UserID: 1, Role: models.RoleAdmin},
		warehouse:  auth.Actor{UserID: 2, Role: models.RoleWarehouse},
		lab:        auth.Actor{UserID: 3, Role: models.RoleLab},
		viewer:     auth.Actor{UserID: 4, Role: models.RoleViewer},
	}
}

// activeLot creates a lot and moves it to active.
func (e *testEnv) activeLot(t *testing.T, capacity int) *models.Lot {
	t.Helper()
	ctx := context.Background()
	lot, err := e.lots.CreateLot(ctx, &models.CreateLotRequest{ProductType: "toy-bear", Capacity: capacity}, e.warehouse)
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	lot, err = e.lots.SetStatus(ctx, lot.ID, models.LotActive, e.warehouse)
	if err != nil {
		t.Fatalf("activate lot: %v", err)
	}
	return lot
}

// approvedBale registers a bale and approves it with grade A.
func (e *testEnv) approvedBale(t *testing.T, lotID int) *models.Bale {
	t.Helper()
	ctx := context.Background()
	b := e.pendingBale(t, lotID)
	b, err := e.bales.Grade(ctx, b.ID, &models.GradeBaleRequest{Outcome: models.LabApproved, Grade: "A"}, e.lab)
	if err != nil {
		t.Fatalf("grade bale: %v", err)
	}
	return b
}

func (e *testEnv) pendingBale(t *testing.T, lotID int) *models.Bale {
	t.Helper()
	b, err := e.bales.RegisterBale(context.Background(), &models.CreateBaleRequest{
		LotID:       lotID,
		GrossWeight: 52.5,
		TareWeight:  2.5,
	}, e.warehouse)
	if err != nil {
		t.Fatalf("register bale: %v", err)
	}
	return b
}

// draftChecklist creates an empty draft for customer 7.
func (e *testEnv) draftChecklist(t *testing.T) *models.Checklist {
	t.Helper()
	cl, err := e.checklists.CreateChecklist(context.Background(), &models.CreateChecklistRequest{CustomerID: 7}, e.warehouse)
	if err != nil {
		t.Fatalf("create checklist: %v", err)
	}
	return cl
}

// lockedChecklist builds a checklist with n approved bales, confirmed and locked.
func (e *testEnv) lockedChecklist(t *testing.T, lotID, n int) *models.Checklist {
	t.Helper()
	ctx := context.Background()
	cl := e.draftChecklist(t)
	var ids []int
	for i := 0; i < n; i++ {
		ids = append(ids, e.approvedBale(t, lotID).ID)
	}
	if _, err := e.checklists.AddBales(ctx, cl.ID, ids, e.warehouse); err != nil {
		t.Fatalf("add bales: %v", err)
	}
	if _, err := e.checklists.Confirm(ctx, cl.ID, e.warehouse); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	cl, err := e.checklists.Lock(ctx, cl.ID, e.warehouse)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	return cl
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if !apperr.IsKind(err, kind) {
		t.Fatalf("expected %s error, got %v", kind, err)
	}
}
