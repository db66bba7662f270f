package services

import (
	"context"
	"testing"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"
)

func TestCreateLotDefaultCapacity(t *testing.T) {
	env := newTestEnv(t)

	lot, err := env.lots.CreateLot(context.Background(), &models.CreateLotRequest{ProductType: "toy-bear"}, env.warehouse)
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}
	if lot.Capacity != models.DefaultLotCapacity {
		t.Fatalf("expected default capacity %d, got %d", models.DefaultLotCapacity, lot.Capacity)
	}
	if lot.Status != models.LotDraft {
		t.Fatalf("expected draft, got %s", lot.Status)
	}
	if lot.LotNumber == 0 {
		t.Fatal("expected assigned lot number")
	}
}

func TestLotStatusTransitions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	lot, err := env.lots.CreateLot(ctx, &models.CreateLotRequest{ProductType: "toy-bear"}, env.warehouse)
	if err != nil {
		t.Fatalf("create lot: %v", err)
	}

	// draft -> closed skips activation and is refused.
	_, err = env.lots.SetStatus(ctx, lot.ID, models.LotClosed, env.warehouse)
	wantKind(t, err, apperr.KindInvalidTransition)

	for _, to := range []string{models.LotActive, models.LotPaused, models.LotActive, models.LotClosed} {
		lot, err = env.lots.SetStatus(ctx, lot.ID, to, env.warehouse)
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
		if lot.Status != to {
			t.Fatalf("expected %s, got %s", to, lot.Status)
		}
	}

	// Closed is terminal.
	_, err = env.lots.SetStatus(ctx, lot.ID, models.LotActive, env.warehouse)
	wantKind(t, err, apperr.KindInvalidTransition)
}

func TestClosedLotKeepsExistingBalesMoving(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	b := env.approvedBale(t, lot.ID)

	if _, err := env.lots.SetStatus(ctx, lot.ID, models.LotClosed, env.warehouse); err != nil {
		t.Fatalf("close lot: %v", err)
	}

	// New registration is refused.
	_, err := env.bales.RegisterBale(ctx, &models.CreateBaleRequest{LotID: lot.ID, GrossWeight: 50, TareWeight: 2}, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)

	// But the existing bale still flows through its own lifecycle.
	cl := env.draftChecklist(t)
	if _, err := env.checklists.AddBales(ctx, cl.ID, []int{b.ID}, env.warehouse); err != nil {
		t.Fatalf("reserve bale from closed lot: %v", err)
	}
}

func TestLotManagementRequiresRole(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.lots.CreateLot(context.Background(), &models.CreateLotRequest{ProductType: "toy-bear"}, env.lab)
	wantKind(t, err, apperr.KindPermissionDenied)
}
