package services

import (
	"context"
	"testing"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"
)

func TestApproveReopensDraftKeepingReservations(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 2)

	req, err := env.checklists.RequestModification(ctx, cl.ID, "count is off", env.warehouse)
	if err != nil {
		t.Fatalf("request modification: %v", err)
	}

	reviewed, err := env.mods.Review(ctx, req.ID, true, "recount at gate 3", env.admin)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if reviewed.Status != models.ModificationApproved {
		t.Fatalf("expected approved, got %s", reviewed.Status)
	}
	if reviewed.ReviewedByUserID == nil || *reviewed.ReviewedByUserID != env.admin.UserID {
		t.Fatalf("expected review stamp for admin, got %+v", reviewed.ReviewedByUserID)
	}

	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if got.Status != models.ChecklistDraft {
		t.Fatalf("expected draft after approval, got %s", got.Status)
	}
	if got.ConfirmedAt != nil || got.LockedAt != nil {
		t.Fatal("expected confirm/lock stamps cleared after approval")
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected reservations kept, got %d items", len(got.Items))
	}
	for _, it := range got.Items {
		b, err := env.bales.GetBale(ctx, it.BaleID)
		if err != nil {
			t.Fatalf("get bale: %v", err)
		}
		if b.Status != models.BaleReserved {
			t.Fatalf("expected bale still reserved after approval, got %s", b.Status)
		}
	}
}

func TestApproveEditRelockRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 3)

	req, err := env.checklists.RequestModification(ctx, cl.ID, "drop one bale", env.warehouse)
	if err != nil {
		t.Fatalf("request modification: %v", err)
	}
	if _, err := env.mods.Review(ctx, req.ID, true, "", env.admin); err != nil {
		t.Fatalf("approve: %v", err)
	}

	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	got, err = env.checklists.RemoveItem(ctx, cl.ID, got.Items[0].ID, env.warehouse)
	if err != nil {
		t.Fatalf("remove item after approval: %v", err)
	}
	if _, err := env.checklists.Confirm(ctx, cl.ID, env.warehouse); err != nil {
		t.Fatalf("re-confirm: %v", err)
	}
	got, err = env.checklists.Lock(ctx, cl.ID, env.warehouse)
	if err != nil {
		t.Fatalf("re-lock: %v", err)
	}
	if got.Status != models.ChecklistLocked {
		t.Fatalf("expected locked, got %s", got.Status)
	}
	for i, it := range got.Items {
		if it.Position != i {
			t.Fatalf("positions not contiguous after round trip: item %d has position %d", i, it.Position)
		}
	}
}

func TestRejectReturnsToLocked(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)

	req, err := env.checklists.RequestModification(ctx, cl.ID, "typo", env.warehouse)
	if err != nil {
		t.Fatalf("request modification: %v", err)
	}

	// Rejection without a note is refused.
	_, err = env.mods.Review(ctx, req.ID, false, "", env.admin)
	wantKind(t, err, apperr.KindValidation)

	reviewed, err := env.mods.Review(ctx, req.ID, false, "numbers match the scale log", env.admin)
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if reviewed.Status != models.ModificationRejected {
		t.Fatalf("expected rejected, got %s", reviewed.Status)
	}

	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if got.Status != models.ChecklistLocked {
		t.Fatalf("expected locked after rejection, got %s", got.Status)
	}
}

func TestReviewRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)

	req, err := env.checklists.RequestModification(ctx, cl.ID, "reason", env.warehouse)
	if err != nil {
		t.Fatalf("request modification: %v", err)
	}

	_, err = env.mods.Review(ctx, req.ID, true, "", env.warehouse)
	wantKind(t, err, apperr.KindPermissionDenied)
}

func TestReviewSettledRequestRefused(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)

	req, err := env.checklists.RequestModification(ctx, cl.ID, "reason", env.warehouse)
	if err != nil {
		t.Fatalf("request modification: %v", err)
	}
	if _, err := env.mods.Review(ctx, req.ID, true, "", env.admin); err != nil {
		t.Fatalf("approve: %v", err)
	}

	_, err = env.mods.Review(ctx, req.ID, false, "too late", env.admin)
	wantKind(t, err, apperr.KindInvalidState)
}

func TestListModificationsFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)

	if _, err := env.checklists.RequestModification(ctx, cl.ID, "reason", env.warehouse); err != nil {
		t.Fatalf("request modification: %v", err)
	}

	pending, err := env.mods.ListModifications(ctx, models.ModificationPending)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected 1 pending request, got %d", len(pending))
	}

	_, err = env.mods.ListModifications(ctx, "bogus")
	wantKind(t, err, apperr.KindValidation)
}
