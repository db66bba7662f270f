package services

import (
	"context"
	"sync"
	"testing"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"
)

func TestAddBalesReservesBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.draftChecklist(t)

	b1 := env.approvedBale(t, lot.ID)
	b2 := env.approvedBale(t, lot.ID)

	got, err := env.checklists.AddBales(ctx, cl.ID, []int{b1.ID, b2.ID}, env.warehouse)
	if err != nil {
		t.Fatalf("add bales: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	for i, it := range got.Items {
		if it.Position != i {
			t.Fatalf("expected position %d, got %d", i, it.Position)
		}
	}
	if got.Summary == nil || got.Summary.TotalToys != 2 {
		t.Fatalf("expected summary with 2 toys, got %+v", got.Summary)
	}
	if got.Summary.TotalWeight != 100 {
		t.Fatalf("expected total weight 100, got %v", got.Summary.TotalWeight)
	}

	reserved, err := env.bales.GetBale(ctx, b1.ID)
	if err != nil {
		t.Fatalf("get bale: %v", err)
	}
	if reserved.Status != models.BaleReserved {
		t.Fatalf("expected bale reserved, got %s", reserved.Status)
	}
}

func TestAddBalesAllOrNothing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.draftChecklist(t)

	good := env.approvedBale(t, lot.ID)
	ungraded := env.pendingBale(t, lot.ID)

	_, err := env.checklists.AddBales(ctx, cl.ID, []int{good.ID, ungraded.ID, good.ID}, env.warehouse)
	wantKind(t, err, apperr.KindIneligibleBale)

	ae, _ := apperr.From(err)
	if len(ae.Failures) != 2 {
		t.Fatalf("expected 2 failures (ungraded + duplicate), got %+v", ae.Failures)
	}

	// The eligible bale must not have been reserved.
	b, err := env.bales.GetBale(ctx, good.ID)
	if err != nil {
		t.Fatalf("get bale: %v", err)
	}
	if b.Status != models.BaleInStock {
		t.Fatalf("expected eligible bale untouched, got %s", b.Status)
	}

	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if len(got.Items) != 0 {
		t.Fatalf("expected no items after failed batch, got %d", len(got.Items))
	}
}

func TestAddBalesConcurrentOneWinner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	contested := env.approvedBale(t, lot.ID)

	cl1 := env.draftChecklist(t)
	cl2 := env.draftChecklist(t)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int{cl1.ID, cl2.ID} {
		wg.Add(1)
		go func(i, checklistID int) {
			defer wg.Done()
			_, errs[i] = env.checklists.AddBales(ctx, checklistID, []int{contested.ID}, env.warehouse)
		}(i, id)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else if !apperr.IsKind(err, apperr.KindIneligibleBale) {
			t.Fatalf("loser got unexpected error: %v", err)
		}
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins)
	}
}

func TestConfirmRequiresItems(t *testing.T) {
	env := newTestEnv(t)
	cl := env.draftChecklist(t)

	_, err := env.checklists.Confirm(context.Background(), cl.ID, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)
}

func TestChecklistLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.draftChecklist(t)
	b := env.approvedBale(t, lot.ID)

	if _, err := env.checklists.AddBales(ctx, cl.ID, []int{b.ID}, env.warehouse); err != nil {
		t.Fatalf("add bales: %v", err)
	}

	// Lock straight from draft is refused.
	_, err := env.checklists.Lock(ctx, cl.ID, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)

	got, err := env.checklists.Confirm(ctx, cl.ID, env.warehouse)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != models.ChecklistConfirmed {
		t.Fatalf("expected confirmed, got %s", got.Status)
	}
	if got.ConfirmedByUserID == nil || *got.ConfirmedByUserID != env.warehouse.UserID {
		t.Fatalf("expected confirm stamp for user %d, got %+v", env.warehouse.UserID, got.ConfirmedByUserID)
	}

	got, err = env.checklists.Lock(ctx, cl.ID, env.warehouse)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	if got.Status != models.ChecklistLocked {
		t.Fatalf("expected locked, got %s", got.Status)
	}

	// Post-lock edits are refused.
	_, err = env.checklists.AddBales(ctx, cl.ID, []int{env.approvedBale(t, lot.ID).ID}, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)
	_, err = env.checklists.RemoveItem(ctx, cl.ID, got.Items[0].ID, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)
}

func TestRemoveItemRenumbersPositions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.draftChecklist(t)

	ids := []int{
		env.approvedBale(t, lot.ID).ID,
		env.approvedBale(t, lot.ID).ID,
		env.approvedBale(t, lot.ID).ID,
	}
	got, err := env.checklists.AddBales(ctx, cl.ID, ids, env.warehouse)
	if err != nil {
		t.Fatalf("add bales: %v", err)
	}

	middle := got.Items[1]
	got, err = env.checklists.RemoveItem(ctx, cl.ID, middle.ID, env.warehouse)
	if err != nil {
		t.Fatalf("remove item: %v", err)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	for i, it := range got.Items {
		if it.Position != i {
			t.Fatalf("positions not contiguous after removal: item %d has position %d", i, it.Position)
		}
	}

	released, err := env.bales.GetBale(ctx, middle.BaleID)
	if err != nil {
		t.Fatalf("get bale: %v", err)
	}
	if released.Status != models.BaleInStock {
		t.Fatalf("expected released bale in stock, got %s", released.Status)
	}
}

func TestDeleteDraftReleasesBales(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.draftChecklist(t)
	b := env.approvedBale(t, lot.ID)

	if _, err := env.checklists.AddBales(ctx, cl.ID, []int{b.ID}, env.warehouse); err != nil {
		t.Fatalf("add bales: %v", err)
	}
	if err := env.checklists.DeleteChecklist(ctx, cl.ID, env.warehouse); err != nil {
		t.Fatalf("delete checklist: %v", err)
	}

	_, err := env.checklists.GetChecklist(ctx, cl.ID)
	wantKind(t, err, apperr.KindNotFound)

	got, err := env.bales.GetBale(ctx, b.ID)
	if err != nil {
		t.Fatalf("get bale: %v", err)
	}
	if got.Status != models.BaleInStock {
		t.Fatalf("expected bale back in stock, got %s", got.Status)
	}
}

func TestRequestModificationFreezesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 2)

	req, err := env.checklists.RequestModification(ctx, cl.ID, "wrong grade on bale 2", env.warehouse)
	if err != nil {
		t.Fatalf("request modification: %v", err)
	}
	if req.Snapshot.TotalToys != 2 {
		t.Fatalf("expected snapshot of 2 toys, got %d", req.Snapshot.TotalToys)
	}
	if req.Snapshot.TotalWeight != 100 {
		t.Fatalf("expected snapshot weight 100, got %v", req.Snapshot.TotalWeight)
	}
	if req.Status != models.ModificationPending {
		t.Fatalf("expected pending request, got %s", req.Status)
	}

	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if got.Status != models.ChecklistModRequested {
		t.Fatalf("expected modification_requested, got %s", got.Status)
	}

	// Reservations stay in place while the request is pending.
	for _, it := range got.Items {
		b, err := env.bales.GetBale(ctx, it.BaleID)
		if err != nil {
			t.Fatalf("get bale: %v", err)
		}
		if b.Status != models.BaleReserved {
			t.Fatalf("expected bale still reserved, got %s", b.Status)
		}
	}
}

func TestRequestModificationOnlyWhenLocked(t *testing.T) {
	env := newTestEnv(t)
	cl := env.draftChecklist(t)

	_, err := env.checklists.RequestModification(context.Background(), cl.ID, "reason", env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)
}

func TestRequestModificationDuplicateRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)

	if _, err := env.checklists.RequestModification(ctx, cl.ID, "first", env.warehouse); err != nil {
		t.Fatalf("first request: %v", err)
	}
	_, err := env.checklists.RequestModification(ctx, cl.ID, "second", env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)
}

func TestChecklistPermissions(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.checklists.CreateChecklist(ctx, &models.CreateChecklistRequest{CustomerID: 7}, env.lab)
	wantKind(t, err, apperr.KindPermissionDenied)

	_, err = env.checklists.CreateChecklist(ctx, &models.CreateChecklistRequest{CustomerID: 7}, env.viewer)
	wantKind(t, err, apperr.KindPermissionDenied)
}
