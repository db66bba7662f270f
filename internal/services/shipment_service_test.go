package services

import (
	"context"
	"errors"
	"testing"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"

	"go.uber.org/zap"
)

type fakeUploader struct {
	key string
	err error

	gotShipmentID int
	gotData       []byte
}

func (f *fakeUploader) PutDeliveryProof(_ context.Context, shipmentID int, data []byte) (string, error) {
	f.gotShipmentID = shipmentID
	f.gotData = data
	return f.key, f.err
}

func dispatch(t *testing.T, env *testEnv, checklistID int) *models.Shipment {
	t.Helper()
	sh, err := env.shipments.CreateShipment(context.Background(), &models.CreateShipmentRequest{
		OrderID:       "ORD-100",
		ChecklistID:   checklistID,
		DriverName:    "Karim",
		VehicleNumber: "01A777BB",
	}, env.warehouse)
	if err != nil {
		t.Fatalf("create shipment: %v", err)
	}
	return sh
}

func TestCreateShipmentFreezesTotals(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 3)

	sh := dispatch(t, env, cl.ID)
	if sh.Status != models.ShipmentPending {
		t.Fatalf("expected pending, got %s", sh.Status)
	}
	if sh.TotalItems != 3 || sh.TotalWeight != 150 {
		t.Fatalf("expected frozen totals 3/150, got %d/%v", sh.TotalItems, sh.TotalWeight)
	}
	if sh.CustomerID != cl.CustomerID {
		t.Fatalf("expected customer %d carried over, got %d", cl.CustomerID, sh.CustomerID)
	}

	// Every bale on the checklist moves to shipped.
	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	for _, it := range got.Items {
		b, err := env.bales.GetBale(ctx, it.BaleID)
		if err != nil {
			t.Fatalf("get bale: %v", err)
		}
		if b.Status != models.BaleShipped {
			t.Fatalf("expected shipped bale, got %s", b.Status)
		}
	}
}

func TestCreateShipmentRequiresLockedChecklist(t *testing.T) {
	env := newTestEnv(t)
	cl := env.draftChecklist(t)

	_, err := env.shipments.CreateShipment(context.Background(), &models.CreateShipmentRequest{
		OrderID:       "ORD-101",
		ChecklistID:   cl.ID,
		DriverName:    "Karim",
		VehicleNumber: "01A777BB",
	}, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)
}

func TestShipmentForwardOnlyChain(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	sh := dispatch(t, env, env.lockedChecklist(t, lot.ID, 1).ID)

	// Skipping a step is refused.
	_, err := env.shipments.SetStatus(ctx, sh.ID, models.ShipmentReady, "", env.warehouse)
	wantKind(t, err, apperr.KindInvalidTransition)

	for _, to := range []string{models.ShipmentPreparing, models.ShipmentReady, models.ShipmentShipped} {
		sh, err = env.shipments.SetStatus(ctx, sh.ID, to, "", env.warehouse)
		if err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	// Backward move is refused.
	_, err = env.shipments.SetStatus(ctx, sh.ID, models.ShipmentReady, "", env.warehouse)
	wantKind(t, err, apperr.KindInvalidTransition)

	// Cancel after shipped is refused.
	_, err = env.shipments.SetStatus(ctx, sh.ID, models.ShipmentCancelled, "", env.warehouse)
	wantKind(t, err, apperr.KindInvalidTransition)
}

func TestShipmentCancelBeforeShipped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	sh := dispatch(t, env, env.lockedChecklist(t, lot.ID, 1).ID)

	sh, err := env.shipments.SetStatus(ctx, sh.ID, models.ShipmentPreparing, "", env.warehouse)
	if err != nil {
		t.Fatalf("to preparing: %v", err)
	}
	sh, err = env.shipments.SetStatus(ctx, sh.ID, models.ShipmentCancelled, "vehicle broke down", env.warehouse)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if sh.Status != models.ShipmentCancelled {
		t.Fatalf("expected cancelled, got %s", sh.Status)
	}
	if sh.Notes == nil || *sh.Notes != "vehicle broke down" {
		t.Fatalf("expected cancel note recorded, got %+v", sh.Notes)
	}
}

func TestShipmentDocumentFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	sh := dispatch(t, env, env.lockedChecklist(t, lot.ID, 1).ID)

	sh, err := env.shipments.SetDocumentFlag(ctx, sh.ID, "invoice", true, env.warehouse)
	if err != nil {
		t.Fatalf("set invoice flag: %v", err)
	}
	if !sh.Documents.Invoice || sh.Documents.Waybill {
		t.Fatalf("expected only invoice flagged, got %+v", sh.Documents)
	}

	_, err = env.shipments.SetDocumentFlag(ctx, sh.ID, "customs", true, env.warehouse)
	wantKind(t, err, apperr.KindValidation)
}

func TestCompleteShipmentWithProof(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	sh := dispatch(t, env, env.lockedChecklist(t, lot.ID, 1).ID)

	uploader := &fakeUploader{key: "proofs/2026-08-30/shipment-1.png"}
	env.shipments.Proofs = uploader
	env.shipments.Log = zap.NewNop()

	// Complete before shipped is refused.
	_, err := env.shipments.Complete(ctx, sh.ID, &models.CompleteShipmentRequest{RecipientName: "Dilnoza"}, env.warehouse)
	wantKind(t, err, apperr.KindInvalidState)

	for _, to := range []string{models.ShipmentPreparing, models.ShipmentReady, models.ShipmentShipped} {
		if _, err := env.shipments.SetStatus(ctx, sh.ID, to, "", env.warehouse); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	sh, err = env.shipments.Complete(ctx, sh.ID, &models.CompleteShipmentRequest{
		RecipientName: "Dilnoza",
		Signature:     []byte("png-bytes"),
	}, env.warehouse)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if sh.Status != models.ShipmentDelivered {
		t.Fatalf("expected delivered, got %s", sh.Status)
	}
	if sh.ProofKey == nil || *sh.ProofKey != uploader.key {
		t.Fatalf("expected proof key stored, got %+v", sh.ProofKey)
	}
	if uploader.gotShipmentID != sh.ID {
		t.Fatalf("uploader saw shipment %d, want %d", uploader.gotShipmentID, sh.ID)
	}
	if sh.RecipientName == nil || *sh.RecipientName != "Dilnoza" {
		t.Fatalf("expected recipient recorded, got %+v", sh.RecipientName)
	}
}

func TestCompleteShipmentSurvivesUploadFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	sh := dispatch(t, env, env.lockedChecklist(t, lot.ID, 1).ID)

	env.shipments.Proofs = &fakeUploader{err: errors.New("bucket unreachable")}
	env.shipments.Log = zap.NewNop()

	for _, to := range []string{models.ShipmentPreparing, models.ShipmentReady, models.ShipmentShipped} {
		if _, err := env.shipments.SetStatus(ctx, sh.ID, to, "", env.warehouse); err != nil {
			t.Fatalf("transition to %s: %v", to, err)
		}
	}

	sh, err := env.shipments.Complete(ctx, sh.ID, &models.CompleteShipmentRequest{
		RecipientName: "Dilnoza",
		Signature:     []byte("png-bytes"),
	}, env.warehouse)
	if err != nil {
		t.Fatalf("complete despite upload failure: %v", err)
	}
	if sh.Status != models.ShipmentDelivered {
		t.Fatalf("expected delivered, got %s", sh.Status)
	}
	if sh.ProofKey != nil {
		t.Fatalf("expected no proof key after failed upload, got %q", *sh.ProofKey)
	}
}

func TestChecklistStaysLockedAfterDispatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)
	dispatch(t, env, cl.ID)

	got, err := env.checklists.GetChecklist(ctx, cl.ID)
	if err != nil {
		t.Fatalf("get checklist: %v", err)
	}
	if got.Status != models.ChecklistLocked {
		t.Fatalf("expected checklist still locked, got %s", got.Status)
	}
}

func TestDispatchRequiresRole(t *testing.T) {
	env := newTestEnv(t)
	lot := env.activeLot(t, 10)
	cl := env.lockedChecklist(t, lot.ID, 1)

	_, err := env.shipments.CreateShipment(context.Background(), &models.CreateShipmentRequest{
		OrderID:       "ORD-102",
		ChecklistID:   cl.ID,
		DriverName:    "Karim",
		VehicleNumber: "01A777BB",
	}, env.lab)
	wantKind(t, err, apperr.KindPermissionDenied)
}
