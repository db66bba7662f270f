// Package storage defines the persistence boundary for the warehouse domain.
// The service layer only sees these interfaces; pgx-backed repositories
// implement them in production and the memory store backs tests and
// single-binary demo mode.
//
// Methods that must be race-safe (reservation, capacity counters, status
// moves) are expressed as atomic check-and-set operations: the implementation
// performs the precondition check and the write as one unit and returns a
// typed apperr on a lost race.
package storage

import (
	"context"
	"time"

	"textile-backend/internal/models"
)

type LotStore interface {
	CreateLot(ctx context.Context, lot *models.Lot) error
	GetLot(ctx context.Context, id int) (*models.Lot, error)
	ListLots(ctx context.Context) ([]models.Lot, error)
	// SetLotStatus moves the lot from one status to another as a CAS.
	SetLotStatus(ctx context.Context, id int, from, to string) error
}

// BaleFilter narrows ListBales. Nil/empty fields match everything.
type BaleFilter struct {
	LotID     *int
	Status    string
	LabStatus string
}

type BaleStore interface {
	// CreateBale inserts the bale and increments the owning lot's used
	// counter in the same transaction. Fails with CapacityExceeded when the
	// lot is full and InvalidState when the lot is not active.
	CreateBale(ctx context.Context, bale *models.Bale) error
	GetBale(ctx context.Context, id int) (*models.Bale, error)
	GetBaleByQR(ctx context.Context, qrCode string) (*models.Bale, error)
	ListBales(ctx context.Context, filter BaleFilter) ([]models.Bale, error)
	// SetLabResult records the grading outcome. Only pending (or rejected,
	// for a re-grade) bales may be graded.
	SetLabResult(ctx context.Context, id int, labStatus, grade, note string, by int, at time.Time) (*models.Bale, error)
	// Dispose moves an in_stock bale to waste or returned and decrements the
	// lot's used counter in the same transaction.
	Dispose(ctx context.Context, id int, to string) (*models.Bale, error)
}

type ChecklistStore interface {
	CreateChecklist(ctx context.Context, cl *models.Checklist) error
	// GetChecklist returns the checklist with items ordered by position.
	GetChecklist(ctx context.Context, id int) (*models.Checklist, error)
	ListChecklists(ctx context.Context, workspaceID int) ([]models.Checklist, error)
	// ReserveAndAppend atomically flips every bale to reserved and appends
	// items at the next positions. All-or-nothing: if any bale is ineligible
	// nothing is reserved and the error reports every failing bale.
	ReserveAndAppend(ctx context.Context, checklistID int, baleIDs []int) (*models.Checklist, error)
	// ReleaseItem removes one item from a draft checklist, returns the bale
	// to in_stock and renumbers the remaining positions.
	ReleaseItem(ctx context.Context, checklistID, itemID int) (*models.Checklist, error)
	// SetChecklistStatus moves the checklist between lifecycle states as a
	// CAS, stamping confirmed/locked metadata where applicable.
	SetChecklistStatus(ctx context.Context, id int, from, to string, by int, at time.Time) error
	// DeleteChecklist removes a draft checklist, releasing any bales still
	// reserved on it.
	DeleteChecklist(ctx context.Context, id int) error
}

type ModificationStore interface {
	// CreateModification records the request and moves the checklist from
	// locked to modification_requested in one transaction. Fails with
	// DuplicateRequest when a pending request already exists.
	CreateModification(ctx context.Context, req *models.ModificationRequest) error
	GetModification(ctx context.Context, id int) (*models.ModificationRequest, error)
	ListModifications(ctx context.Context, status string) ([]models.ModificationRequest, error)
	// ReviewModification settles a pending request and moves the owning
	// checklist back to draft (approved) or locked (rejected) in one
	// transaction.
	ReviewModification(ctx context.Context, id int, approve bool, by int, note string, at time.Time) (*models.ModificationRequest, error)
}

type ShipmentStore interface {
	// CreateShipment verifies the checklist is locked, marks every reserved
	// bale on it shipped and inserts the shipment, all in one transaction.
	CreateShipment(ctx context.Context, sh *models.Shipment) error
	GetShipment(ctx context.Context, id int) (*models.Shipment, error)
	ListShipments(ctx context.Context) ([]models.Shipment, error)
	// SetShipmentStatus moves the shipment between statuses as a CAS.
	SetShipmentStatus(ctx context.Context, id int, from, to, notes string) error
	SetDocumentFlag(ctx context.Context, id int, document string, ready bool) (*models.Shipment, error)
	// CompleteShipment moves shipped -> delivered and records the delivery
	// confirmation.
	CompleteShipment(ctx context.Context, id int, deliveredAt time.Time, recipient string, proofKey *string) (*models.Shipment, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUser(ctx context.Context, id int) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SetUserActive(ctx context.Context, id int, active bool) error
}

type ActionLogStore interface {
	AppendAction(ctx context.Context, a *models.ActionLog) error
	ListActions(ctx context.Context, limit int) ([]models.ActionLog, error)
}
