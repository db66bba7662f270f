package repositories

import (
	"context"
	"errors"
	"time"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ShipmentRepository struct {
	DB *pgxpool.Pool
}

func NewShipmentRepository(db *pgxpool.Pool) *ShipmentRepository {
	return &ShipmentRepository{DB: db}
}

// CreateShipment checks the checklist is still locked, marks its reserved
// bales shipped and inserts the shipment, all in one transaction. The
// checklist itself stays locked as the audit anchor for the dispatch.
func (r *ShipmentRepository) CreateShipment(ctx context.Context, sh *models.Shipment) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM checklists WHERE id = $1 FOR UPDATE`, sh.ChecklistID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("checklist", sh.ChecklistID)
	}
	if err != nil {
		return err
	}
	if status != models.ChecklistLocked {
		return apperr.InvalidState("checklist", sh.ChecklistID, status, "only a locked checklist can be dispatched")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bales SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND id IN (SELECT bale_id FROM checklist_items WHERE checklist_id = $3)`,
		models.BaleShipped, models.BaleReserved, sh.ChecklistID,
	); err != nil {
		return err
	}

	sh.Status = models.ShipmentPending
	err = tx.QueryRow(ctx,
		`INSERT INTO shipments
		 (order_id, checklist_id, customer_id, driver_name, driver_phone, vehicle_number,
		  waybill_number, status, total_items, total_weight, shipped_by_user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		sh.OrderID, sh.ChecklistID, sh.CustomerID, sh.DriverName, sh.DriverPhone, sh.VehicleNumber,
		sh.WaybillNumber, sh.Status, sh.TotalItems, sh.TotalWeight, sh.ShippedByUserID,
	).Scan(&sh.ID, &sh.CreatedAt, &sh.UpdatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const shipmentColumns = `
	id, order_id, checklist_id, customer_id, driver_name, driver_phone, vehicle_number,
	waybill_number, doc_waybill, doc_invoice, doc_packing, doc_quality,
	status, notes, total_items, total_weight, shipped_by_user_id,
	delivered_at, recipient_name, proof_key, created_at, updated_at
`

func scanShipment(row pgx.Row) (*models.Shipment, error) {
	sh := &models.Shipment{}
	err := row.Scan(
		&sh.ID, &sh.OrderID, &sh.ChecklistID, &sh.CustomerID, &sh.DriverName, &sh.DriverPhone, &sh.VehicleNumber,
		&sh.WaybillNumber, &sh.Documents.Waybill, &sh.Documents.Invoice, &sh.Documents.Packing, &sh.Documents.Quality,
		&sh.Status, &sh.Notes, &sh.TotalItems, &sh.TotalWeight, &sh.ShippedByUserID,
		&sh.DeliveredAt, &sh.RecipientName, &sh.ProofKey, &sh.CreatedAt, &sh.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return sh, nil
}

func (r *ShipmentRepository) GetShipment(ctx context.Context, id int) (*models.Shipment, error) {
	sh, err := scanShipment(r.DB.QueryRow(ctx, `SELECT `+shipmentColumns+` FROM shipments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("shipment", id)
	}
	return sh, err
}

func (r *ShipmentRepository) ListShipments(ctx context.Context) ([]models.Shipment, error) {
	rows, err := r.DB.Query(ctx, `SELECT `+shipmentColumns+` FROM shipments ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Shipment
	for rows.Next() {
		sh, err := scanShipment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *sh)
	}
	return out, rows.Err()
}

// SetShipmentStatus is a conditional update keyed on the expected current
// status; a stale terminal loses the race and gets InvalidTransition.
func (r *ShipmentRepository) SetShipmentStatus(ctx context.Context, id int, from, to, notes string) error {
	var notesPtr *string
	if notes != "" {
		notesPtr = &notes
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE shipments SET status = $1, notes = COALESCE($2, notes), updated_at = NOW()
		 WHERE id = $3 AND status = $4`,
		to, notesPtr, id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		sh, gerr := r.GetShipment(ctx, id)
		if gerr != nil {
			return gerr
		}
		return apperr.InvalidTransition("shipment", id, sh.Status, to)
	}
	return nil
}

func (r *ShipmentRepository) SetDocumentFlag(ctx context.Context, id int, document string, ready bool) (*models.Shipment, error) {
	var column string
	switch document {
	case "waybill":
		column = "doc_waybill"
	case "invoice":
		column = "doc_invoice"
	case "packing":
		column = "doc_packing"
	case "quality":
		column = "doc_quality"
	default:
		return nil, apperr.Validation("unknown document " + document)
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE shipments SET `+column+` = $1, updated_at = NOW() WHERE id = $2`, ready, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, apperr.NotFound("shipment", id)
	}
	return r.GetShipment(ctx, id)
}

func (r *ShipmentRepository) CompleteShipment(ctx context.Context, id int, deliveredAt time.Time, recipient string, proofKey *string) (*models.Shipment, error) {
	tag, err := r.DB.Exec(ctx,
		`UPDATE shipments SET status = $1, delivered_at = $2, recipient_name = $3, proof_key = $4, updated_at = $2
		 WHERE id = $5 AND status = $6`,
		models.ShipmentDelivered, deliveredAt, recipient, proofKey, id, models.ShipmentShipped,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		sh, gerr := r.GetShipment(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.InvalidState("shipment", id, sh.Status, "only a shipped shipment can be completed")
	}
	return r.GetShipment(ctx, id)
}
