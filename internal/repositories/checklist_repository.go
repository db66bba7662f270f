package repositories

import (
	"context"
	"errors"
	"time"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ChecklistRepository struct {
	DB *pgxpool.Pool
}

func NewChecklistRepository(db *pgxpool.Pool) *ChecklistRepository {
	return &ChecklistRepository{DB: db}
}

func (r *ChecklistRepository) CreateChecklist(ctx context.Context, cl *models.Checklist) error {
	query := `
		INSERT INTO checklists (workspace_id, customer_id, status, created_by_user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	cl.Status = models.ChecklistDraft
	return r.DB.QueryRow(ctx, query,
		cl.WorkspaceID, cl.CustomerID, cl.Status, cl.CreatedByUserID,
	).Scan(&cl.ID, &cl.CreatedAt, &cl.UpdatedAt)
}

func (r *ChecklistRepository) GetChecklist(ctx context.Context, id int) (*models.Checklist, error) {
	cl := &models.Checklist{}
	err := r.DB.QueryRow(ctx, `
		SELECT id, workspace_id, customer_id, status, created_by_user_id,
		       confirmed_by_user_id, locked_by_user_id, confirmed_at, locked_at,
		       created_at, updated_at
		FROM checklists WHERE id = $1
	`, id).Scan(
		&cl.ID, &cl.WorkspaceID, &cl.CustomerID, &cl.Status, &cl.CreatedByUserID,
		&cl.ConfirmedByUserID, &cl.LockedByUserID, &cl.ConfirmedAt, &cl.LockedAt,
		&cl.CreatedAt, &cl.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("checklist", id)
	}
	if err != nil {
		return nil, err
	}

	items, err := r.listItems(ctx, id)
	if err != nil {
		return nil, err
	}
	cl.Items = items
	return cl, nil
}

func (r *ChecklistRepository) listItems(ctx context.Context, checklistID int) ([]models.ChecklistItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, checklist_id, position, bale_id, qr_code, lot_id, net_weight, grade, added_at
		FROM checklist_items WHERE checklist_id = $1 ORDER BY position
	`, checklistID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ChecklistItem
	for rows.Next() {
		var it models.ChecklistItem
		if err := rows.Scan(
			&it.ID, &it.ChecklistID, &it.Position, &it.BaleID,
			&it.QRCode, &it.LotID, &it.NetWeight, &it.Grade, &it.AddedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *ChecklistRepository) ListChecklists(ctx context.Context, workspaceID int) ([]models.Checklist, error) {
	query := `
		SELECT id, workspace_id, customer_id, status, created_by_user_id,
		       confirmed_by_user_id, locked_by_user_id, confirmed_at, locked_at,
		       created_at, updated_at
		FROM checklists
	`
	args := []interface{}{}
	if workspaceID != 0 {
		query += ` WHERE workspace_id = $1`
		args = append(args, workspaceID)
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lists []models.Checklist
	for rows.Next() {
		var cl models.Checklist
		if err := rows.Scan(
			&cl.ID, &cl.WorkspaceID, &cl.CustomerID, &cl.Status, &cl.CreatedByUserID,
			&cl.ConfirmedByUserID, &cl.LockedByUserID, &cl.ConfirmedAt, &cl.LockedAt,
			&cl.CreatedAt, &cl.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lists = append(lists, cl)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range lists {
		items, err := r.listItems(ctx, lists[i].ID)
		if err != nil {
			return nil, err
		}
		lists[i].Items = items
	}
	return lists, nil
}

// ReserveAndAppend reserves every bale with a conditional update keyed on the
// current lifecycle and lab state. A bale that lost a concurrent race simply
// matches zero rows and shows up in the failure report; the transaction then
// rolls back so no partial reservation survives.
func (r *ChecklistRepository) ReserveAndAppend(ctx context.Context, checklistID int, baleIDs []int) (*models.Checklist, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM checklists WHERE id = $1 FOR UPDATE`, checklistID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("checklist", checklistID)
	}
	if err != nil {
		return nil, err
	}
	if status != models.ChecklistDraft {
		return nil, apperr.InvalidState("checklist", checklistID, status, "bales can only be added to a draft checklist")
	}

	var nextPos int
	if err := tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position) + 1, 0) FROM checklist_items WHERE checklist_id = $1`, checklistID,
	).Scan(&nextPos); err != nil {
		return nil, err
	}

	var failures []apperr.BaleFailure
	seen := map[int]bool{}
	pos := nextPos
	for _, baleID := range baleIDs {
		if seen[baleID] {
			failures = append(failures, apperr.BaleFailure{BaleID: baleID, Reason: "duplicated in request"})
			continue
		}
		seen[baleID] = true

		var qrCode, grade string
		var lotID int
		var netWeight float64
		err := tx.QueryRow(ctx,
			`UPDATE bales SET status = $1, updated_at = NOW()
			 WHERE id = $2 AND status = $3 AND lab_status = $4
			 RETURNING qr_code, lot_id, net_weight, grade`,
			models.BaleReserved, baleID, models.BaleInStock, models.LabApproved,
		).Scan(&qrCode, &lotID, &netWeight, &grade)
		if errors.Is(err, pgx.ErrNoRows) {
			failures = append(failures, apperr.BaleFailure{BaleID: baleID, Reason: r.ineligibleReason(ctx, tx, baleID)})
			continue
		}
		if err != nil {
			return nil, err
		}
		if len(failures) > 0 {
			continue // batch already doomed, keep collecting reasons only
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO checklist_items (checklist_id, position, bale_id, qr_code, lot_id, net_weight, grade)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			checklistID, pos, baleID, qrCode, lotID, netWeight, grade,
		); err != nil {
			return nil, err
		}
		pos++
	}

	if len(failures) > 0 {
		return nil, apperr.IneligibleBale(failures...)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE checklists SET updated_at = NOW() WHERE id = $1`, checklistID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetChecklist(ctx, checklistID)
}

func (r *ChecklistRepository) ineligibleReason(ctx context.Context, tx pgx.Tx, baleID int) string {
	var status, labStatus string
	err := tx.QueryRow(ctx,
		`SELECT status, lab_status FROM bales WHERE id = $1`, baleID,
	).Scan(&status, &labStatus)
	if err != nil {
		return "not found"
	}
	b := models.Bale{Status: status, LabStatus: labStatus}
	return b.IneligibleReason()
}

func (r *ChecklistRepository) ReleaseItem(ctx context.Context, checklistID, itemID int) (*models.Checklist, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM checklists WHERE id = $1 FOR UPDATE`, checklistID,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("checklist", checklistID)
	}
	if err != nil {
		return nil, err
	}
	if status != models.ChecklistDraft {
		return nil, apperr.InvalidState("checklist", checklistID, status, "items can only be removed from a draft checklist")
	}

	var baleID, position int
	err = tx.QueryRow(ctx,
		`DELETE FROM checklist_items WHERE id = $1 AND checklist_id = $2
		 RETURNING bale_id, position`,
		itemID, checklistID,
	).Scan(&baleID, &position)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("checklist_item", itemID)
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bales SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		models.BaleInStock, baleID, models.BaleReserved,
	); err != nil {
		return nil, err
	}

	// Keep positions contiguous: everything after the removed slot shifts up.
	if _, err := tx.Exec(ctx,
		`UPDATE checklist_items SET position = position - 1
		 WHERE checklist_id = $1 AND position > $2`,
		checklistID, position,
	); err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE checklists SET updated_at = NOW() WHERE id = $1`, checklistID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetChecklist(ctx, checklistID)
}

func (r *ChecklistRepository) SetChecklistStatus(ctx context.Context, id int, from, to string, by int, at time.Time) error {
	var tag pgconn.CommandTag
	var err error
	switch to {
	case models.ChecklistConfirmed:
		tag, err = r.DB.Exec(ctx,
			`UPDATE checklists SET status = $1, confirmed_by_user_id = $2, confirmed_at = $3, updated_at = $3
			 WHERE id = $4 AND status = $5`,
			to, by, at, id, from)
	case models.ChecklistLocked:
		tag, err = r.DB.Exec(ctx,
			`UPDATE checklists SET status = $1, locked_by_user_id = $2, locked_at = $3, updated_at = $3
			 WHERE id = $4 AND status = $5`,
			to, by, at, id, from)
	case models.ChecklistDraft:
		// Re-opened for editing: confirm/lock stamps are cleared.
		tag, err = r.DB.Exec(ctx,
			`UPDATE checklists SET status = $1, confirmed_by_user_id = NULL, confirmed_at = NULL,
			 locked_by_user_id = NULL, locked_at = NULL, updated_at = $2
			 WHERE id = $3 AND status = $4`,
			to, at, id, from)
	default:
		tag, err = r.DB.Exec(ctx,
			`UPDATE checklists SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			to, at, id, from)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		cl, gerr := r.GetChecklist(ctx, id)
		if gerr != nil {
			return gerr
		}
		return apperr.InvalidState("checklist", id, cl.Status, "expected status "+from)
	}
	return nil
}

func (r *ChecklistRepository) DeleteChecklist(ctx context.Context, id int) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	err = tx.QueryRow(ctx,
		`SELECT status FROM checklists WHERE id = $1 FOR UPDATE`, id,
	).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.NotFound("checklist", id)
	}
	if err != nil {
		return err
	}
	if status != models.ChecklistDraft {
		return apperr.InvalidState("checklist", id, status, "only a draft checklist can be deleted")
	}

	if _, err := tx.Exec(ctx,
		`UPDATE bales SET status = $1, updated_at = NOW()
		 WHERE status = $2 AND id IN (SELECT bale_id FROM checklist_items WHERE checklist_id = $3)`,
		models.BaleInStock, models.BaleReserved, id,
	); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM checklist_items WHERE checklist_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM checklists WHERE id = $1`, id); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
