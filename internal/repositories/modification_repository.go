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

type ModificationRepository struct {
	DB *pgxpool.Pool
}

func NewModificationRepository(db *pgxpool.Pool) *ModificationRepository {
	return &ModificationRepository{DB: db}
}

// CreateModification inserts the request and flips the checklist to
// modification_requested in one transaction. The partial unique index on
// (checklist_id) WHERE status = 'pending' is the backstop against two
// terminals filing at once; the explicit check below produces the friendlier
// error for the common case.
func (r *ModificationRepository) CreateModification(ctx context.Context, req *models.ModificationRequest) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var pending int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM modification_requests WHERE checklist_id = $1 AND status = $2`,
		req.ChecklistID, models.ModificationPending,
	).Scan(&pending); err != nil {
		return err
	}
	if pending > 0 {
		return apperr.DuplicateRequest(req.ChecklistID)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE checklists SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		models.ChecklistModRequested, req.ChecklistID, models.ChecklistLocked,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var status string
		err := tx.QueryRow(ctx, `SELECT status FROM checklists WHERE id = $1`, req.ChecklistID).Scan(&status)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("checklist", req.ChecklistID)
		}
		if err != nil {
			return err
		}
		return apperr.InvalidState("checklist", req.ChecklistID, status, "modifications can only be requested on a locked checklist")
	}

	req.Status = models.ModificationPending
	err = tx.QueryRow(ctx,
		`INSERT INTO modification_requests
		 (checklist_id, requested_by_user_id, requested_role, reason, status,
		  snapshot_total_toys, snapshot_total_weight, snapshot_markas_count, snapshot_average_weight)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at`,
		req.ChecklistID, req.RequestedByUserID, req.RequestedRole, req.Reason, req.Status,
		req.Snapshot.TotalToys, req.Snapshot.TotalWeight, req.Snapshot.MarkasCount, req.Snapshot.AverageWeight,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

const modificationColumns = `
	id, checklist_id, requested_by_user_id, requested_role, reason, status,
	reviewed_by_user_id, reviewed_at, review_note,
	snapshot_total_toys, snapshot_total_weight, snapshot_markas_count, snapshot_average_weight,
	created_at
`

func scanModification(row pgx.Row) (*models.ModificationRequest, error) {
	m := &models.ModificationRequest{}
	err := row.Scan(
		&m.ID, &m.ChecklistID, &m.RequestedByUserID, &m.RequestedRole, &m.Reason, &m.Status,
		&m.ReviewedByUserID, &m.ReviewedAt, &m.ReviewNote,
		&m.Snapshot.TotalToys, &m.Snapshot.TotalWeight, &m.Snapshot.MarkasCount, &m.Snapshot.AverageWeight,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (r *ModificationRepository) GetModification(ctx context.Context, id int) (*models.ModificationRequest, error) {
	m, err := scanModification(r.DB.QueryRow(ctx,
		`SELECT `+modificationColumns+` FROM modification_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("modification_request", id)
	}
	return m, err
}

func (r *ModificationRepository) ListModifications(ctx context.Context, status string) ([]models.ModificationRequest, error) {
	query := `SELECT ` + modificationColumns + ` FROM modification_requests`
	args := []interface{}{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ModificationRequest
	for rows.Next() {
		m, err := scanModification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

// ReviewModification settles a pending request and moves the checklist in the
// same transaction: back to draft on approval, back to locked on rejection.
func (r *ModificationRepository) ReviewModification(ctx context.Context, id int, approve bool, by int, note string, at time.Time) (*models.ModificationRequest, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	newStatus := models.ModificationRejected
	if approve {
		newStatus = models.ModificationApproved
	}
	var notePtr *string
	if note != "" {
		notePtr = &note
	}

	var checklistID int
	err = tx.QueryRow(ctx,
		`UPDATE modification_requests
		 SET status = $1, reviewed_by_user_id = $2, reviewed_at = $3, review_note = $4
		 WHERE id = $5 AND status = $6
		 RETURNING checklist_id`,
		newStatus, by, at, notePtr, id, models.ModificationPending,
	).Scan(&checklistID)
	if errors.Is(err, pgx.ErrNoRows) {
		m, gerr := r.GetModification(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.InvalidState("modification_request", id, m.Status, "request already reviewed")
	}
	if err != nil {
		return nil, err
	}

	if approve {
		// Approval re-opens editing without touching reservations.
		_, err = tx.Exec(ctx,
			`UPDATE checklists SET status = $1, confirmed_by_user_id = NULL, confirmed_at = NULL,
			 locked_by_user_id = NULL, locked_at = NULL, updated_at = $2
			 WHERE id = $3 AND status = $4`,
			models.ChecklistDraft, at, checklistID, models.ChecklistModRequested)
	} else {
		_, err = tx.Exec(ctx,
			`UPDATE checklists SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
			models.ChecklistLocked, at, checklistID, models.ChecklistModRequested)
	}
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetModification(ctx, id)
}
