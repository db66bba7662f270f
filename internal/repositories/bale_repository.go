package repositories

import (
	"context"
	"errors"
	"strconv"
	"time"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"
	"textile-backend/internal/storage"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BaleRepository struct {
	DB *pgxpool.Pool
}

func NewBaleRepository(db *pgxpool.Pool) *BaleRepository {
	return &BaleRepository{DB: db}
}

const baleColumns = `
	id, qr_code, lot_id, gross_weight, tare_weight, net_weight, grade,
	status, lab_status, lab_note, graded_by_user_id, graded_at,
	created_by_user_id, created_at, updated_at
`

func scanBale(row pgx.Row) (*models.Bale, error) {
	b := &models.Bale{}
	err := row.Scan(
		&b.ID, &b.QRCode, &b.LotID, &b.GrossWeight, &b.TareWeight, &b.NetWeight, &b.Grade,
		&b.Status, &b.LabStatus, &b.LabNote, &b.GradedByUserID, &b.GradedAt,
		&b.CreatedByUserID, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// CreateBale inserts the bale and bumps the lot counter in one transaction.
// The conditional update on lots is the capacity guard: when two presses race
// for the last slot, exactly one update matches.
func (r *BaleRepository) CreateBale(ctx context.Context, bale *models.Bale) error {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`UPDATE lots SET used = used + 1, updated_at = NOW()
		 WHERE id = $1 AND status = $2 AND used < capacity`,
		bale.LotID, models.LotActive,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		var status string
		var capacity int
		err := tx.QueryRow(ctx, `SELECT status, capacity FROM lots WHERE id = $1`, bale.LotID).Scan(&status, &capacity)
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("lot", bale.LotID)
		}
		if err != nil {
			return err
		}
		if status != models.LotActive {
			return apperr.InvalidState("lot", bale.LotID, status, "lot does not accept new bales")
		}
		return apperr.CapacityExceeded(bale.LotID, capacity)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO bales (qr_code, lot_id, gross_weight, tare_weight, net_weight, status, lab_status, created_by_user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		bale.QRCode, bale.LotID, bale.GrossWeight, bale.TareWeight, bale.NetWeight,
		models.BaleInStock, models.LabPending, bale.CreatedByUserID,
	).Scan(&bale.ID, &bale.CreatedAt, &bale.UpdatedAt)
	if err != nil {
		return err
	}
	bale.Status = models.BaleInStock
	bale.LabStatus = models.LabPending

	return tx.Commit(ctx)
}

func (r *BaleRepository) GetBale(ctx context.Context, id int) (*models.Bale, error) {
	b, err := scanBale(r.DB.QueryRow(ctx, `SELECT `+baleColumns+` FROM bales WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("bale", id)
	}
	return b, err
}

func (r *BaleRepository) GetBaleByQR(ctx context.Context, qrCode string) (*models.Bale, error) {
	b, err := scanBale(r.DB.QueryRow(ctx, `SELECT `+baleColumns+` FROM bales WHERE qr_code = $1`, qrCode))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("bale", 0)
	}
	return b, err
}

func (r *BaleRepository) ListBales(ctx context.Context, filter storage.BaleFilter) ([]models.Bale, error) {
	query := `SELECT ` + baleColumns + ` FROM bales WHERE 1=1`
	args := []interface{}{}
	if filter.LotID != nil {
		args = append(args, *filter.LotID)
		query += ` AND lot_id = $1`
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}
	if filter.LabStatus != "" {
		args = append(args, filter.LabStatus)
		query += ` AND lab_status = $` + strconv.Itoa(len(args))
	}
	query += ` ORDER BY id`

	rows, err := r.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bales []models.Bale
	for rows.Next() {
		b, err := scanBale(rows)
		if err != nil {
			return nil, err
		}
		bales = append(bales, *b)
	}
	return bales, rows.Err()
}

// SetLabResult records a grading outcome. The conditional update refuses to
// overwrite an approved grade.
func (r *BaleRepository) SetLabResult(ctx context.Context, id int, labStatus, grade, note string, by int, at time.Time) (*models.Bale, error) {
	var notePtr *string
	if note != "" {
		notePtr = &note
	}
	tag, err := r.DB.Exec(ctx,
		`UPDATE bales SET lab_status = $1, grade = $2, lab_note = $3, graded_by_user_id = $4, graded_at = $5, updated_at = NOW()
		 WHERE id = $6 AND lab_status <> $7`,
		labStatus, grade, notePtr, by, at, id, models.LabApproved,
	)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		b, gerr := r.GetBale(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.InvalidState("bale", id, b.LabStatus, "bale already graded")
	}
	return r.GetBale(ctx, id)
}

// Dispose moves an in-stock bale to waste or returned and decrements the
// owning lot's counter in the same transaction.
func (r *BaleRepository) Dispose(ctx context.Context, id int, to string) (*models.Bale, error) {
	tx, err := r.DB.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var lotID int
	err = tx.QueryRow(ctx,
		`UPDATE bales SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3
		 RETURNING lot_id`,
		to, id, models.BaleInStock,
	).Scan(&lotID)
	if errors.Is(err, pgx.ErrNoRows) {
		b, gerr := r.GetBale(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, apperr.InvalidState("bale", id, b.Status, "only in-stock bales can be disposed")
	}
	if err != nil {
		return nil, err
	}

	if _, err := tx.Exec(ctx,
		`UPDATE lots SET used = used - 1, updated_at = NOW() WHERE id = $1`, lotID,
	); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetBale(ctx, id)
}
