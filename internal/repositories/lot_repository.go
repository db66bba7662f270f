package repositories

import (
	"context"
	"errors"

	"textile-backend/internal/apperr"
	"textile-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type LotRepository struct {
	DB *pgxpool.Pool
}

func NewLotRepository(db *pgxpool.Pool) *LotRepository {
	return &LotRepository{DB: db}
}

// CreateLot inserts a new lot with the next sequential lot number.
func (r *LotRepository) CreateLot(ctx context.Context, lot *models.Lot) error {
	query := `
		INSERT INTO lots (lot_number, product_type, capacity, used, status, created_by_user_id)
		VALUES ((SELECT COALESCE(MAX(lot_number), 0) + 1 FROM lots), $1, $2, 0, $3, $4)
		RETURNING id, lot_number, created_at, updated_at
	`
	return r.DB.QueryRow(ctx, query,
		lot.ProductType, lot.Capacity, lot.Status, lot.CreatedByUserID,
	).Scan(&lot.ID, &lot.LotNumber, &lot.CreatedAt, &lot.UpdatedAt)
}

func (r *LotRepository) GetLot(ctx context.Context, id int) (*models.Lot, error) {
	query := `
		SELECT id, lot_number, product_type, capacity, used, status, created_by_user_id, created_at, updated_at
		FROM lots WHERE id = $1
	`
	lot := &models.Lot{}
	err := r.DB.QueryRow(ctx, query, id).Scan(
		&lot.ID, &lot.LotNumber, &lot.ProductType, &lot.Capacity, &lot.Used,
		&lot.Status, &lot.CreatedByUserID, &lot.CreatedAt, &lot.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("lot", id)
	}
	if err != nil {
		return nil, err
	}
	return lot, nil
}

func (r *LotRepository) ListLots(ctx context.Context) ([]models.Lot, error) {
	query := `
		SELECT id, lot_number, product_type, capacity, used, status, created_by_user_id, created_at, updated_at
		FROM lots ORDER BY lot_number
	`
	rows, err := r.DB.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lots []models.Lot
	for rows.Next() {
		var lot models.Lot
		if err := rows.Scan(
			&lot.ID, &lot.LotNumber, &lot.ProductType, &lot.Capacity, &lot.Used,
			&lot.Status, &lot.CreatedByUserID, &lot.CreatedAt, &lot.UpdatedAt,
		); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

// SetLotStatus is a conditional update keyed on the current status, so two
// concurrent terminals cannot both win the same transition.
func (r *LotRepository) SetLotStatus(ctx context.Context, id int, from, to string) error {
	tag, err := r.DB.Exec(ctx,
		`UPDATE lots SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`,
		to, id, from,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		lot, gerr := r.GetLot(ctx, id)
		if gerr != nil {
			return gerr
		}
		return apperr.InvalidState("lot", id, lot.Status, "expected status "+from)
	}
	return nil
}
