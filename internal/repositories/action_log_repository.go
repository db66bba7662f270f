package repositories

import (
	"context"

	"textile-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

type ActionLogRepository struct {
	DB *pgxpool.Pool
}

func NewActionLogRepository(db *pgxpool.Pool) *ActionLogRepository {
	return &ActionLogRepository{DB: db}
}

func (r *ActionLogRepository) AppendAction(ctx context.Context, a *models.ActionLog) error {
	return r.DB.QueryRow(ctx,
		`INSERT INTO action_logs (user_id, action_type, target_type, target_id, description, ip_address)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.UserID, a.ActionType, a.TargetType, a.TargetID, a.Description, a.IPAddress,
	).Scan(&a.ID, &a.CreatedAt)
}

func (r *ActionLogRepository) ListActions(ctx context.Context, limit int) ([]models.ActionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.DB.Query(ctx,
		`SELECT id, user_id, action_type, target_type, target_id, description, ip_address, created_at
		 FROM action_logs ORDER BY id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []models.ActionLog
	for rows.Next() {
		var a models.ActionLog
		if err := rows.Scan(&a.ID, &a.UserID, &a.ActionType, &a.TargetType, &a.TargetID,
			&a.Description, &a.IPAddress, &a.CreatedAt); err != nil {
			return nil, err
		}
		logs = append(logs, a)
	}
	return logs, rows.Err()
}
