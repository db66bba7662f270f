package models

import "time"

// Lot statuses
const (
	LotDraft  = "draft"
	LotActive = "active"
	LotPaused = "paused"
	LotClosed = "closed"
)

// DefaultLotCapacity is the standard press run for one marka.
const DefaultLotCapacity = 220

type Lot struct {
	ID              int       `json:"id"`
	LotNumber       int       `json:"lot_number"` // sequential per installation
	ProductType     string    `json:"product_type"`
	Capacity        int       `json:"capacity"`
	Used            int       `json:"used"` // count of live bales, moves only with bale lifecycle
	Status          string    `json:"status"`
	CreatedByUserID int       `json:"created_by_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// CreateLotRequest represents the request body for creating a lot
type CreateLotRequest struct {
	ProductType string `json:"product_type"`
	Capacity    int    `json:"capacity"` // defaults to DefaultLotCapacity when 0
}

// UpdateLotStatusRequest represents the request body for a lot status change
type UpdateLotStatusRequest struct {
	Status string `json:"status"`
}

// lotTransitions lists the allowed status moves.
var lotTransitions = map[string][]string{
	LotDraft:  {LotActive},
	LotActive: {LotPaused, LotClosed},
	LotPaused: {LotActive, LotClosed},
}

// LotStatusAllowed reports whether a lot may move from one status to another.
func LotStatusAllowed(from, to string) bool {
	for _, s := range lotTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
