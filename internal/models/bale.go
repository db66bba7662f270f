package models

import "time"

// Bale lifecycle statuses
const (
	BaleInStock  = "in_stock"
	BaleReserved = "reserved"
	BaleShipped  = "shipped"
	BaleReturned = "returned"
	BaleWaste    = "waste"
)

// Lab statuses
const (
	LabPending  = "pending"
	LabApproved = "approved"
	LabRejected = "rejected"
)

type Bale struct {
	ID              int        `json:"id"`
	QRCode          string     `json:"qr_code"`
	LotID           int        `json:"lot_id"`
	GrossWeight     float64    `json:"gross_weight"`
	TareWeight      float64    `json:"tare_weight"`
	NetWeight       float64    `json:"net_weight"` // gross - tare
	Grade           string     `json:"grade"`      // empty until graded
	Status          string     `json:"status"`
	LabStatus       string     `json:"lab_status"`
	LabNote         *string    `json:"lab_note,omitempty"`
	GradedByUserID  *int       `json:"graded_by_user_id,omitempty"`
	GradedAt        *time.Time `json:"graded_at,omitempty"`
	CreatedByUserID int        `json:"created_by_user_id"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Eligible reports whether the bale may be added to a checklist.
func (b *Bale) Eligible() bool {
	return b.Status == BaleInStock && b.LabStatus == LabApproved
}

// IneligibleReason explains why Eligible is false. Empty when eligible.
func (b *Bale) IneligibleReason() string {
	switch {
	case b.LabStatus == LabPending:
		return "lab grading pending"
	case b.LabStatus == LabRejected:
		return "rejected by lab"
	case b.Status == BaleReserved:
		return "already reserved on another checklist"
	case b.Status != BaleInStock:
		return "not in stock (status " + b.Status + ")"
	}
	return ""
}

// CreateBaleRequest represents the request body for registering a bale.
// Weights come from the operator UI which reads the scale feed.
type CreateBaleRequest struct {
	LotID       int     `json:"lot_id"`
	GrossWeight float64 `json:"gross_weight"`
	TareWeight  float64 `json:"tare_weight"`
}

// GradeBaleRequest represents a lab grading outcome for one bale
type GradeBaleRequest struct {
	Outcome string `json:"outcome"` // approved or rejected
	Grade   string `json:"grade"`   // required when approved
	Note    string `json:"note"`
}
