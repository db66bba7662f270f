package models

import "time"

// Modification request statuses
const (
	ModificationPending  = "pending"
	ModificationApproved = "approved"
	ModificationRejected = "rejected"
)

// ModificationSnapshot freezes the checklist summary at request time so the
// reviewer can compare the audited numbers against whatever the checklist
// looks like later. It is a copy, never a live reference.
type ModificationSnapshot struct {
	TotalToys     int     `json:"total_toys"`
	TotalWeight   float64 `json:"total_weight"`
	MarkasCount   int     `json:"markas_count"`
	AverageWeight float64 `json:"average_weight"`
}

type ModificationRequest struct {
	ID                int                  `json:"id"`
	ChecklistID       int                  `json:"checklist_id"`
	RequestedByUserID int                  `json:"requested_by_user_id"`
	RequestedRole     string               `json:"requested_role"`
	Reason            string               `json:"reason"`
	Status            string               `json:"status"`
	ReviewedByUserID  *int                 `json:"reviewed_by_user_id,omitempty"`
	ReviewedAt        *time.Time           `json:"reviewed_at,omitempty"`
	ReviewNote        *string              `json:"review_note,omitempty"`
	Snapshot          ModificationSnapshot `json:"snapshot"`
	CreatedAt         time.Time            `json:"created_at"`
}

// ReviewModificationRequest represents the reviewer's note on approve/reject
type ReviewModificationRequest struct {
	Note string `json:"note"`
}
