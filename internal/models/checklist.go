package models

import (
	"sort"
	"time"
)

// Checklist statuses
const (
	ChecklistDraft       = "draft"
	ChecklistConfirmed   = "confirmed"
	ChecklistLocked      = "locked"
	ChecklistModRequested = "modification_requested"
)

type Checklist struct {
	ID                int             `json:"id"`
	WorkspaceID       int             `json:"workspace_id"`
	CustomerID        int             `json:"customer_id"`
	Status            string          `json:"status"`
	CreatedByUserID   int             `json:"created_by_user_id"`
	ConfirmedByUserID *int            `json:"confirmed_by_user_id,omitempty"`
	LockedByUserID    *int            `json:"locked_by_user_id,omitempty"`
	ConfirmedAt       *time.Time      `json:"confirmed_at,omitempty"`
	LockedAt          *time.Time      `json:"locked_at,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	Items             []ChecklistItem `json:"items"`
	Summary           *ChecklistSummary `json:"summary,omitempty"` // recomputed, never stored
}

// ChecklistItem snapshots the bale at the moment it was added, so later
// bale edits cannot change what was agreed with the customer.
type ChecklistItem struct {
	ID          int       `json:"id"`
	ChecklistID int       `json:"checklist_id"`
	Position    int       `json:"position"` // contiguous 0..n-1
	BaleID      int       `json:"bale_id"`
	QRCode      string    `json:"qr_code"`
	LotID       int       `json:"lot_id"`
	NetWeight   float64   `json:"net_weight"`
	Grade       string    `json:"grade"`
	AddedAt     time.Time `json:"added_at"`
}

type ChecklistSummary struct {
	TotalToys     int            `json:"total_toys"`
	TotalWeight   float64        `json:"total_weight"`
	MarkasCount   int            `json:"markas_count"`
	AverageWeight float64        `json:"average_weight"`
	Lots          []LotBreakdown `json:"lots"`
	Grades        map[string]int `json:"grades"`
}

type LotBreakdown struct {
	LotID  int     `json:"lot_id"`
	Toys   int     `json:"toys"`
	Weight float64 `json:"weight"`
}

// BuildSummary recomputes the checklist summary from its items. It is called
// after every mutation; a stale summary is never served.
func BuildSummary(items []ChecklistItem) *ChecklistSummary {
	s := &ChecklistSummary{Grades: map[string]int{}}
	byLot := map[int]*LotBreakdown{}
	for _, it := range items {
		s.TotalToys++
		s.TotalWeight += it.NetWeight
		s.Grades[it.Grade]++
		lb, ok := byLot[it.LotID]
		if !ok {
			lb = &LotBreakdown{LotID: it.LotID}
			byLot[it.LotID] = lb
		}
		lb.Toys++
		lb.Weight += it.NetWeight
	}
	s.MarkasCount = len(byLot)
	if s.TotalToys > 0 {
		s.AverageWeight = s.TotalWeight / float64(s.TotalToys)
	}
	for _, lb := range byLot {
		s.Lots = append(s.Lots, *lb)
	}
	sort.Slice(s.Lots, func(i, j int) bool { return s.Lots[i].LotID < s.Lots[j].LotID })
	return s
}

// CreateChecklistRequest represents the request body for creating a checklist
type CreateChecklistRequest struct {
	WorkspaceID int `json:"workspace_id"`
	CustomerID  int `json:"customer_id"`
}

// AddBalesRequest represents the batch of bales to reserve
type AddBalesRequest struct {
	BaleIDs []int `json:"bale_ids"`
}

// RequestModificationRequest represents a post-lock correction request
type RequestModificationRequest struct {
	Reason string `json:"reason"`
}
