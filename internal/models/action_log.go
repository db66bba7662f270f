package models

import "time"

// ActionLog is the audit trail for privileged operations (lock, dispatch,
// modification review). Every entry names who did what to which record.
type ActionLog struct {
	ID          int       `json:"id"`
	UserID      int       `json:"user_id"`
	ActionType  string    `json:"action_type"` // CREATE, LOCK, APPROVE, REJECT, DISPATCH, ...
	TargetType  string    `json:"target_type"` // checklist, shipment, ...
	TargetID    *int      `json:"target_id,omitempty"`
	Description string    `json:"description"`
	IPAddress   *string   `json:"ip_address,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
