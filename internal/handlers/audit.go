package handlers

import (
	"net"
	"net/http"

	"textile-backend/internal/models"
	"textile-backend/internal/storage"
)

// logAction appends an audit entry. Best-effort: a failed audit write never
// fails the operation it describes.
func logAction(r *http.Request, actions storage.ActionLogStore, userID int, actionType, targetType string, targetID int, description string) {
	if actions == nil {
		return
	}
	var ip *string
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		ip = &host
	}
	tid := targetID
	_ = actions.AppendAction(r.Context(), &models.ActionLog{
		UserID:      userID,
		ActionType:  actionType,
		TargetType:  targetType,
		TargetID:    &tid,
		Description: description,
		IPAddress:   ip,
	})
}
