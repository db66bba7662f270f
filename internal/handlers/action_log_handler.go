package handlers

import (
	"net/http"
	"strconv"

	"textile-backend/internal/models"
	"textile-backend/internal/storage"
	"textile-backend/pkg/utils"
)

// ActionLogHandler serves the audit trail to admins
type ActionLogHandler struct {
	actions storage.ActionLogStore
}

func NewActionLogHandler(actions storage.ActionLogStore) *ActionLogHandler {
	return &ActionLogHandler{actions: actions}
}

// List handles GET /api/actions with optional limit
func (h *ActionLogHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	logs, err := h.actions.ListActions(r.Context(), limit)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if logs == nil {
		logs = []models.ActionLog{}
	}
	utils.JSON(w, http.StatusOK, logs)
}
