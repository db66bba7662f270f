package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"textile-backend/internal/cache"
	"textile-backend/internal/middleware"
	"textile-backend/internal/models"
	"textile-backend/internal/services"
	"textile-backend/internal/storage"
	"textile-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// ChecklistHandler handles the reservation lifecycle endpoints
type ChecklistHandler struct {
	service *services.ChecklistService
	actions storage.ActionLogStore
}

func NewChecklistHandler(service *services.ChecklistService, actions storage.ActionLogStore) *ChecklistHandler {
	return &ChecklistHandler{service: service, actions: actions}
}

func (h *ChecklistHandler) writeChecklist(w http.ResponseWriter, r *http.Request, status int, cl *models.Checklist) {
	data, err := json.Marshal(cl)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.CacheSummary(r.Context(), cl.ID, data)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

// Create handles POST /api/checklists
func (h *ChecklistHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cl, err := h.service.CreateChecklist(r.Context(), &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	logAction(r, h.actions, actor.UserID, "CREATE", "checklist", cl.ID, "opened checklist")
	h.writeChecklist(w, r, http.StatusCreated, cl)
}

// Get handles GET /api/checklists/{id}
func (h *ChecklistHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}

	if data, ok := cache.GetCachedSummary(r.Context(), id); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	cl, err := h.service.GetChecklist(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	h.writeChecklist(w, r, http.StatusOK, cl)
}

// List handles GET /api/checklists with optional workspace_id filter
func (h *ChecklistHandler) List(w http.ResponseWriter, r *http.Request) {
	workspaceID := 0
	if v := r.URL.Query().Get("workspace_id"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid workspace_id filter", http.StatusBadRequest)
			return
		}
		workspaceID = n
	}

	lists, err := h.service.ListChecklists(r.Context(), workspaceID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if lists == nil {
		lists = []models.Checklist{}
	}
	utils.JSON(w, http.StatusOK, lists)
}

// AddBales handles POST /api/checklists/{id}/bales
func (h *ChecklistHandler) AddBales(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}

	var req models.AddBalesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	cl, err := h.service.AddBales(r.Context(), id, req.BaleIDs, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), id)
	h.writeChecklist(w, r, http.StatusOK, cl)
}

// RemoveItem handles DELETE /api/checklists/{id}/items/{itemId}
func (h *ChecklistHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	vars := mux.Vars(r)
	id, err := strconv.Atoi(vars["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}
	itemID, err := strconv.Atoi(vars["itemId"])
	if err != nil {
		http.Error(w, "Invalid item ID", http.StatusBadRequest)
		return
	}

	cl, err := h.service.RemoveItem(r.Context(), id, itemID, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), id)
	h.writeChecklist(w, r, http.StatusOK, cl)
}

// Confirm handles POST /api/checklists/{id}/confirm
func (h *ChecklistHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}

	cl, err := h.service.Confirm(r.Context(), id, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), id)
	logAction(r, h.actions, actor.UserID, "CONFIRM", "checklist", id, "checklist confirmed")
	h.writeChecklist(w, r, http.StatusOK, cl)
}

// Lock handles POST /api/checklists/{id}/lock
func (h *ChecklistHandler) Lock(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}

	cl, err := h.service.Lock(r.Context(), id, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), id)
	logAction(r, h.actions, actor.UserID, "LOCK", "checklist", id, "checklist locked")
	h.writeChecklist(w, r, http.StatusOK, cl)
}

// Delete handles DELETE /api/checklists/{id}
func (h *ChecklistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteChecklist(r.Context(), id, actor); err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), id)
	logAction(r, h.actions, actor.UserID, "DELETE", "checklist", id, "draft checklist deleted")
	w.WriteHeader(http.StatusNoContent)
}

// RequestModification handles POST /api/checklists/{id}/modifications
func (h *ChecklistHandler) RequestModification(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid checklist ID", http.StatusBadRequest)
		return
	}

	var req models.RequestModificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mod, err := h.service.RequestModification(r.Context(), id, req.Reason, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), id)
	logAction(r, h.actions, actor.UserID, "REQUEST_MODIFICATION", "checklist", id, req.Reason)
	utils.JSON(w, http.StatusCreated, mod)
}
