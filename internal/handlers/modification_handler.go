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

// ModificationHandler handles the supervisor review queue
type ModificationHandler struct {
	service *services.ModificationService
	actions storage.ActionLogStore
}

func NewModificationHandler(service *services.ModificationService, actions storage.ActionLogStore) *ModificationHandler {
	return &ModificationHandler{service: service, actions: actions}
}

// List handles GET /api/modifications with optional status filter
func (h *ModificationHandler) List(w http.ResponseWriter, r *http.Request) {
	mods, err := h.service.ListModifications(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		utils.Error(w, err)
		return
	}
	if mods == nil {
		mods = []models.ModificationRequest{}
	}
	utils.JSON(w, http.StatusOK, mods)
}

// Get handles GET /api/modifications/{id}
func (h *ModificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	mod, err := h.service.GetModification(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, mod)
}

// Approve handles POST /api/modifications/{id}/approve
func (h *ModificationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, true)
}

// Reject handles POST /api/modifications/{id}/reject
func (h *ModificationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, false)
}

func (h *ModificationHandler) review(w http.ResponseWriter, r *http.Request, approve bool) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid request ID", http.StatusBadRequest)
		return
	}

	var req models.ReviewModificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mod, err := h.service.Review(r.Context(), id, approve, req.Note, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateSummary(r.Context(), mod.ChecklistID)

	actionType := "REJECT"
	if approve {
		actionType = "APPROVE"
	}
	logAction(r, h.actions, actor.UserID, actionType, "modification_request", id, req.Note)
	utils.JSON(w, http.StatusOK, mod)
}
