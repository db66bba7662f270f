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

// LotHandler handles lot (marka) HTTP requests
type LotHandler struct {
	service *services.LotService
	actions storage.ActionLogStore
}

func NewLotHandler(service *services.LotService, actions storage.ActionLogStore) *LotHandler {
	return &LotHandler{service: service, actions: actions}
}

// Create handles POST /api/lots
func (h *LotHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateLotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lot, err := h.service.CreateLot(r.Context(), &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateLots(r.Context())
	logAction(r, h.actions, actor.UserID, "CREATE", "lot", lot.ID, "opened lot for "+lot.ProductType)
	utils.JSON(w, http.StatusCreated, lot)
}

// List handles GET /api/lots
func (h *LotHandler) List(w http.ResponseWriter, r *http.Request) {
	if data, ok := cache.GetCachedLots(r.Context()); ok {
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
		return
	}

	lots, err := h.service.ListLots(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	if lots == nil {
		lots = []models.Lot{}
	}

	data, err := json.Marshal(lots)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.CacheLots(r.Context(), data)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// Get handles GET /api/lots/{id}
func (h *LotHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid lot ID", http.StatusBadRequest)
		return
	}

	lot, err := h.service.GetLot(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, lot)
}

// SetStatus handles PATCH /api/lots/{id}/status
func (h *LotHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid lot ID", http.StatusBadRequest)
		return
	}

	var req models.UpdateLotStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lot, err := h.service.SetStatus(r.Context(), id, req.Status, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateLots(r.Context())
	logAction(r, h.actions, actor.UserID, "UPDATE", "lot", id, "lot status set to "+req.Status)
	utils.JSON(w, http.StatusOK, lot)
}
