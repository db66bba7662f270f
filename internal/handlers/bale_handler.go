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

// BaleHandler handles bale registration, grading and disposal requests
type BaleHandler struct {
	service *services.BaleService
	actions storage.ActionLogStore
}

func NewBaleHandler(service *services.BaleService, actions storage.ActionLogStore) *BaleHandler {
	return &BaleHandler{service: service, actions: actions}
}

// Register handles POST /api/bales
func (h *BaleHandler) Register(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateBaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bale, err := h.service.RegisterBale(r.Context(), &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateLots(r.Context())
	utils.JSON(w, http.StatusCreated, bale)
}

// List handles GET /api/bales with optional lot_id, status and lab_status filters
func (h *BaleHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter storage.BaleFilter
	if v := r.URL.Query().Get("lot_id"); v != "" {
		lotID, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "Invalid lot_id filter", http.StatusBadRequest)
			return
		}
		filter.LotID = &lotID
	}
	filter.Status = r.URL.Query().Get("status")
	filter.LabStatus = r.URL.Query().Get("lab_status")

	bales, err := h.service.ListBales(r.Context(), filter)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if bales == nil {
		bales = []models.Bale{}
	}
	utils.JSON(w, http.StatusOK, bales)
}

// Get handles GET /api/bales/{id}
func (h *BaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid bale ID", http.StatusBadRequest)
		return
	}

	bale, err := h.service.GetBale(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, bale)
}

// GetByQR handles GET /api/bales/qr/{code}, the scanner lookup path
func (h *BaleHandler) GetByQR(w http.ResponseWriter, r *http.Request) {
	bale, err := h.service.GetBaleByQR(r.Context(), mux.Vars(r)["code"])
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, bale)
}

// Grade handles POST /api/bales/{id}/grade
func (h *BaleHandler) Grade(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid bale ID", http.StatusBadRequest)
		return
	}

	var req models.GradeBaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bale, err := h.service.Grade(r.Context(), id, &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	logAction(r, h.actions, actor.UserID, "GRADE", "bale", id, "lab outcome "+req.Outcome)
	utils.JSON(w, http.StatusOK, bale)
}

// Dispose handles POST /api/bales/{id}/dispose
func (h *BaleHandler) Dispose(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid bale ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Target string `json:"target"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	bale, err := h.service.Dispose(r.Context(), id, req.Target, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.InvalidateLots(r.Context())
	logAction(r, h.actions, actor.UserID, "DISPOSE", "bale", id, "bale moved to "+req.Target)
	utils.JSON(w, http.StatusOK, bale)
}
