package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"textile-backend/internal/middleware"
	"textile-backend/internal/models"
	"textile-backend/internal/services"
	"textile-backend/internal/storage"
	"textile-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// ShipmentHandler handles dispatch and delivery endpoints
type ShipmentHandler struct {
	service *services.ShipmentService
	actions storage.ActionLogStore
}

func NewShipmentHandler(service *services.ShipmentService, actions storage.ActionLogStore) *ShipmentHandler {
	return &ShipmentHandler{service: service, actions: actions}
}

// Create handles POST /api/shipments
func (h *ShipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sh, err := h.service.CreateShipment(r.Context(), &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	logAction(r, h.actions, actor.UserID, "DISPATCH", "shipment", sh.ID, "shipment created for order "+sh.OrderID)
	utils.JSON(w, http.StatusCreated, sh)
}

// List handles GET /api/shipments
func (h *ShipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	shipments, err := h.service.ListShipments(r.Context())
	if err != nil {
		utils.Error(w, err)
		return
	}
	if shipments == nil {
		shipments = []models.Shipment{}
	}
	utils.JSON(w, http.StatusOK, shipments)
}

// Get handles GET /api/shipments/{id}
func (h *ShipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	sh, err := h.service.GetShipment(r.Context(), id)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sh)
}

// SetStatus handles PATCH /api/shipments/{id}/status
func (h *ShipmentHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	var req models.UpdateShipmentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sh, err := h.service.SetStatus(r.Context(), id, req.Status, req.Notes, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	logAction(r, h.actions, actor.UserID, "UPDATE", "shipment", id, "shipment status set to "+req.Status)
	utils.JSON(w, http.StatusOK, sh)
}

// SetDocument handles PATCH /api/shipments/{id}/documents
func (h *ShipmentHandler) SetDocument(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	var req models.SetShipmentDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sh, err := h.service.SetDocumentFlag(r.Context(), id, req.Document, req.Ready, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, sh)
}

// Complete handles POST /api/shipments/{id}/complete
func (h *ShipmentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid shipment ID", http.StatusBadRequest)
		return
	}

	var req models.CompleteShipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sh, err := h.service.Complete(r.Context(), id, &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	logAction(r, h.actions, actor.UserID, "DELIVER", "shipment", id, "delivery confirmed by "+req.RecipientName)
	utils.JSON(w, http.StatusOK, sh)
}
