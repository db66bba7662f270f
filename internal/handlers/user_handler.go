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

// UserHandler handles admin-side user management
type UserHandler struct {
	service *services.UserService
	actions storage.ActionLogStore
}

func NewUserHandler(service *services.UserService, actions storage.ActionLogStore) *UserHandler {
	return &UserHandler{service: service, actions: actions}
}

// Create handles POST /api/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req models.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	user, err := h.service.CreateUser(r.Context(), &req, actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	logAction(r, h.actions, actor.UserID, "CREATE", "user", user.ID, "created user "+user.Email+" with role "+user.Role)
	utils.JSON(w, http.StatusCreated, user)
}

// List handles GET /api/users
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	users, err := h.service.ListUsers(r.Context(), actor)
	if err != nil {
		utils.Error(w, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	utils.JSON(w, http.StatusOK, users)
}

// SetActive handles PATCH /api/users/{id}/active
func (h *UserHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := middleware.GetActorFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Invalid user ID", http.StatusBadRequest)
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.service.SetActive(r.Context(), id, req.Active, actor); err != nil {
		utils.Error(w, err)
		return
	}
	verb := "deactivated"
	if req.Active {
		verb = "activated"
	}
	logAction(r, h.actions, actor.UserID, "UPDATE", "user", id, verb+" user account")
	utils.JSON(w, http.StatusOK, map[string]bool{"active": req.Active})
}
