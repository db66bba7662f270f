package handlers

import (
	"encoding/json"
	"net/http"

	"textile-backend/internal/cache"
	"textile-backend/internal/middleware"
	"textile-backend/internal/models"
	"textile-backend/internal/services"
	"textile-backend/pkg/utils"
)

// AuthHandler handles signup, login and the session introspection endpoint
type AuthHandler struct {
	service *services.UserService
}

func NewAuthHandler(service *services.UserService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Signup handles POST /auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	resp, err := h.service.Signup(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusCreated, resp)
}

// Login handles POST /auth/login. A credential cache hit skips the bcrypt
// round; the token itself is always freshly minted.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if userID, ok := cache.GetCachedAuth(r.Context(), req.Email, req.Password); ok {
		if resp, err := h.service.TokenForUser(r.Context(), userID); err == nil {
			utils.JSON(w, http.StatusOK, resp)
			return
		}
		cache.InvalidateAuth(r.Context(), req.Email, req.Password)
	}

	resp, err := h.service.Login(r.Context(), &req)
	if err != nil {
		utils.Error(w, err)
		return
	}
	cache.CacheAuth(r.Context(), req.Email, req.Password, resp.User.ID)
	utils.JSON(w, http.StatusOK, resp)
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		utils.Error(w, err)
		return
	}
	utils.JSON(w, http.StatusOK, user)
}
