package handlers

import (
	"net/http"

	"textile-backend/internal/health"
	"textile-backend/pkg/utils"
)

// HealthHandler serves liveness and host stats
type HealthHandler struct {
	checker *health.HealthChecker
}

func NewHealthHandler(checker *health.HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Healthz handles GET /healthz
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	status := h.checker.CheckBasic()
	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	utils.JSON(w, code, status)
}

// SystemStats handles GET /api/system/stats
func (h *HealthHandler) SystemStats(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, health.CollectSystemStats())
}
