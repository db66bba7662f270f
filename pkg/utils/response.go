package utils

import (
	"encoding/json"
	"net/http"

	"textile-backend/internal/apperr"
)

func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Error writes a domain error as JSON with the matching HTTP status. The
// apperr payload goes out as-is so the terminal UI can show per-bale failure
// reasons without parsing message strings.
func Error(w http.ResponseWriter, err error) {
	ae, ok := apperr.From(err)
	if !ok {
		JSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	status := http.StatusInternalServerError
	switch ae.Kind {
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindPermissionDenied:
		status = http.StatusForbidden
	case apperr.KindInvalidState, apperr.KindInvalidTransition, apperr.KindDuplicateRequest:
		status = http.StatusConflict
	case apperr.KindIneligibleBale, apperr.KindCapacityExceeded:
		status = http.StatusUnprocessableEntity
	}
	JSON(w, status, map[string]interface{}{"error": ae})
}
