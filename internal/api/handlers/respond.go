package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/cleancity/cleancity-be/internal/errs"
)

// respondJSON writes payload with the given status code.
func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// respondError writes the standard error body {message}.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// respondValidation writes the standard validation body {message, errors}.
func respondValidation(w http.ResponseWriter, ve *errs.ValidationError) {
	respondJSON(w, http.StatusBadRequest, map[string]interface{}{
		"message": "Validation failed",
		"errors":  ve.Fields,
	})
}
